package arbor

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
)

var (
	// ErrIncompatibleInterval is returned when the two ends of an interval
	// have different types, or an end is missing.
	ErrIncompatibleInterval = errors.New("arbor: incompatible interval values")
	// ErrUnsupportedType is returned when no interpolator is registered for
	// the interval's type.
	ErrUnsupportedType = errors.New("arbor: no interpolator for type")
)

type interpolateFunc func(a, b any, p float64) any

var (
	interpMu      sync.RWMutex
	interpolators = map[reflect.Type]interpolateFunc{}
)

// RegisterInterpolator makes values of type T usable with NewInterval. fn
// must return a for p == 0 and b for p == 1, and must accept any real p.
func RegisterInterpolator[T any](fn func(a, b T, p float64) T) {
	typ := reflect.TypeFor[T]()
	interpMu.Lock()
	interpolators[typ] = wrapInterpolator(fn)
	interpMu.Unlock()
}

func wrapInterpolator[T any](fn func(a, b T, p float64) T) interpolateFunc {
	return func(a, b any, p float64) any { return fn(a.(T), b.(T), p) }
}

func lookupInterpolator(typ reflect.Type) (interpolateFunc, bool) {
	interpMu.RLock()
	fn, ok := interpolators[typ]
	interpMu.RUnlock()
	return fn, ok
}

func lerp(a, b, p float64) float64 {
	switch p {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*p
}

func init() {
	RegisterInterpolator(lerp)
	RegisterInterpolator(func(a, b float32, p float64) float32 {
		return float32(lerp(float64(a), float64(b), p))
	})
	RegisterInterpolator(func(a, b int, p float64) int {
		return int(math.Round(lerp(float64(a), float64(b), p)))
	})
	RegisterInterpolator(func(a, b uint8, p float64) uint8 {
		v := math.Round(lerp(float64(a), float64(b), p))
		return uint8(math.Max(0, math.Min(255, v)))
	})
	RegisterInterpolator(func(a, b bool, p float64) bool {
		if p > 0.5 {
			return b
		}
		return a
	})
	RegisterInterpolator(func(a, b Vec2, p float64) Vec2 {
		return Vec2{lerp(a.X, b.X, p), lerp(a.Y, b.Y, p)}
	})
	RegisterInterpolator(func(a, b Vec3, p float64) Vec3 {
		return Vec3{lerp(a.X, b.X, p), lerp(a.Y, b.Y, p), lerp(a.Z, b.Z, p)}
	})
	RegisterInterpolator(func(a, b Size, p float64) Size {
		return Size{lerp(a.Width, b.Width, p), lerp(a.Height, b.Height, p)}
	})
	RegisterInterpolator(func(a, b Color, p float64) Color {
		return Color{lerp(a.R, b.R, p), lerp(a.G, b.G, p), lerp(a.B, b.B, p), lerp(a.A, b.A, p)}
	})
	RegisterInterpolator(func(a, b Box, p float64) Box {
		return Box{lerp(a.X1, b.X1, p), lerp(a.Y1, b.Y1, p), lerp(a.X2, b.X2, p), lerp(a.Y2, b.Y2, p)}
	})
	RegisterInterpolator(func(a, b Margin, p float64) Margin {
		return Margin{lerp(a.Left, b.Left, p), lerp(a.Top, b.Top, p), lerp(a.Right, b.Right, p), lerp(a.Bottom, b.Bottom, p)}
	})
}

// Interval is a pair of values of one type and the function interpolating
// between them. Compute at 0 returns the initial value and at 1 the final
// value exactly.
type Interval struct {
	initial any
	final   any
	typ     reflect.Type
	interp  interpolateFunc
}

// NewInterval creates an interval between two values of the same type,
// which must have a registered interpolator (see RegisterInterpolator).
// initial may be nil, in which case it must be set with SetInitial before
// Compute; transitions fill it from the target's current value.
func NewInterval(initial, final any) (*Interval, error) {
	if final == nil {
		return nil, fmt.Errorf("final value is nil: %w", ErrIncompatibleInterval)
	}
	typ := reflect.TypeOf(final)
	if initial != nil && reflect.TypeOf(initial) != typ {
		return nil, fmt.Errorf("%T and %T: %w", initial, final, ErrIncompatibleInterval)
	}
	fn, ok := lookupInterpolator(typ)
	if !ok {
		return nil, fmt.Errorf("%v: %w", typ, ErrUnsupportedType)
	}
	return &Interval{initial: initial, final: final, typ: typ, interp: fn}, nil
}

// NewIntervalFunc creates an interval with a custom interpolation function,
// without touching the registry.
func NewIntervalFunc[T any](initial, final T, fn func(a, b T, p float64) T) *Interval {
	return &Interval{
		initial: initial,
		final:   final,
		typ:     reflect.TypeFor[T](),
		interp:  wrapInterpolator(fn),
	}
}

// Type returns the value type.
func (iv *Interval) Type() reflect.Type { return iv.typ }

// Initial returns the initial value, which may be nil if unset.
func (iv *Interval) Initial() any { return iv.initial }

// Final returns the final value.
func (iv *Interval) Final() any { return iv.final }

// SetInitial replaces the initial value. It must have the interval's type.
func (iv *Interval) SetInitial(v any) error {
	if err := iv.check(v); err != nil {
		return err
	}
	iv.initial = v
	return nil
}

// SetFinal replaces the final value. It must have the interval's type.
func (iv *Interval) SetFinal(v any) error {
	if err := iv.check(v); err != nil {
		return err
	}
	iv.final = v
	return nil
}

func (iv *Interval) check(v any) error {
	if v == nil || reflect.TypeOf(v) != iv.typ {
		return fmt.Errorf("%T is not %v: %w", v, iv.typ, ErrIncompatibleInterval)
	}
	return nil
}

// IsValid reports whether both ends are set and of the interval's type.
func (iv *Interval) IsValid() bool {
	return iv.interp != nil && iv.check(iv.initial) == nil && iv.check(iv.final) == nil
}

// Compute returns the value at progress p. p is not clamped: values below 0
// or above 1 extrapolate where the type allows it.
func (iv *Interval) Compute(p float64) (any, error) {
	if !iv.IsValid() {
		return nil, fmt.Errorf("interval %v -> %v: %w", iv.initial, iv.final, ErrIncompatibleInterval)
	}
	switch p {
	case 0:
		return iv.initial, nil
	case 1:
		return iv.final, nil
	}
	return iv.interp(iv.initial, iv.final, p), nil
}
