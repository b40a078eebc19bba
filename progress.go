package arbor

import (
	"fmt"
	"math"
	"sync"

	"github.com/tanema/gween/ease"
)

// ProgressMode maps the linear progress of a timeline, in [0, 1], to the
// eased progress handed to intervals. Every mode maps 0 to exactly 0 and 1
// to exactly 1; in between the result is not clamped, so modes such as
// back and elastic overshoot.
//
// The zero ProgressMode is linear.
type ProgressMode struct {
	name string
	fn   func(float64) float64
}

// Name returns the registered name of the mode.
func (m ProgressMode) Name() string {
	if m.name == "" {
		return "linear"
	}
	return m.name
}

func (m ProgressMode) String() string { return m.Name() }

// Apply maps linear progress t to eased progress.
func (m ProgressMode) Apply(t float64) float64 {
	if t <= 0 {
		if t == 0 {
			return 0
		}
	} else if t == 1 {
		return 1
	}
	if m.fn == nil {
		return t
	}
	return m.fn(t)
}

// NewProgressMode wraps a custom curve. fn receives linear progress and
// should return 0 for 0 and 1 for 1; Apply enforces it regardless.
func NewProgressMode(name string, fn func(t float64) float64) ProgressMode {
	return ProgressMode{name: name, fn: fn}
}

// fromTween adapts a tween easing function to normalized progress.
func fromTween(name string, fn ease.TweenFunc) ProgressMode {
	return ProgressMode{name: name, fn: func(t float64) float64 {
		return float64(fn(float32(t), 0, 1, 1))
	}}
}

// Named easing modes.
var (
	Linear = ProgressMode{name: "linear"}

	EaseInQuad    = fromTween("ease-in-quad", ease.InQuad)
	EaseOutQuad   = fromTween("ease-out-quad", ease.OutQuad)
	EaseInOutQuad = fromTween("ease-in-out-quad", ease.InOutQuad)

	EaseInCubic    = fromTween("ease-in-cubic", ease.InCubic)
	EaseOutCubic   = fromTween("ease-out-cubic", ease.OutCubic)
	EaseInOutCubic = fromTween("ease-in-out-cubic", ease.InOutCubic)

	EaseInQuart    = fromTween("ease-in-quart", ease.InQuart)
	EaseOutQuart   = fromTween("ease-out-quart", ease.OutQuart)
	EaseInOutQuart = fromTween("ease-in-out-quart", ease.InOutQuart)

	EaseInQuint    = fromTween("ease-in-quint", ease.InQuint)
	EaseOutQuint   = fromTween("ease-out-quint", ease.OutQuint)
	EaseInOutQuint = fromTween("ease-in-out-quint", ease.InOutQuint)

	EaseInSine    = fromTween("ease-in-sine", ease.InSine)
	EaseOutSine   = fromTween("ease-out-sine", ease.OutSine)
	EaseInOutSine = fromTween("ease-in-out-sine", ease.InOutSine)

	EaseInExpo    = fromTween("ease-in-expo", ease.InExpo)
	EaseOutExpo   = fromTween("ease-out-expo", ease.OutExpo)
	EaseInOutExpo = fromTween("ease-in-out-expo", ease.InOutExpo)

	EaseInCirc    = fromTween("ease-in-circ", ease.InCirc)
	EaseOutCirc   = fromTween("ease-out-circ", ease.OutCirc)
	EaseInOutCirc = fromTween("ease-in-out-circ", ease.InOutCirc)

	EaseInElastic    = fromTween("ease-in-elastic", ease.InElastic)
	EaseOutElastic   = fromTween("ease-out-elastic", ease.OutElastic)
	EaseInOutElastic = fromTween("ease-in-out-elastic", ease.InOutElastic)

	EaseInBack    = fromTween("ease-in-back", ease.InBack)
	EaseOutBack   = fromTween("ease-out-back", ease.OutBack)
	EaseInOutBack = fromTween("ease-in-out-back", ease.InOutBack)

	EaseInBounce    = fromTween("ease-in-bounce", ease.InBounce)
	EaseOutBounce   = fromTween("ease-out-bounce", ease.OutBounce)
	EaseInOutBounce = fromTween("ease-in-out-bounce", ease.InOutBounce)

	// CSS timing-function presets.
	Ease      = namedBezier("ease", 0.25, 0.1, 0.25, 1)
	EaseIn    = namedBezier("ease-in", 0.42, 0, 1, 1)
	EaseOut   = namedBezier("ease-out", 0, 0, 0.58, 1)
	EaseInOut = namedBezier("ease-in-out", 0.42, 0, 0.58, 1)
)

// --- Registry ---

var (
	progressMu       sync.RWMutex
	progressRegistry = map[string]ProgressMode{}
)

func init() {
	for _, m := range []ProgressMode{
		Linear,
		EaseInQuad, EaseOutQuad, EaseInOutQuad,
		EaseInCubic, EaseOutCubic, EaseInOutCubic,
		EaseInQuart, EaseOutQuart, EaseInOutQuart,
		EaseInQuint, EaseOutQuint, EaseInOutQuint,
		EaseInSine, EaseOutSine, EaseInOutSine,
		EaseInExpo, EaseOutExpo, EaseInOutExpo,
		EaseInCirc, EaseOutCirc, EaseInOutCirc,
		EaseInElastic, EaseOutElastic, EaseInOutElastic,
		EaseInBack, EaseOutBack, EaseInOutBack,
		EaseInBounce, EaseOutBounce, EaseInOutBounce,
		Ease, EaseIn, EaseOut, EaseInOut,
		Steps(1, StepStart), Steps(1, StepEnd),
	} {
		progressRegistry[m.name] = m
	}
}

// RegisterProgressFunc adds a named curve to the registry used by
// ProgressModeByName, replacing any mode with the same name.
func RegisterProgressFunc(name string, fn func(t float64) float64) ProgressMode {
	m := NewProgressMode(name, fn)
	progressMu.Lock()
	progressRegistry[name] = m
	progressMu.Unlock()
	return m
}

// ProgressModeByName looks up a registered mode, e.g. "ease-out-cubic".
func ProgressModeByName(name string) (ProgressMode, bool) {
	progressMu.RLock()
	m, ok := progressRegistry[name]
	progressMu.RUnlock()
	return m, ok
}

// --- Cubic bezier ---

// CubicBezier returns a CSS-style timing function with control points
// (x1, y1) and (x2, y2). x1 and x2 are clamped to [0, 1]; y values are free
// and may overshoot.
func CubicBezier(x1, y1, x2, y2 float64) ProgressMode {
	return namedBezier(fmt.Sprintf("cubic-bezier(%g, %g, %g, %g)", x1, y1, x2, y2), x1, y1, x2, y2)
}

func namedBezier(name string, x1, y1, x2, y2 float64) ProgressMode {
	b := newUnitBezier(math.Max(0, math.Min(1, x1)), y1, math.Max(0, math.Min(1, x2)), y2)
	return ProgressMode{name: name, fn: b.solve}
}

// unitBezier evaluates a cubic bezier from (0, 0) to (1, 1) as y(x).
type unitBezier struct {
	ax, bx, cx float64
	ay, by, cy float64
}

func newUnitBezier(x1, y1, x2, y2 float64) unitBezier {
	var b unitBezier
	b.cx = 3 * x1
	b.bx = 3*(x2-x1) - b.cx
	b.ax = 1 - b.cx - b.bx
	b.cy = 3 * y1
	b.by = 3*(y2-y1) - b.cy
	b.ay = 1 - b.cy - b.by
	return b
}

func (b unitBezier) sampleX(t float64) float64 { return ((b.ax*t+b.bx)*t + b.cx) * t }
func (b unitBezier) sampleY(t float64) float64 { return ((b.ay*t+b.by)*t + b.cy) * t }
func (b unitBezier) sampleDX(t float64) float64 {
	return (3*b.ax*t+2*b.bx)*t + b.cx
}

// solve finds t for x with Newton's method, falling back to bisection, and
// returns y(t).
func (b unitBezier) solve(x float64) float64 {
	const eps = 1e-7
	t := x
	for i := 0; i < 8; i++ {
		dx := b.sampleX(t) - x
		if math.Abs(dx) < eps {
			return b.sampleY(t)
		}
		d := b.sampleDX(t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= dx / d
	}
	lo, hi := 0.0, 1.0
	t = math.Max(lo, math.Min(hi, x))
	for lo < hi {
		xt := b.sampleX(t)
		if math.Abs(xt-x) < eps {
			break
		}
		if x > xt {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
		if hi-lo < eps {
			break
		}
	}
	return b.sampleY(t)
}

// --- Steps ---

// StepPosition selects where the jump of each step happens.
type StepPosition uint8

const (
	StepEnd   StepPosition = iota // jump at the end of each interval
	StepStart                     // jump at the start of each interval
)

// Steps returns a staircase with n equal steps.
func Steps(n int, pos StepPosition) ProgressMode {
	if n < 1 {
		n = 1
	}
	name := fmt.Sprintf("steps(%d, end)", n)
	if pos == StepStart {
		name = fmt.Sprintf("steps(%d, start)", n)
	}
	steps := float64(n)
	return ProgressMode{name: name, fn: func(t float64) float64 {
		s := math.Floor(t * steps)
		if pos == StepStart {
			s++
		}
		return s / steps
	}}
}
