package arbor

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication is left to the renderer.
type Color struct {
	R, G, B, A float64
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{}
)

// Mul returns c with its alpha multiplied by alpha.
func (c Color) Mul(alpha float64) Color {
	c.A *= alpha
	return c
}

// Lerp interpolates each channel between c and to. p is not clamped.
func (c Color) Lerp(to Color, p float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*p,
		G: c.G + (to.G-c.G)*p,
		B: c.B + (to.B-c.B)*p,
		A: c.A + (to.A-c.A)*p,
	}
}

// Vec2 is a 2D vector used for positions, offsets, and directions.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D vector. Paint volumes are the only 3D geometry in the core.
type Vec3 struct {
	X, Y, Z float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Box is an axis-aligned allocation box stored as its four edges. The
// coordinate system has its origin at the top-left, with Y increasing
// downward. A child's box is expressed in its parent's coordinate space.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// BoxFromSize returns the box with origin (x, y) and the given size.
func BoxFromSize(x, y, w, h float64) Box {
	return Box{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

func (b Box) Width() float64  { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Origin returns the top-left corner.
func (b Box) Origin() Vec2 { return Vec2{b.X1, b.Y1} }

// Size returns the box dimensions.
func (b Box) Size() Size { return Size{b.Width(), b.Height()} }

// IsEmpty reports whether the box has no area.
func (b Box) IsEmpty() bool { return b.X2 <= b.X1 || b.Y2 <= b.Y1 }

// Contains reports whether the point (x, y) lies inside the box.
// Points on the edge are considered inside.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// ContainsBox reports whether other lies fully inside b.
func (b Box) ContainsBox(other Box) bool {
	return other.X1 >= b.X1 && other.Y1 >= b.Y1 && other.X2 <= b.X2 && other.Y2 <= b.Y2
}

// Translate returns the box moved by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	return Box{b.X1 + dx, b.Y1 + dy, b.X2 + dx, b.Y2 + dy}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	return Box{
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
		X2: math.Max(b.X2, other.X2),
		Y2: math.Max(b.Y2, other.Y2),
	}
}

// Intersect returns the overlap of both boxes. The result is empty (but
// never inverted) when they do not overlap.
func (b Box) Intersect(other Box) Box {
	r := Box{
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
		X2: math.Min(b.X2, other.X2),
		Y2: math.Min(b.Y2, other.Y2),
	}
	if r.X2 < r.X1 {
		r.X2 = r.X1
	}
	if r.Y2 < r.Y1 {
		r.Y2 = r.Y1
	}
	return r
}

// Clamp replaces NaN edges with zero and collapses inverted edges so the
// width and height are never negative.
func (b Box) Clamp() Box {
	b.X1 = finiteOr(b.X1, 0)
	b.Y1 = finiteOr(b.Y1, 0)
	b.X2 = finiteOr(b.X2, b.X1)
	b.Y2 = finiteOr(b.Y2, b.Y1)
	if b.X2 < b.X1 {
		b.X2 = b.X1
	}
	if b.Y2 < b.Y1 {
		b.Y2 = b.Y1
	}
	return b
}

// AllocationFlags carry extra information about an allocation pass.
type AllocationFlags uint8

const (
	// AbsoluteOriginChanged is set when the box's origin in stage
	// coordinates moved since the previous allocation, even if the box is
	// unchanged relative to the parent.
	AbsoluteOriginChanged AllocationFlags = 1 << iota
	// DelegateLayout asks Allocate to hand the whole box to the layout
	// manager without applying the actor's own alignment.
	DelegateLayout
)

// Margin is extra space around an actor, outside its allocation.
type Margin struct {
	Left, Top, Right, Bottom float64
}

// MarginAll returns a margin with the same value on all sides.
func MarginAll(v float64) Margin { return Margin{v, v, v, v} }

func (m Margin) Horizontal() float64 { return m.Left + m.Right }
func (m Margin) Vertical() float64   { return m.Top + m.Bottom }

// Align controls how an actor is placed inside the slot its parent offers.
type Align uint8

const (
	AlignFill   Align = iota // stretch to the slot
	AlignStart               // natural size at the start edge
	AlignCenter              // natural size centered
	AlignEnd                 // natural size at the end edge
)

func (a Align) String() string {
	switch a {
	case AlignFill:
		return "fill"
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Orientation selects the main axis of a layout.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

// RequestMode selects the order of the preferred-size negotiation.
type RequestMode uint8

const (
	RequestHeightForWidth RequestMode = iota // width first, then height for that width
	RequestWidthForHeight                    // height first, then width for that height
	RequestContentSize                       // intrinsic size, no cross-axis dependency
)

// ContentGravity controls how Content is fitted into the actor's box.
type ContentGravity uint8

const (
	GravityResizeFill   ContentGravity = iota // stretch to the whole box
	GravityResizeAspect                       // scale preserving aspect ratio, centered
	GravityCenter                             // natural size, centered
	GravityTopLeft                            // natural size, top-left corner
	GravityTop
	GravityTopRight
	GravityLeft
	GravityRight
	GravityBottomLeft
	GravityBottom
	GravityBottomRight
)

// ScalingFilter selects the texture sampling filter the renderer should use.
type ScalingFilter uint8

const (
	FilterLinear ScalingFilter = iota
	FilterNearest
)

// OffscreenRedirect controls when an actor's subtree is composited through
// an intermediate buffer.
type OffscreenRedirect uint8

const (
	// RedirectAutomaticForOpacity redirects only when the actor has
	// opacity below 1 and its content can overlap itself.
	RedirectAutomaticForOpacity OffscreenRedirect = iota
	// RedirectAlways always composites the subtree as a unit.
	RedirectAlways
	// RedirectNever multiplies opacity into each primitive.
	RedirectNever
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// finiteOr returns v, or def when v is NaN or infinite.
func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// sanitizeSize clamps a size to a finite, non-negative value.
func sanitizeSize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat32
	}
	return v
}
