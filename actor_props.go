package arbor

import "math"

// Property identifies an observable actor field.
type Property uint8

const (
	PropAny Property = iota // observers of PropAny see every change
	PropName
	PropParent
	PropPosition
	PropSize
	PropMinSize
	PropMargin
	PropAlign
	PropExpand
	PropRequestMode
	PropVisible
	PropOpacity
	PropReactive
	PropTranslation
	PropScale
	PropRotation
	PropPivotPoint
	PropZPosition
	PropBackgroundColor
	PropClip
	PropContent
	PropContentGravity
	PropLayoutManager
	PropAllocation
	PropOffscreenRedirect
)

var propertyNames = [...]string{
	PropAny:               "any",
	PropName:              "name",
	PropParent:            "parent",
	PropPosition:          "position",
	PropSize:              "size",
	PropMinSize:           "min-size",
	PropMargin:            "margin",
	PropAlign:             "align",
	PropExpand:            "expand",
	PropRequestMode:       "request-mode",
	PropVisible:           "visible",
	PropOpacity:           "opacity",
	PropReactive:          "reactive",
	PropTranslation:       "translation",
	PropScale:             "scale",
	PropRotation:          "rotation",
	PropPivotPoint:        "pivot-point",
	PropZPosition:         "z-position",
	PropBackgroundColor:   "background-color",
	PropClip:              "clip",
	PropContent:           "content",
	PropContentGravity:    "content-gravity",
	PropLayoutManager:     "layout-manager",
	PropAllocation:        "allocation",
	PropOffscreenRedirect: "offscreen-redirect",
}

func (p Property) String() string {
	if int(p) < len(propertyNames) {
		return propertyNames[p]
	}
	return "unknown"
}

// PropertyChange is delivered to observers after a field changed.
type PropertyChange struct {
	Actor    *Actor
	Property Property
}

// Observe registers fn to run whenever prop changes on this actor. Observing
// PropAny receives every change.
func (a *Actor) Observe(prop Property, fn func(PropertyChange)) Handle {
	if a.observers == nil {
		a.observers = make(map[Property]*Signal[PropertyChange])
	}
	sig := a.observers[prop]
	if sig == nil {
		sig = &Signal[PropertyChange]{}
		a.observers[prop] = sig
	}
	return sig.Connect(fn)
}

func (a *Actor) notify(prop Property) {
	if a.observers == nil {
		return
	}
	ch := PropertyChange{Actor: a, Property: prop}
	if sig := a.observers[prop]; sig != nil {
		sig.Emit(ch)
	}
	if sig := a.observers[PropAny]; sig != nil {
		sig.Emit(ch)
	}
}

// --- Name ---

// SetName renames the actor.
func (a *Actor) SetName(name string) {
	if a.Name == name {
		return
	}
	a.Name = name
	a.notify(PropName)
}

// --- Position and size requests ---

// SetPosition sets a fixed position. It is honored by layouts that place
// children freely (the default fixed layout); managed layouts ignore it.
func (a *Actor) SetPosition(x, y float64) {
	x, y = finiteOr(x, 0), finiteOr(y, 0)
	if a.fixedPosSet && a.fixedPos == (Vec2{x, y}) {
		return
	}
	a.fixedPos = Vec2{x, y}
	a.fixedPosSet = true
	a.QueueRelayout()
	a.notify(PropPosition)
}

// SetX sets the fixed X coordinate, keeping Y.
func (a *Actor) SetX(x float64) { a.SetPosition(x, a.fixedPos.Y) }

// SetY sets the fixed Y coordinate, keeping X.
func (a *Actor) SetY(y float64) { a.SetPosition(a.fixedPos.X, y) }

// ClearPosition removes the fixed position.
func (a *Actor) ClearPosition() {
	if !a.fixedPosSet {
		return
	}
	a.fixedPosSet = false
	a.fixedPos = Vec2{}
	a.QueueRelayout()
	a.notify(PropPosition)
}

// Position returns the fixed position when set, otherwise the origin of the
// last allocation.
func (a *Actor) Position() Vec2 {
	if a.fixedPosSet {
		return a.fixedPos
	}
	return a.allocation.Origin()
}

// HasFixedPosition reports whether SetPosition is in effect.
func (a *Actor) HasFixedPosition() bool { return a.fixedPosSet }

// SetSize sets a fixed size. A negative value on an axis removes the
// override for that axis.
func (a *Actor) SetSize(w, h float64) {
	a.setFixedWidth(w)
	a.setFixedHeight(h)
	a.QueueRelayout()
	a.notify(PropSize)
}

// SetWidth sets the fixed width; negative removes it.
func (a *Actor) SetWidth(w float64) {
	a.setFixedWidth(w)
	a.QueueRelayout()
	a.notify(PropSize)
}

// SetHeight sets the fixed height; negative removes it.
func (a *Actor) SetHeight(h float64) {
	a.setFixedHeight(h)
	a.QueueRelayout()
	a.notify(PropSize)
}

func (a *Actor) setFixedWidth(w float64) {
	if math.IsNaN(w) || w < 0 {
		a.widthSet = false
		a.fixedSize.Width = 0
		return
	}
	a.widthSet = true
	a.fixedSize.Width = sanitizeSize(w)
}

func (a *Actor) setFixedHeight(h float64) {
	if math.IsNaN(h) || h < 0 {
		a.heightSet = false
		a.fixedSize.Height = 0
		return
	}
	a.heightSet = true
	a.fixedSize.Height = sanitizeSize(h)
}

// FixedSize returns the size override and which axes it applies to.
func (a *Actor) FixedSize() (size Size, widthSet, heightSet bool) {
	return a.fixedSize, a.widthSet, a.heightSet
}

// Width returns the allocated width, or the requested width before the
// first allocation.
func (a *Actor) Width() float64 {
	if a.hasAllocation {
		return a.allocation.Width()
	}
	if a.widthSet {
		return a.fixedSize.Width
	}
	_, nat := a.GetPreferredWidth(-1)
	return nat
}

// Height returns the allocated height, or the requested height before the
// first allocation.
func (a *Actor) Height() float64 {
	if a.hasAllocation {
		return a.allocation.Height()
	}
	if a.heightSet {
		return a.fixedSize.Height
	}
	_, nat := a.GetPreferredHeight(-1)
	return nat
}

// SetMinSize overrides the minimum preferred size. Negative removes the
// override on that axis.
func (a *Actor) SetMinSize(w, h float64) {
	a.minWidthSet = !math.IsNaN(w) && w >= 0
	a.minHeightSet = !math.IsNaN(h) && h >= 0
	a.minSize = Size{sanitizeSize(w), sanitizeSize(h)}
	a.QueueRelayout()
	a.notify(PropMinSize)
}

// SetMargin sets the space kept around the actor inside its parent slot.
func (a *Actor) SetMargin(m Margin) {
	m = Margin{finiteOr(m.Left, 0), finiteOr(m.Top, 0), finiteOr(m.Right, 0), finiteOr(m.Bottom, 0)}
	if a.margin == m {
		return
	}
	a.margin = m
	a.QueueRelayout()
	a.notify(PropMargin)
}

// Margin returns the current margin.
func (a *Actor) Margin() Margin { return a.margin }

// SetXAlign sets the horizontal alignment inside the parent slot.
func (a *Actor) SetXAlign(al Align) {
	if a.xAlign == al {
		return
	}
	a.xAlign = al
	a.QueueRelayout()
	a.notify(PropAlign)
}

// SetYAlign sets the vertical alignment inside the parent slot.
func (a *Actor) SetYAlign(al Align) {
	if a.yAlign == al {
		return
	}
	a.yAlign = al
	a.QueueRelayout()
	a.notify(PropAlign)
}

// XAlign returns the horizontal alignment.
func (a *Actor) XAlign() Align { return a.xAlign }

// YAlign returns the vertical alignment.
func (a *Actor) YAlign() Align { return a.yAlign }

// SetXExpand asks layouts to give this actor extra horizontal space.
func (a *Actor) SetXExpand(expand bool) {
	if a.xExpandSet && a.xExpand == expand {
		return
	}
	a.xExpand = expand
	a.xExpandSet = true
	a.QueueRelayout()
	a.notify(PropExpand)
}

// SetYExpand asks layouts to give this actor extra vertical space.
func (a *Actor) SetYExpand(expand bool) {
	if a.yExpandSet && a.yExpand == expand {
		return
	}
	a.yExpand = expand
	a.yExpandSet = true
	a.QueueRelayout()
	a.notify(PropExpand)
}

// NeedsExpand reports whether the actor wants extra space along the given
// orientation: its own flag when set explicitly, otherwise whether any
// visible child needs it.
func (a *Actor) NeedsExpand(o Orientation) bool {
	if !a.visible {
		return false
	}
	if o == Horizontal && a.xExpandSet {
		return a.xExpand
	}
	if o == Vertical && a.yExpandSet {
		return a.yExpand
	}
	for c := a.firstChild; c != nil; c = c.nextSibling {
		if c.NeedsExpand(o) {
			return true
		}
	}
	return false
}

// SetRequestMode selects the preferred-size negotiation order.
func (a *Actor) SetRequestMode(mode RequestMode) {
	if a.requestMode == mode {
		return
	}
	a.requestMode = mode
	a.QueueRelayout()
	a.notify(PropRequestMode)
}

// RequestMode returns the negotiation order.
func (a *Actor) RequestMode() RequestMode { return a.requestMode }

// --- Visibility ---

// SetVisible shows or hides the actor. Hidden actors and their subtrees are
// neither painted nor picked, and layouts skip them.
func (a *Actor) SetVisible(visible bool) {
	if a.visible == visible {
		return
	}
	a.visible = visible
	if a.parent != nil {
		a.parent.QueueRelayout()
	}
	a.QueueRedraw()
	a.notify(PropVisible)
}

func (a *Actor) Show() { a.SetVisible(true) }
func (a *Actor) Hide() { a.SetVisible(false) }

// IsVisible reports the actor's own visible flag.
func (a *Actor) IsVisible() bool { return a.visible }

// SetOpacity sets the opacity, clamped to [0, 1].
func (a *Actor) SetOpacity(o float64) {
	o = math.Max(0, math.Min(1, finiteOr(o, 1)))
	if a.opacity == o {
		return
	}
	a.opacity = o
	a.QueueRedraw()
	a.notify(PropOpacity)
}

// Opacity returns the actor's own opacity.
func (a *Actor) Opacity() float64 { return a.opacity }

// PaintOpacity returns the opacity multiplied by every ancestor's opacity.
func (a *Actor) PaintOpacity() float64 {
	o := 1.0
	for p := a; p != nil; p = p.parent {
		o *= p.opacity
	}
	return o
}

// SetReactive controls whether the actor can be picked by pointer events.
func (a *Actor) SetReactive(reactive bool) {
	if a.reactive == reactive {
		return
	}
	a.reactive = reactive
	a.notify(PropReactive)
}

// IsReactive reports whether the actor can be picked.
func (a *Actor) IsReactive() bool { return a.reactive }

// SetHitShape replaces the allocation box with a custom hit region.
func (a *Actor) SetHitShape(shape HitShape) { a.hitShape = shape }

// --- Transform ---

// SetTranslation offsets the actor from its allocation without relayout.
func (a *Actor) SetTranslation(x, y, z float64) {
	t := Vec3{finiteOr(x, 0), finiteOr(y, 0), finiteOr(z, 0)}
	if a.translation == t {
		return
	}
	a.translation = t
	a.transformChanged()
	a.notify(PropTranslation)
}

// Translation returns the translation.
func (a *Actor) Translation() Vec3 { return a.translation }

// SetScale scales the actor around its pivot point.
func (a *Actor) SetScale(sx, sy float64) {
	sx, sy = finiteOr(sx, 1), finiteOr(sy, 1)
	if a.scaleX == sx && a.scaleY == sy {
		return
	}
	a.scaleX, a.scaleY = sx, sy
	a.transformChanged()
	a.notify(PropScale)
}

// Scale returns the scale factors.
func (a *Actor) Scale() (sx, sy float64) { return a.scaleX, a.scaleY }

// SetRotation rotates the actor around the Z axis through its pivot, in radians.
func (a *Actor) SetRotation(r float64) {
	r = finiteOr(r, 0)
	if a.rotation == r {
		return
	}
	a.rotation = r
	a.transformChanged()
	a.notify(PropRotation)
}

// Rotation returns the Z rotation in radians.
func (a *Actor) Rotation() float64 { return a.rotation }

// SetPivotPoint sets the transform origin in normalized coordinates: (0, 0)
// is the top-left corner of the allocation, (1, 1) the bottom-right.
func (a *Actor) SetPivotPoint(px, py float64) {
	p := Vec2{finiteOr(px, 0), finiteOr(py, 0)}
	if a.pivot == p {
		return
	}
	a.pivot = p
	a.transformChanged()
	a.notify(PropPivotPoint)
}

// PivotPoint returns the normalized pivot.
func (a *Actor) PivotPoint() Vec2 { return a.pivot }

// SetZPosition overrides the paint order among siblings. Higher values
// paint later; equal values keep child-list order.
func (a *Actor) SetZPosition(z float64) {
	z = finiteOr(z, 0)
	if a.zPosition == z {
		return
	}
	a.zPosition = z
	if a.parent != nil {
		a.parent.childrenSorted = false
	}
	a.QueueRedraw()
	a.notify(PropZPosition)
}

// ZPosition returns the depth override.
func (a *Actor) ZPosition() float64 { return a.zPosition }

func (a *Actor) transformChanged() {
	a.worldValid = false
	a.QueueRedraw()
}

// --- Background and clip ---

// SetBackgroundColor paints a solid fill over the allocation below content
// and children.
func (a *Actor) SetBackgroundColor(c Color) {
	if a.backgroundSet && a.background == c {
		return
	}
	a.background = c
	a.backgroundSet = true
	a.QueueRedraw()
	a.notify(PropBackgroundColor)
}

// BackgroundColor returns the background color and whether it is set.
func (a *Actor) BackgroundColor() (Color, bool) { return a.background, a.backgroundSet }

// ClearBackgroundColor removes the background fill.
func (a *Actor) ClearBackgroundColor() {
	if !a.backgroundSet {
		return
	}
	a.backgroundSet = false
	a.background = Color{}
	a.QueueRedraw()
	a.notify(PropBackgroundColor)
}

// SetClip restricts painting of the actor and its children to box, in
// actor-local coordinates.
func (a *Actor) SetClip(box Box) {
	a.clip = box.Clamp()
	a.hasClip = true
	a.QueueRedraw()
	a.notify(PropClip)
}

// RemoveClip removes an explicit clip.
func (a *Actor) RemoveClip() {
	if !a.hasClip {
		return
	}
	a.hasClip = false
	a.QueueRedraw()
	a.notify(PropClip)
}

// SetClipToAllocation clips painting to the allocation box.
func (a *Actor) SetClipToAllocation(clip bool) {
	if a.clipToAllocation == clip {
		return
	}
	a.clipToAllocation = clip
	a.QueueRedraw()
	a.notify(PropClip)
}

// Clip returns the effective clip box in local coordinates and whether any
// clip applies.
func (a *Actor) Clip() (Box, bool) {
	switch {
	case a.hasClip:
		return a.clip, true
	case a.clipToAllocation:
		return Box{0, 0, a.allocation.Width(), a.allocation.Height()}, true
	}
	return Box{}, false
}

// SetOffscreenRedirect selects when the subtree is composited offscreen.
func (a *Actor) SetOffscreenRedirect(r OffscreenRedirect) {
	if a.offscreen == r {
		return
	}
	a.offscreen = r
	a.QueueRedraw()
	a.notify(PropOffscreenRedirect)
}

// OffscreenRedirect returns the redirect policy.
func (a *Actor) OffscreenRedirect() OffscreenRedirect { return a.offscreen }

// QueueRedraw asks the stage to produce a new frame.
func (a *Actor) QueueRedraw() {
	if a.stage != nil {
		a.stage.redrawPending = true
	}
}
