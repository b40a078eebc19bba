package arbor

import "math"

// LayoutState is an actor's position in the per-cycle layout state machine.
type LayoutState uint8

const (
	LayoutDirty      LayoutState = iota // a size-affecting input changed
	LayoutQuerying                      // a preferred-size request is being computed
	LayoutAllocating                    // the actor is placing itself and its children
	LayoutClean                         // allocation is up to date
)

func (s LayoutState) String() string {
	switch s {
	case LayoutDirty:
		return "dirty"
	case LayoutQuerying:
		return "querying"
	case LayoutAllocating:
		return "allocating"
	case LayoutClean:
		return "clean"
	default:
		return "unknown"
	}
}

// DefaultMaxRelayoutPasses bounds how many allocation passes a single frame
// may run while relayout requests keep arriving from inside a pass.
const DefaultMaxRelayoutPasses = 8

// layoutPassDepth is non-zero while an allocation pass is running.
var layoutPassDepth int

// sizeCacheSlots is the number of for-size values remembered per axis.
const sizeCacheSlots = 3

type sizeRequest struct {
	forSize float64
	min     float64
	nat     float64
	age     uint32
	valid   bool
}

// sizeCache memoizes preferred-size results keyed by the cross-axis size.
// The least recently stored slot is replaced when all are in use.
type sizeCache struct {
	slots [sizeCacheSlots]sizeRequest
	age   uint32
}

func (c *sizeCache) lookup(forSize float64) (min, nat float64, ok bool) {
	for i := range c.slots {
		s := &c.slots[i]
		if s.valid && s.forSize == forSize {
			return s.min, s.nat, true
		}
	}
	return 0, 0, false
}

func (c *sizeCache) store(forSize, min, nat float64) {
	c.age++
	victim := 0
	for i := range c.slots {
		if !c.slots[i].valid {
			victim = i
			break
		}
		if c.slots[i].age < c.slots[victim].age {
			victim = i
		}
	}
	c.slots[victim] = sizeRequest{forSize: forSize, min: min, nat: nat, age: c.age, valid: true}
}

func (c *sizeCache) invalidate() {
	for i := range c.slots {
		c.slots[i].valid = false
	}
}

// normalizeForSize maps NaN and negative cross-axis sizes to -1, meaning
// "unconstrained".
func normalizeForSize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return -1
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat32
	}
	return v
}

// clampRequest sanitizes a (min, nat) pair: both finite and non-negative,
// with the natural size raised to at least the minimum.
func clampRequest(min, nat float64) (float64, float64) {
	min = sanitizeSize(min)
	nat = sanitizeSize(nat)
	if nat < min {
		nat = min
	}
	return min, nat
}

// --- Preferred size ---

// GetPreferredWidth returns the minimum and natural width, margins included.
// A negative or NaN forHeight means the height is unconstrained.
func (a *Actor) GetPreferredWidth(forHeight float64) (min, nat float64) {
	forHeight = normalizeForSize(forHeight)

	if a.widthSet {
		nat = a.fixedSize.Width
		min = nat
		if a.minWidthSet {
			min = a.minSize.Width
		}
		return clampRequest(min+a.margin.Horizontal(), nat+a.margin.Horizontal())
	}

	if !a.needsWidth {
		if m, n, ok := a.widthCache.lookup(forHeight); ok {
			return m, n
		}
	}

	prev := a.layoutState
	a.layoutState = LayoutQuerying
	inner := forHeight
	if inner >= 0 {
		inner = math.Max(0, inner-a.margin.Vertical())
	}
	min, nat = a.computePreferredWidth(inner)
	a.layoutState = prev

	if a.minWidthSet {
		min = a.minSize.Width
	}
	min, nat = clampRequest(min+a.margin.Horizontal(), nat+a.margin.Horizontal())
	if a.needsWidth {
		a.widthCache.invalidate()
		a.needsWidth = false
	}
	a.widthCache.store(forHeight, min, nat)
	return min, nat
}

// GetPreferredHeight returns the minimum and natural height, margins
// included. A negative or NaN forWidth means the width is unconstrained.
func (a *Actor) GetPreferredHeight(forWidth float64) (min, nat float64) {
	forWidth = normalizeForSize(forWidth)

	if a.heightSet {
		nat = a.fixedSize.Height
		min = nat
		if a.minHeightSet {
			min = a.minSize.Height
		}
		return clampRequest(min+a.margin.Vertical(), nat+a.margin.Vertical())
	}

	if !a.needsHeight {
		if m, n, ok := a.heightCache.lookup(forWidth); ok {
			return m, n
		}
	}

	prev := a.layoutState
	a.layoutState = LayoutQuerying
	inner := forWidth
	if inner >= 0 {
		inner = math.Max(0, inner-a.margin.Horizontal())
	}
	min, nat = a.computePreferredHeight(inner)
	a.layoutState = prev

	if a.minHeightSet {
		min = a.minSize.Height
	}
	min, nat = clampRequest(min+a.margin.Vertical(), nat+a.margin.Vertical())
	if a.needsHeight {
		a.heightCache.invalidate()
		a.needsHeight = false
	}
	a.heightCache.store(forWidth, min, nat)
	return min, nat
}

// GetPreferredSize negotiates both axes in the actor's request mode and
// returns the minimum and natural sizes.
func (a *Actor) GetPreferredSize() (min, nat Size) {
	switch a.requestMode {
	case RequestWidthForHeight:
		min.Height, nat.Height = a.GetPreferredHeight(-1)
		min.Width, nat.Width = a.GetPreferredWidth(nat.Height)
	case RequestContentSize:
		min.Width, nat.Width = a.GetPreferredWidth(-1)
		min.Height, nat.Height = a.GetPreferredHeight(-1)
	default:
		min.Width, nat.Width = a.GetPreferredWidth(-1)
		min.Height, nat.Height = a.GetPreferredHeight(nat.Width)
	}
	return min, nat
}

// computePreferredWidth asks the content or the layout for a width without
// margins.
func (a *Actor) computePreferredWidth(forHeight float64) (min, nat float64) {
	if cw, ch, ok := a.contentPreferredSize(); ok && (a.requestMode == RequestContentSize || a.nChildren == 0) {
		if a.requestMode == RequestWidthForHeight && forHeight >= 0 && a.gravity == GravityResizeAspect && ch > 0 {
			w := forHeight * cw / ch
			return w, w
		}
		return 0, cw
	}
	if a.layout != nil {
		return a.layout.PreferredWidth(a, forHeight)
	}
	return fixedPreferredWidth(a)
}

func (a *Actor) computePreferredHeight(forWidth float64) (min, nat float64) {
	if cw, ch, ok := a.contentPreferredSize(); ok && (a.requestMode == RequestContentSize || a.nChildren == 0) {
		if a.requestMode == RequestHeightForWidth && forWidth >= 0 && a.gravity == GravityResizeAspect && cw > 0 {
			h := forWidth * ch / cw
			return h, h
		}
		return 0, ch
	}
	if a.layout != nil {
		return a.layout.PreferredHeight(a, forWidth)
	}
	return fixedPreferredHeight(a)
}

// --- Invalidation ---

// QueueRelayout marks the actor and every ancestor as needing a new size
// request and allocation, and asks the stage for a layout pass.
func (a *Actor) QueueRelayout() {
	if a.inDestruction || a.destroyed {
		return
	}
	for p := a; p != nil; p = p.parent {
		p.needsWidth = true
		p.needsHeight = true
		p.needsAllocation = true
		p.layoutState = LayoutDirty
	}
	if a.stage != nil {
		a.stage.relayoutPending = true
		a.stage.redrawPending = true
	}
}

// NeedsRelayout reports whether the actor's allocation is out of date.
func (a *Actor) NeedsRelayout() bool { return a.needsAllocation }

// LayoutState returns the actor's layout state.
func (a *Actor) LayoutState() LayoutState { return a.layoutState }

// invalidateSubtreeAllocation forgets cached sizes for a subtree that moved
// into a new parent.
func (a *Actor) invalidateSubtreeAllocation() {
	a.needsWidth = true
	a.needsHeight = true
	a.needsAllocation = true
	a.worldValid = false
	a.layoutState = LayoutDirty
	for c := a.firstChild; c != nil; c = c.nextSibling {
		c.invalidateSubtreeAllocation()
	}
}

// --- Allocation ---

// Allocation returns the box assigned in the last allocation pass, in the
// parent's coordinate space.
func (a *Actor) Allocation() Box { return a.allocation }

// HasAllocation reports whether the actor has been allocated at least once.
func (a *Actor) HasAllocation() bool { return a.hasAllocation }

// AllocationFlags returns the flags of the last allocation.
func (a *Actor) AllocationFlags() AllocationFlags { return a.allocFlags }

// AbsoluteOrigin returns the allocation origin in root coordinates, ignoring
// transforms.
func (a *Actor) AbsoluteOrigin() Vec2 { return a.absOrigin }

// Allocate assigns box (in the parent's coordinate space) to the actor. The
// box is first reduced by the margin and adjusted for alignment, then
// passed through each enabled constraint in attachment order, and finally
// the children are allocated by the layout manager or, without one, at
// their fixed positions with their natural sizes.
//
// Allocate may only be called inside a layout pass, which the stage runs
// each frame or LayoutTree runs on demand. Calling it elsewhere panics.
func (a *Actor) Allocate(box Box, flags AllocationFlags) {
	if layoutPassDepth == 0 {
		panic("arbor: Allocate called outside a layout pass")
	}
	if a.destroyed {
		return
	}
	box = box.Clamp()
	if flags&DelegateLayout == 0 {
		box = a.adjustAllocation(box)
	}
	for _, c := range a.constraints {
		if !c.meta().disabled {
			box = c.UpdateAllocation(a, box)
		}
	}
	box = box.Clamp()

	abs := Vec2{box.X1, box.Y1}
	if p := a.parent; p != nil {
		abs.X += p.absOrigin.X
		abs.Y += p.absOrigin.Y
	}
	if a.hasAllocation && abs != a.absOrigin {
		flags |= AbsoluteOriginChanged
	}

	changed := !a.hasAllocation || box != a.allocation
	if !changed && !a.needsAllocation && flags&AbsoluteOriginChanged == 0 {
		a.layoutState = LayoutClean
		return
	}

	a.layoutState = LayoutAllocating
	a.allocation = box
	a.hasAllocation = true
	a.absOrigin = abs
	a.allocFlags = flags
	a.worldValid = false
	// Cleared before the children run so that relayout requests issued
	// during this pass survive it.
	a.needsAllocation = false

	childFlags := flags &^ DelegateLayout
	if a.layout != nil {
		a.layout.Allocate(a, Box{0, 0, box.Width(), box.Height()}, childFlags)
	} else {
		allocateFixed(a, childFlags)
	}

	if a.layoutState == LayoutAllocating {
		a.layoutState = LayoutClean
	}
	if changed {
		a.notify(PropAllocation)
	}
	a.QueueRedraw()
}

// adjustAllocation removes the margin and shrinks non-fill axes to the
// preferred size, positioned according to the alignment.
func (a *Actor) adjustAllocation(box Box) Box {
	box = Box{
		X1: box.X1 + a.margin.Left,
		Y1: box.Y1 + a.margin.Top,
		X2: box.X2 - a.margin.Right,
		Y2: box.Y2 - a.margin.Bottom,
	}.Clamp()
	if a.xAlign == AlignFill && a.yAlign == AlignFill {
		return box
	}
	availW, availH := box.Width(), box.Height()
	mh, mv := a.margin.Horizontal(), a.margin.Vertical()
	w, h := availW, availH

	switch a.requestMode {
	case RequestWidthForHeight:
		if a.yAlign != AlignFill {
			_, nat := a.GetPreferredHeight(-1)
			h = math.Min(math.Max(0, nat-mv), availH)
		}
		if a.xAlign != AlignFill {
			_, nat := a.GetPreferredWidth(h + mv)
			w = math.Min(math.Max(0, nat-mh), availW)
		}
	case RequestContentSize:
		if a.xAlign != AlignFill {
			_, nat := a.GetPreferredWidth(-1)
			w = math.Min(math.Max(0, nat-mh), availW)
		}
		if a.yAlign != AlignFill {
			_, nat := a.GetPreferredHeight(-1)
			h = math.Min(math.Max(0, nat-mv), availH)
		}
	default:
		if a.xAlign != AlignFill {
			_, nat := a.GetPreferredWidth(-1)
			w = math.Min(math.Max(0, nat-mh), availW)
		}
		if a.yAlign != AlignFill {
			_, nat := a.GetPreferredHeight(w + mh)
			h = math.Min(math.Max(0, nat-mv), availH)
		}
	}

	x := alignOffset(a.xAlign, box.X1, availW, w)
	y := alignOffset(a.yAlign, box.Y1, availH, h)
	return BoxFromSize(x, y, w, h)
}

func alignOffset(al Align, start, avail, size float64) float64 {
	switch al {
	case AlignCenter:
		return start + (avail-size)/2
	case AlignEnd:
		return start + avail - size
	default:
		return start
	}
}

// LayoutTree runs a layout pass on root with the given box, repeating while
// the pass itself queues new relayouts (bounded by DefaultMaxRelayoutPasses).
// It is how trees that are not attached to a stage get allocated.
func LayoutTree(root *Actor, box Box) {
	layoutPassDepth++
	defer func() { layoutPassDepth-- }()
	root.needsAllocation = true
	for i := 0; i < DefaultMaxRelayoutPasses; i++ {
		root.Allocate(box, 0)
		if !root.needsAllocation {
			return
		}
	}
}

// --- Built-in fixed placement ---

// fixedPreferredWidth sizes a container to the right-most edge of its
// visible children at their fixed positions.
func fixedPreferredWidth(a *Actor) (min, nat float64) {
	for c := a.firstChild; c != nil; c = c.nextSibling {
		if !c.visible {
			continue
		}
		x := 0.0
		if c.fixedPosSet {
			x = c.fixedPos.X
		}
		cmin, cnat := c.GetPreferredWidth(-1)
		min = math.Max(min, x+cmin)
		nat = math.Max(nat, x+cnat)
	}
	return min, nat
}

func fixedPreferredHeight(a *Actor) (min, nat float64) {
	for c := a.firstChild; c != nil; c = c.nextSibling {
		if !c.visible {
			continue
		}
		y := 0.0
		if c.fixedPosSet {
			y = c.fixedPos.Y
		}
		cmin, cnat := c.GetPreferredHeight(-1)
		min = math.Max(min, y+cmin)
		nat = math.Max(nat, y+cnat)
	}
	return min, nat
}

// allocateFixed places every child at its fixed position with its natural
// size. Hidden children are allocated too so that showing them later does
// not require a fresh size from an invisible state.
func allocateFixed(a *Actor, flags AllocationFlags) {
	for c := a.firstChild; c != nil; c = c.nextSibling {
		_, nat := c.GetPreferredSize()
		x, y := 0.0, 0.0
		if c.fixedPosSet {
			x, y = c.fixedPos.X, c.fixedPos.Y
		}
		c.Allocate(BoxFromSize(x, y, nat.Width, nat.Height), flags)
	}
}
