package arbor

import "math"

// Constraint adjusts an actor's allocation after its parent assigned it and
// before its children are allocated. Constraints run in attachment order,
// each receiving the previous one's result.
type Constraint interface {
	ActorMeta
	UpdateAllocation(a *Actor, box Box) Box
}

// sourceWatch keeps a constraint's actor relaid out when its source actor
// is reallocated, and detaches the constraint when the source is destroyed.
type sourceWatch struct {
	source  *Actor
	alloc   Handle
	destroy Handle
	actor   *Actor
	self    Constraint
}

func (w *sourceWatch) setSource(self Constraint, source *Actor) {
	if source != nil && source == self.meta().actor {
		panic("arbor: a constraint's source cannot be the constrained actor")
	}
	w.unwatch()
	w.self = self
	w.source = source
	if a := self.meta().actor; a != nil {
		w.watch(a)
		a.QueueRelayout()
	}
}

func (w *sourceWatch) watch(a *Actor) {
	w.actor = a
	if w.source == nil {
		return
	}
	if w.source == a {
		panic("arbor: a constraint's source cannot be the constrained actor")
	}
	w.alloc = w.source.Observe(PropAllocation, func(PropertyChange) {
		if w.actor != nil {
			w.actor.QueueRelayout()
		}
	})
	w.destroy = w.source.OnDestroy(func(*Actor) {
		if w.actor != nil && w.self != nil {
			w.actor.RemoveConstraint(w.self)
		}
		w.source = nil
	})
}

func (w *sourceWatch) unwatch() {
	w.alloc.Remove()
	w.destroy.Remove()
	w.alloc, w.destroy = Handle{}, Handle{}
	w.actor = nil
}

// sourceBox returns the source's allocation expressed in the coordinate
// space of a's parent.
func sourceBox(a, source *Actor) Box {
	w, h := source.allocation.Width(), source.allocation.Height()
	if source == a.parent {
		return Box{0, 0, w, h}
	}
	var base Vec2
	if a.parent != nil {
		base = a.parent.absOrigin
	}
	return BoxFromSize(source.absOrigin.X-base.X, source.absOrigin.Y-base.Y, w, h)
}

// toFloat converts the numeric values produced by intervals.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

// --- AlignConstraint ---

// AlignAxis selects which axes an AlignConstraint controls.
type AlignAxis uint8

const (
	AlignXAxis AlignAxis = iota
	AlignYAxis
	AlignBoth
)

// AlignConstraint positions the actor inside the source's box: factor 0
// puts it at the start edge, 1 at the end edge, 0.5 centers it.
type AlignConstraint struct {
	Meta
	watch  sourceWatch
	axis   AlignAxis
	factor float64
}

// NewAlignConstraint creates an align constraint. source may be nil until
// SetSource is called.
func NewAlignConstraint(source *Actor, axis AlignAxis, factor float64) *AlignConstraint {
	c := &AlignConstraint{axis: axis, factor: factor}
	c.watch.source = source
	return c
}

func (c *AlignConstraint) Attached(a *Actor) { c.watch.self = c; c.watch.watch(a) }
func (c *AlignConstraint) Detached(*Actor)   { c.watch.unwatch() }

// SetSource changes the actor aligned against.
func (c *AlignConstraint) SetSource(source *Actor) { c.watch.setSource(c, source) }
func (c *AlignConstraint) Source() *Actor          { return c.watch.source }

// SetFactor changes the alignment factor.
func (c *AlignConstraint) SetFactor(f float64) {
	c.factor = finiteOr(f, 0)
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

func (c *AlignConstraint) Factor() float64 { return c.factor }

func (c *AlignConstraint) UpdateAllocation(a *Actor, box Box) Box {
	src := c.watch.source
	if src == nil {
		return box
	}
	sb := sourceBox(a, src)
	w, h := box.Width(), box.Height()
	if c.axis == AlignXAxis || c.axis == AlignBoth {
		box.X1 = sb.X1 + (sb.Width()-w)*c.factor
		box.X2 = box.X1 + w
	}
	if c.axis == AlignYAxis || c.axis == AlignBoth {
		box.Y1 = sb.Y1 + (sb.Height()-h)*c.factor
		box.Y2 = box.Y1 + h
	}
	return box
}

func (c *AlignConstraint) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "factor" || !ok {
		return false
	}
	c.SetFactor(f)
	return true
}

func (c *AlignConstraint) AnimatableProperty(name string) (any, bool) {
	if name == "factor" {
		return c.factor, true
	}
	return nil, false
}

// --- BindConstraint ---

// BindCoordinate selects what a BindConstraint copies from its source.
type BindCoordinate uint8

const (
	BindX BindCoordinate = iota
	BindY
	BindWidth
	BindHeight
	BindPosition
	BindSize
	BindAll
)

// BindConstraint copies a coordinate of the source's allocation, plus an
// offset, into the actor's allocation.
type BindConstraint struct {
	Meta
	watch      sourceWatch
	coordinate BindCoordinate
	offset     float64
}

// NewBindConstraint creates a bind constraint.
func NewBindConstraint(source *Actor, coord BindCoordinate, offset float64) *BindConstraint {
	c := &BindConstraint{coordinate: coord, offset: offset}
	c.watch.source = source
	return c
}

func (c *BindConstraint) Attached(a *Actor) { c.watch.self = c; c.watch.watch(a) }
func (c *BindConstraint) Detached(*Actor)   { c.watch.unwatch() }

func (c *BindConstraint) SetSource(source *Actor) { c.watch.setSource(c, source) }
func (c *BindConstraint) Source() *Actor          { return c.watch.source }

// SetOffset changes the offset added to the bound coordinate.
func (c *BindConstraint) SetOffset(off float64) {
	c.offset = finiteOr(off, 0)
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

func (c *BindConstraint) Offset() float64 { return c.offset }

func (c *BindConstraint) UpdateAllocation(a *Actor, box Box) Box {
	src := c.watch.source
	if src == nil {
		return box
	}
	sb := sourceBox(a, src)
	w, h := box.Width(), box.Height()
	bindX := func() { box.X1 = sb.X1 + c.offset; box.X2 = box.X1 + w }
	bindY := func() { box.Y1 = sb.Y1 + c.offset; box.Y2 = box.Y1 + h }
	bindW := func() { box.X2 = box.X1 + sb.Width() + c.offset }
	bindH := func() { box.Y2 = box.Y1 + sb.Height() + c.offset }
	switch c.coordinate {
	case BindX:
		bindX()
	case BindY:
		bindY()
	case BindWidth:
		bindW()
	case BindHeight:
		bindH()
	case BindPosition:
		bindX()
		bindY()
	case BindSize:
		bindW()
		bindH()
	case BindAll:
		bindX()
		bindY()
		bindW()
		bindH()
	}
	return box
}

func (c *BindConstraint) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "offset" || !ok {
		return false
	}
	c.SetOffset(f)
	return true
}

func (c *BindConstraint) AnimatableProperty(name string) (any, bool) {
	if name == "offset" {
		return c.offset, true
	}
	return nil, false
}

// --- SnapConstraint ---

// SnapEdge names an edge of an allocation box.
type SnapEdge uint8

const (
	EdgeLeft SnapEdge = iota
	EdgeTop
	EdgeRight
	EdgeBottom
)

// SnapConstraint lines up one edge of the actor with an edge of the source,
// plus an offset. By default the actor moves and keeps its size; with
// Stretch only the snapped edge moves, so two snaps on opposite edges size
// the actor.
type SnapConstraint struct {
	Meta
	watch    sourceWatch
	from, to SnapEdge
	offset   float64
	Stretch  bool
}

// NewSnapConstraint snaps the actor's from edge to the source's to edge.
func NewSnapConstraint(source *Actor, from, to SnapEdge, offset float64) *SnapConstraint {
	c := &SnapConstraint{from: from, to: to, offset: offset}
	c.watch.source = source
	return c
}

func (c *SnapConstraint) Attached(a *Actor) { c.watch.self = c; c.watch.watch(a) }
func (c *SnapConstraint) Detached(*Actor)   { c.watch.unwatch() }

func (c *SnapConstraint) SetSource(source *Actor) { c.watch.setSource(c, source) }
func (c *SnapConstraint) Source() *Actor          { return c.watch.source }

// SetEdges changes the snapped edges.
func (c *SnapConstraint) SetEdges(from, to SnapEdge) {
	c.from, c.to = from, to
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

func (c *SnapConstraint) Edges() (from, to SnapEdge) { return c.from, c.to }

// SetOffset changes the distance between the snapped edges.
func (c *SnapConstraint) SetOffset(off float64) {
	c.offset = finiteOr(off, 0)
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

func (c *SnapConstraint) Offset() float64 { return c.offset }

func (c *SnapConstraint) UpdateAllocation(a *Actor, box Box) Box {
	src := c.watch.source
	if src == nil {
		return box
	}
	sb := sourceBox(a, src)
	var target float64
	switch c.to {
	case EdgeLeft:
		target = sb.X1
	case EdgeRight:
		target = sb.X2
	case EdgeTop:
		target = sb.Y1
	case EdgeBottom:
		target = sb.Y2
	}
	target += c.offset

	horizontal := c.from == EdgeLeft || c.from == EdgeRight
	if horizontal != (c.to == EdgeLeft || c.to == EdgeRight) {
		// Mismatched axes have no meaning.
		return box
	}
	w, h := box.Width(), box.Height()
	switch c.from {
	case EdgeLeft:
		box.X1 = target
		if !c.Stretch {
			box.X2 = target + w
		}
	case EdgeRight:
		box.X2 = target
		if !c.Stretch {
			box.X1 = target - w
		}
	case EdgeTop:
		box.Y1 = target
		if !c.Stretch {
			box.Y2 = target + h
		}
	case EdgeBottom:
		box.Y2 = target
		if !c.Stretch {
			box.Y1 = target - h
		}
	}
	if box.X2 < box.X1 {
		box.X1, box.X2 = box.X2, box.X1
	}
	if box.Y2 < box.Y1 {
		box.Y1, box.Y2 = box.Y2, box.Y1
	}
	return box
}

func (c *SnapConstraint) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "offset" || !ok {
		return false
	}
	c.SetOffset(f)
	return true
}

func (c *SnapConstraint) AnimatableProperty(name string) (any, bool) {
	if name == "offset" {
		return c.offset, true
	}
	return nil, false
}

// --- PathConstraint ---

// PathConstraint places the actor's origin on a polyline. The offset is the
// fraction of the path's length travelled, clamped to [0, 1].
type PathConstraint struct {
	Meta
	points   []Vec2
	lengths  []float64 // cumulative length at each point
	offset   float64
	lastNode int

	// NodeReached fires with the index of each path point passed while the
	// offset moves.
	NodeReached Signal[int]
}

// NewPathConstraint creates a constraint following points at offset.
func NewPathConstraint(points []Vec2, offset float64) *PathConstraint {
	c := &PathConstraint{lastNode: -1}
	c.SetPath(points)
	c.offset = offset
	return c
}

// SetPath replaces the polyline.
func (c *PathConstraint) SetPath(points []Vec2) {
	c.points = append(c.points[:0], points...)
	c.lengths = make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		c.lengths[i] = c.lengths[i-1] + math.Hypot(dx, dy)
	}
	c.lastNode = -1
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

// Length returns the total path length.
func (c *PathConstraint) Length() float64 {
	if len(c.lengths) == 0 {
		return 0
	}
	return c.lengths[len(c.lengths)-1]
}

// SetOffset moves the actor along the path.
func (c *PathConstraint) SetOffset(off float64) {
	c.offset = finiteOr(off, 0)
	if c.actor != nil {
		c.actor.QueueRelayout()
	}
}

func (c *PathConstraint) Offset() float64 { return c.offset }

// PointAt returns the position at fraction t of the path and the index of
// the last path point at or before it.
func (c *PathConstraint) PointAt(t float64) (Vec2, int) {
	switch len(c.points) {
	case 0:
		return Vec2{}, -1
	case 1:
		return c.points[0], 0
	}
	t = math.Max(0, math.Min(1, t))
	total := c.Length()
	if total == 0 {
		return c.points[0], 0
	}
	d := t * total
	for i := 1; i < len(c.points); i++ {
		if d <= c.lengths[i] {
			seg := c.lengths[i] - c.lengths[i-1]
			f := 0.0
			if seg > 0 {
				f = (d - c.lengths[i-1]) / seg
			}
			p0, p1 := c.points[i-1], c.points[i]
			node := i - 1
			if f >= 1 {
				node = i
			}
			return Vec2{p0.X + (p1.X-p0.X)*f, p0.Y + (p1.Y-p0.Y)*f}, node
		}
	}
	return c.points[len(c.points)-1], len(c.points) - 1
}

func (c *PathConstraint) UpdateAllocation(a *Actor, box Box) Box {
	if len(c.points) == 0 {
		return box
	}
	p, node := c.PointAt(c.offset)
	if node != c.lastNode {
		c.lastNode = node
		c.NodeReached.Emit(node)
	}
	return BoxFromSize(p.X, p.Y, box.Width(), box.Height())
}

func (c *PathConstraint) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "offset" || !ok {
		return false
	}
	c.SetOffset(f)
	return true
}

func (c *PathConstraint) AnimatableProperty(name string) (any, bool) {
	if name == "offset" {
		return c.offset, true
	}
	return nil, false
}
