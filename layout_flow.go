package arbor

import "math"

// FlowLayout places children at their natural size in lines along the
// orientation, wrapping to a new line when the next child would not fit.
// A horizontal flow is height-for-width: the narrower the container, the
// more rows it needs.
type FlowLayout struct {
	LayoutBase
	orientation   Orientation
	columnSpacing float64
	rowSpacing    float64
}

// NewFlowLayout creates a flow layout. Horizontal fills rows left to right;
// Vertical fills columns top to bottom.
func NewFlowLayout(o Orientation) *FlowLayout {
	return &FlowLayout{orientation: o}
}

// SetColumnSpacing sets the horizontal gap between children.
func (l *FlowLayout) SetColumnSpacing(s float64) {
	s = sanitizeSize(s)
	if l.columnSpacing != s {
		l.columnSpacing = s
		l.LayoutChanged()
	}
}

// SetRowSpacing sets the vertical gap between children.
func (l *FlowLayout) SetRowSpacing(s float64) {
	s = sanitizeSize(s)
	if l.rowSpacing != s {
		l.rowSpacing = s
		l.LayoutChanged()
	}
}

func (l *FlowLayout) ColumnSpacing() float64 { return l.columnSpacing }
func (l *FlowLayout) RowSpacing() float64    { return l.rowSpacing }

func (l *FlowLayout) PreferredWidth(container *Actor, forHeight float64) (min, nat float64) {
	if l.orientation == Horizontal {
		return l.lineRequest(container, l.columnSpacing)
	}
	return l.wrapRequest(container, forHeight)
}

func (l *FlowLayout) PreferredHeight(container *Actor, forWidth float64) (min, nat float64) {
	if l.orientation == Vertical {
		return l.lineRequest(container, l.rowSpacing)
	}
	return l.wrapRequest(container, forWidth)
}

// lineRequest is the size along the flow direction: at minimum the widest
// child, naturally everything on one line.
func (l *FlowLayout) lineRequest(container *Actor, spacing float64) (min, nat float64) {
	n := 0
	for _, c := range visibleChildren(container) {
		_, nsz := l.childNatural(c)
		cmin := nsz.Width
		if l.orientation == Vertical {
			cmin = nsz.Height
		}
		min = math.Max(min, cmin)
		nat += cmin
		n++
	}
	if n > 1 {
		nat += spacing * float64(n-1)
	}
	return min, nat
}

// wrapRequest is the cross size needed when lines are limited to extent.
func (l *FlowLayout) wrapRequest(container *Actor, extent float64) (min, nat float64) {
	lines := l.lines(visibleChildren(container), extent)
	total := 0.0
	for i, ln := range lines {
		if i > 0 {
			total += l.lineGap()
		}
		total += ln.cross
	}
	return total, total
}

func (l *FlowLayout) Allocate(container *Actor, box Box, flags AllocationFlags) {
	extent := box.Width()
	if l.orientation == Vertical {
		extent = box.Height()
	}
	children := visibleChildren(container)
	cross := 0.0
	for _, ln := range l.lines(children, extent) {
		pos := 0.0
		for _, it := range ln.items {
			var b Box
			if l.orientation == Horizontal {
				b = BoxFromSize(box.X1+pos, box.Y1+cross, it.size.Width, it.size.Height)
				pos += it.size.Width + l.columnSpacing
			} else {
				b = BoxFromSize(box.X1+cross, box.Y1+pos, it.size.Width, it.size.Height)
				pos += it.size.Height + l.rowSpacing
			}
			it.actor.Allocate(b, flags)
		}
		cross += ln.cross + l.lineGap()
	}
}

type flowItem struct {
	actor *Actor
	size  Size
}

type flowLine struct {
	items []flowItem
	cross float64
}

func (l *FlowLayout) lineGap() float64 {
	if l.orientation == Horizontal {
		return l.rowSpacing
	}
	return l.columnSpacing
}

func (l *FlowLayout) childNatural(c *Actor) (Size, Size) {
	min, nat := c.GetPreferredSize()
	return min, nat
}

// lines breaks children into lines no longer than extent. A negative extent
// puts every child on one line. A child longer than extent gets a line of
// its own.
func (l *FlowLayout) lines(children []*Actor, extent float64) []flowLine {
	var out []flowLine
	var cur flowLine
	used := 0.0
	gap := l.columnSpacing
	if l.orientation == Vertical {
		gap = l.rowSpacing
	}
	for _, c := range children {
		_, nat := l.childNatural(c)
		length, cross := nat.Width, nat.Height
		if l.orientation == Vertical {
			length, cross = nat.Height, nat.Width
		}
		next := used + length
		if len(cur.items) > 0 {
			next += gap
		}
		if extent >= 0 && len(cur.items) > 0 && next > extent {
			out = append(out, cur)
			cur = flowLine{}
			next = length
		}
		cur.items = append(cur.items, flowItem{actor: c, size: nat})
		cur.cross = math.Max(cur.cross, cross)
		used = next
	}
	if len(cur.items) > 0 {
		out = append(out, cur)
	}
	return out
}
