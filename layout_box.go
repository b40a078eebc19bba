package arbor

import (
	"math"
	"sort"
)

// BoxLayout arranges visible children in a single row or column.
//
// Along the main axis every child first gets its minimum size; remaining
// space brings children toward their natural size, smallest shortfall
// first, and what is left after that is split equally between children
// that need to expand. When the box is smaller than the sum of minimum
// sizes, children keep their minimum and overflow the end of the container.
// Along the cross axis each child is offered the full box and aligns itself.
type BoxLayout struct {
	LayoutBase
	orientation Orientation
	spacing     float64
	homogeneous bool
}

// NewBoxLayout creates a box layout along the given orientation.
func NewBoxLayout(o Orientation) *BoxLayout {
	return &BoxLayout{orientation: o}
}

// SetOrientation switches between a row and a column.
func (l *BoxLayout) SetOrientation(o Orientation) {
	if l.orientation != o {
		l.orientation = o
		l.LayoutChanged()
	}
}

func (l *BoxLayout) Orientation() Orientation { return l.orientation }

// SetSpacing sets the gap between adjacent children.
func (l *BoxLayout) SetSpacing(s float64) {
	s = sanitizeSize(s)
	if l.spacing != s {
		l.spacing = s
		l.LayoutChanged()
	}
}

func (l *BoxLayout) Spacing() float64 { return l.spacing }

// SetHomogeneous gives every child the same main-axis size.
func (l *BoxLayout) SetHomogeneous(h bool) {
	if l.homogeneous != h {
		l.homogeneous = h
		l.LayoutChanged()
	}
}

func (l *BoxLayout) Homogeneous() bool { return l.homogeneous }

func (l *BoxLayout) PreferredWidth(container *Actor, forHeight float64) (min, nat float64) {
	children := visibleChildren(container)
	if l.orientation == Horizontal {
		return l.mainRequest(children, forHeight)
	}
	return l.crossRequest(children, forHeight)
}

func (l *BoxLayout) PreferredHeight(container *Actor, forWidth float64) (min, nat float64) {
	children := visibleChildren(container)
	if l.orientation == Vertical {
		return l.mainRequest(children, forWidth)
	}
	return l.crossRequest(children, forWidth)
}

func (l *BoxLayout) Allocate(container *Actor, box Box, flags AllocationFlags) {
	children := visibleChildren(container)
	if len(children) == 0 {
		return
	}
	mainSize, crossSize := box.Width(), box.Height()
	if l.orientation == Vertical {
		mainSize, crossSize = crossSize, mainSize
	}
	sizes := l.distribute(children, mainSize, crossSize)

	pos := 0.0
	for i, c := range children {
		var child Box
		if l.orientation == Horizontal {
			child = Box{X1: box.X1 + pos, Y1: box.Y1, X2: box.X1 + pos + sizes[i], Y2: box.Y2}
		} else {
			child = Box{X1: box.X1, Y1: box.Y1 + pos, X2: box.X2, Y2: box.Y1 + pos + sizes[i]}
		}
		c.Allocate(child, flags)
		pos += sizes[i] + l.spacing
	}
}

// mainRequest sums the children along the main axis.
func (l *BoxLayout) mainRequest(children []*Actor, forCross float64) (min, nat float64) {
	if len(children) == 0 {
		return 0, 0
	}
	var maxMin, maxNat float64
	for _, c := range children {
		cmin, cnat := l.childMain(c, forCross)
		min += cmin
		nat += cnat
		maxMin = math.Max(maxMin, cmin)
		maxNat = math.Max(maxNat, cnat)
	}
	if l.homogeneous {
		n := float64(len(children))
		min, nat = maxMin*n, maxNat*n
	}
	gaps := l.spacing * float64(len(children)-1)
	return min + gaps, nat + gaps
}

// crossRequest takes the largest child along the cross axis, each child
// measured for the main-axis size it would get from forMain.
func (l *BoxLayout) crossRequest(children []*Actor, forMain float64) (min, nat float64) {
	var sizes []float64
	if forMain >= 0 && len(children) > 0 {
		sizes = l.distribute(children, forMain, -1)
	}
	for i, c := range children {
		fm := -1.0
		if sizes != nil {
			fm = sizes[i]
		}
		cmin, cnat := l.childCross(c, fm)
		min = math.Max(min, cmin)
		nat = math.Max(nat, cnat)
	}
	return min, nat
}

func (l *BoxLayout) childMain(c *Actor, forCross float64) (min, nat float64) {
	if l.orientation == Horizontal {
		return c.GetPreferredWidth(forCross)
	}
	return c.GetPreferredHeight(forCross)
}

func (l *BoxLayout) childCross(c *Actor, forMain float64) (min, nat float64) {
	if l.orientation == Horizontal {
		return c.GetPreferredHeight(forMain)
	}
	return c.GetPreferredWidth(forMain)
}

// distribute computes each child's main-axis size for the available space.
func (l *BoxLayout) distribute(children []*Actor, avail, forCross float64) []float64 {
	n := len(children)
	sizes := make([]float64, n)
	avail -= l.spacing * float64(n-1)

	if l.homogeneous {
		each := math.Max(0, avail) / float64(n)
		for i := range sizes {
			sizes[i] = each
		}
		return sizes
	}

	gaps := make([]float64, n)
	extra := avail
	nExpand := 0
	for i, c := range children {
		cmin, cnat := l.childMain(c, forCross)
		sizes[i] = cmin
		gaps[i] = cnat - cmin
		extra -= cmin
		if c.NeedsExpand(l.orientation) {
			nExpand++
		}
	}
	if extra <= 0 {
		return sizes
	}
	extra = distributeNatural(sizes, gaps, extra)
	if extra > 0 && nExpand > 0 {
		share := extra / float64(nExpand)
		for i, c := range children {
			if c.NeedsExpand(l.orientation) {
				sizes[i] += share
			}
		}
	}
	return sizes
}

// distributeNatural grows sizes toward their natural size, serving the
// smallest gaps first and splitting evenly among the rest. It returns the
// space left once every child reached its natural size.
func distributeNatural(sizes, gaps []float64, extra float64) float64 {
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return gaps[order[i]] < gaps[order[j]] })
	for k, idx := range order {
		if extra <= 0 {
			break
		}
		share := extra / float64(len(order)-k)
		give := math.Min(gaps[idx], share)
		sizes[idx] += give
		extra -= give
	}
	return math.Max(0, extra)
}

func visibleChildren(a *Actor) []*Actor {
	out := make([]*Actor, 0, a.nChildren)
	for c := a.firstChild; c != nil; c = c.nextSibling {
		if c.visible {
			out = append(out, c)
		}
	}
	return out
}
