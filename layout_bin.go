package arbor

import "math"

// BinLayout stacks every child over the whole container box. Each child
// positions itself inside that box through its own alignment, so a
// center-aligned child ends up centered.
type BinLayout struct {
	LayoutBase
}

// NewBinLayout creates a bin layout manager.
func NewBinLayout() *BinLayout { return &BinLayout{} }

func (l *BinLayout) PreferredWidth(container *Actor, forHeight float64) (min, nat float64) {
	for c := container.firstChild; c != nil; c = c.nextSibling {
		if !c.visible {
			continue
		}
		cmin, cnat := c.GetPreferredWidth(forHeight)
		min = math.Max(min, cmin)
		nat = math.Max(nat, cnat)
	}
	return min, nat
}

func (l *BinLayout) PreferredHeight(container *Actor, forWidth float64) (min, nat float64) {
	for c := container.firstChild; c != nil; c = c.nextSibling {
		if !c.visible {
			continue
		}
		cmin, cnat := c.GetPreferredHeight(forWidth)
		min = math.Max(min, cmin)
		nat = math.Max(nat, cnat)
	}
	return min, nat
}

func (l *BinLayout) Allocate(container *Actor, box Box, flags AllocationFlags) {
	for c := container.firstChild; c != nil; c = c.nextSibling {
		c.Allocate(box, flags)
	}
}
