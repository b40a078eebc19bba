package arbor

// FixedLayout places children at their fixed positions with their natural
// sizes. It is what an actor without a layout manager does; attaching one
// explicitly is useful to replace another manager.
type FixedLayout struct {
	LayoutBase
}

// NewFixedLayout creates a fixed layout manager.
func NewFixedLayout() *FixedLayout { return &FixedLayout{} }

func (l *FixedLayout) PreferredWidth(container *Actor, _ float64) (min, nat float64) {
	return fixedPreferredWidth(container)
}

func (l *FixedLayout) PreferredHeight(container *Actor, _ float64) (min, nat float64) {
	return fixedPreferredHeight(container)
}

func (l *FixedLayout) Allocate(container *Actor, _ Box, flags AllocationFlags) {
	allocateFixed(container, flags)
}
