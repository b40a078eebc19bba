package arbor

// LayoutManager sizes and places the children of the actor it is attached
// to. Implementations embed LayoutBase, which records the owning actor: a
// manager serves exactly one actor at a time.
//
// The boxes a manager receives and hands to children are in the
// container's local coordinate space, with (0, 0) at its top-left corner.
type LayoutManager interface {
	// PreferredWidth returns the container's width request for the given
	// height (negative means unconstrained), without the container's margin.
	PreferredWidth(container *Actor, forHeight float64) (min, nat float64)
	// PreferredHeight returns the height request for the given width.
	PreferredHeight(container *Actor, forWidth float64) (min, nat float64)
	// Allocate calls Allocate on every child of container.
	Allocate(container *Actor, box Box, flags AllocationFlags)

	base() *LayoutBase
}

// LayoutBase carries the bookkeeping shared by every layout manager.
type LayoutBase struct {
	owner *Actor
}

func (b *LayoutBase) base() *LayoutBase { return b }

// Container returns the actor the manager is attached to, or nil.
func (b *LayoutBase) Container() *Actor { return b.owner }

// LayoutChanged queues a relayout of the container. Managers call it when
// one of their own properties changes.
func (b *LayoutBase) LayoutChanged() {
	if b.owner != nil {
		b.owner.QueueRelayout()
	}
}

func (b *LayoutBase) bind(a *Actor) { b.owner = a }
func (b *LayoutBase) unbind()       { b.owner = nil }

// SetLayoutManager attaches lm to the actor, replacing any previous manager.
// nil restores the built-in fixed placement. Panics if lm already serves a
// different actor.
func (a *Actor) SetLayoutManager(lm LayoutManager) {
	if lm != nil {
		if owner := lm.base().owner; owner != nil && owner != a {
			panic("arbor: layout manager is already attached to " + owner.String())
		}
	}
	if a.layout == lm {
		return
	}
	if a.layout != nil {
		a.layout.base().unbind()
	}
	a.layout = lm
	if lm != nil {
		lm.base().bind(a)
	}
	a.QueueRelayout()
	a.notify(PropLayoutManager)
}

// LayoutManager returns the attached manager, or nil.
func (a *Actor) LayoutManager() LayoutManager { return a.layout }
