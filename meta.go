package arbor

// Meta is the state shared by constraints, actions and effects: a name used
// for lookups and animation paths, an enabled flag and the actor it is
// attached to. A meta serves one actor at a time.
type Meta struct {
	name     string
	disabled bool
	actor    *Actor
}

// ActorMeta is implemented by every type that embeds Meta.
type ActorMeta interface {
	meta() *Meta
}

// MetaAttacher is implemented by metas that need to react when they are
// attached to or detached from an actor. Detached also runs when the actor
// is destroyed.
type MetaAttacher interface {
	Attached(a *Actor)
	Detached(a *Actor)
}

func (m *Meta) meta() *Meta { return m }

// Name returns the meta's name.
func (m *Meta) Name() string { return m.name }

// SetName renames the meta. Names should be unique per actor and kind.
func (m *Meta) SetName(name string) { m.name = name }

// Enabled reports whether the meta takes part in layout, input or paint.
func (m *Meta) Enabled() bool { return !m.disabled }

// SetEnabled toggles the meta. The owning actor is relaid out and redrawn.
func (m *Meta) SetEnabled(enabled bool) {
	if m.disabled == !enabled {
		return
	}
	m.disabled = !enabled
	if m.actor != nil {
		m.actor.QueueRelayout()
		m.actor.QueueRedraw()
	}
}

// Actor returns the actor the meta is attached to, or nil.
func (m *Meta) Actor() *Actor { return m.actor }

func (m *Meta) setActor(a *Actor) { m.actor = a }

func attachMeta(a *Actor, m ActorMeta, kind string) {
	mm := m.meta()
	if mm.actor != nil {
		panic("arbor: " + kind + " " + mm.name + " is already attached to " + mm.actor.String())
	}
	mm.setActor(a)
	if h, ok := m.(MetaAttacher); ok {
		h.Attached(a)
	}
}

func detachMeta(m ActorMeta) {
	mm := m.meta()
	a := mm.actor
	if a == nil {
		return
	}
	if h, ok := m.(MetaAttacher); ok {
		h.Detached(a)
	}
	mm.setActor(nil)
}

func removeMeta[T ActorMeta](list []T, m T) ([]T, bool) {
	for i, x := range list {
		if x.meta() == m.meta() {
			detachMeta(x)
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func findMeta[T ActorMeta](list []T, name string) (T, bool) {
	for _, x := range list {
		if x.meta().name == name {
			return x, true
		}
	}
	var zero T
	return zero, false
}

// --- Constraints ---

// AddConstraint appends c to the constraints run during Allocate. Panics if
// c is attached to another actor.
func (a *Actor) AddConstraint(c Constraint) {
	attachMeta(a, c, "constraint")
	a.constraints = append(a.constraints, c)
	a.QueueRelayout()
}

// AddConstraintWithName sets c's name and attaches it.
func (a *Actor) AddConstraintWithName(name string, c Constraint) {
	c.meta().name = name
	a.AddConstraint(c)
}

// RemoveConstraint detaches c. No-op if c is not attached to this actor.
func (a *Actor) RemoveConstraint(c Constraint) {
	var ok bool
	if a.constraints, ok = removeMeta(a.constraints, c); ok {
		a.QueueRelayout()
	}
}

// Constraint returns the constraint with the given name.
func (a *Actor) Constraint(name string) (Constraint, bool) { return findMeta(a.constraints, name) }

// Constraints returns a copy of the attached constraints in order.
func (a *Actor) Constraints() []Constraint { return append([]Constraint(nil), a.constraints...) }

// ClearConstraints detaches every constraint.
func (a *Actor) ClearConstraints() {
	for _, c := range a.constraints {
		detachMeta(c)
	}
	a.constraints = nil
	a.QueueRelayout()
}

// --- Actions ---

// AddAction attaches an input action. Actions see bubbling events before
// the actor's own handlers.
func (a *Actor) AddAction(ac Action) {
	attachMeta(a, ac, "action")
	a.actions = append(a.actions, ac)
}

// AddActionWithName sets ac's name and attaches it.
func (a *Actor) AddActionWithName(name string, ac Action) {
	ac.meta().name = name
	a.AddAction(ac)
}

// RemoveAction detaches ac.
func (a *Actor) RemoveAction(ac Action) {
	a.actions, _ = removeMeta(a.actions, ac)
}

// Action returns the action with the given name.
func (a *Actor) Action(name string) (Action, bool) { return findMeta(a.actions, name) }

// Actions returns a copy of the attached actions in order.
func (a *Actor) Actions() []Action { return append([]Action(nil), a.actions...) }

// ClearActions detaches every action.
func (a *Actor) ClearActions() {
	for _, ac := range a.actions {
		detachMeta(ac)
	}
	a.actions = nil
}

// --- Effects ---

// AddEffect appends e; effects wrap the actor's paint in attachment order,
// the first effect innermost.
func (a *Actor) AddEffect(e Effect) {
	attachMeta(a, e, "effect")
	a.effects = append(a.effects, e)
	a.QueueRedraw()
}

// AddEffectWithName sets e's name and attaches it.
func (a *Actor) AddEffectWithName(name string, e Effect) {
	e.meta().name = name
	a.AddEffect(e)
}

// RemoveEffect detaches e.
func (a *Actor) RemoveEffect(e Effect) {
	var ok bool
	if a.effects, ok = removeMeta(a.effects, e); ok {
		a.QueueRedraw()
	}
}

// Effect returns the effect with the given name.
func (a *Actor) Effect(name string) (Effect, bool) { return findMeta(a.effects, name) }

// Effects returns a copy of the attached effects in order.
func (a *Actor) Effects() []Effect { return append([]Effect(nil), a.effects...) }

// ClearEffects detaches every effect.
func (a *Actor) ClearEffects() {
	for _, e := range a.effects {
		detachMeta(e)
	}
	a.effects = nil
	a.QueueRedraw()
}
