package arbor

import (
	"fmt"
	"iter"
)

// actorIDCounter is not atomic: actors belong to the UI goroutine.
var actorIDCounter uint32

func nextActorID() uint32 {
	actorIDCounter++
	return actorIDCounter
}

// HitShape is used for custom hit testing regions, in actor-local
// coordinates. Without one an actor is hit inside its allocation box.
type HitShape interface {
	Contains(x, y float64) bool
}

// Actor is the scene-graph node. It combines geometry requests, an optional
// layout manager, optional content, constraints, actions, effects and an
// ordered list of children. Children are owned exclusively by their parent;
// the parent and stage pointers are lookups only.
type Actor struct {
	// Identity
	ID       uint32
	Name     string
	UserData any
	EntityID uint32

	// Hierarchy (doubly linked child list)
	parent      *Actor
	firstChild  *Actor
	lastChild   *Actor
	prevSibling *Actor
	nextSibling *Actor
	nChildren   int
	stage       *Stage
	topLevel    bool

	// Geometry requests
	fixedPos     Vec2
	fixedPosSet  bool
	fixedSize    Size
	widthSet     bool
	heightSet    bool
	minSize      Size
	minWidthSet  bool
	minHeightSet bool
	margin       Margin
	xAlign       Align
	yAlign       Align
	xExpand      bool
	yExpand      bool
	xExpandSet   bool
	yExpandSet   bool
	requestMode  RequestMode

	// Layout state
	widthCache      sizeCache
	heightCache     sizeCache
	needsWidth      bool
	needsHeight     bool
	needsAllocation bool
	allocation      Box
	allocFlags      AllocationFlags
	hasAllocation   bool
	absOrigin       Vec2
	layoutState     LayoutState

	// Transform (applied around the pivot, after the allocation origin)
	translation    Vec3
	scaleX         float64
	scaleY         float64
	rotation       float64
	pivot          Vec2
	zPosition      float64
	worldTransform Matrix
	worldValid     bool

	// Visibility & interaction
	visible          bool
	opacity          float64
	reactive         bool
	background       Color
	backgroundSet    bool
	clip             Box
	hasClip          bool
	clipToAllocation bool
	offscreen        OffscreenRedirect
	hitShape         HitShape

	// Content
	content       *ContentRef
	gravity       ContentGravity
	contentFilter ScalingFilter

	// Plug-ins
	layout      LayoutManager
	constraints []Constraint
	actions     []Action
	effects     []Effect

	transitions map[string]*Transition

	// Notifications and event handlers
	observers       map[Property]*Signal[PropertyChange]
	destroySignal   Signal[*Actor]
	captureHandlers handlerList[EventHandler]
	eventHandlers   handlerList[EventHandler]

	// Internal
	refs           int
	destroyed      bool
	inDestruction  bool
	childrenSorted bool
	sortedChildren []*Actor // reused buffer for z-position sorted paint order
}

// NewActor creates a detached actor with default state: visible, fully
// opaque, not reactive, fill-aligned, no layout manager.
func NewActor(name string) *Actor {
	a := &Actor{}
	initActor(a, name)
	return a
}

func initActor(a *Actor, name string) {
	a.ID = nextActorID()
	a.Name = name
	a.scaleX = 1
	a.scaleY = 1
	a.opacity = 1
	a.visible = true
	a.needsWidth = true
	a.needsHeight = true
	a.needsAllocation = true
	a.childrenSorted = true
	a.worldTransform = identityTransform
}

// String returns the actor's name and ID, for diagnostics.
func (a *Actor) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q#%d", a.Name, a.ID)
}

// --- Tree manipulation ---

// AddChild appends child on top of this actor's children. Ownership moves to
// this actor. Panics if child is nil, already has a parent, is a stage, is
// destroyed, or is an ancestor of this actor.
func (a *Actor) AddChild(child *Actor) {
	a.checkInsert(child, "AddChild")
	a.link(child, a.lastChild)
	a.childAttached(child)
}

// InsertChildAt inserts child so that it ends up at the given index of the
// child list. Panics if index is outside [0, NumChildren()].
func (a *Actor) InsertChildAt(child *Actor, index int) {
	a.checkInsert(child, "InsertChildAt")
	if index < 0 || index > a.nChildren {
		panic("arbor: child index out of range")
	}
	var prev *Actor
	if index > 0 {
		prev = a.ChildAt(index - 1)
	}
	a.link(child, prev)
	a.childAttached(child)
}

// InsertChildAbove inserts child right after sibling in the child list (so it
// paints above it). A nil sibling puts child on top.
func (a *Actor) InsertChildAbove(child, sibling *Actor) {
	a.checkInsert(child, "InsertChildAbove")
	if sibling == nil {
		sibling = a.lastChild
	} else if sibling.parent != a {
		panic("arbor: sibling's parent is not this actor")
	}
	a.link(child, sibling)
	a.childAttached(child)
}

// InsertChildBelow inserts child right before sibling in the child list. A
// nil sibling puts child at the bottom.
func (a *Actor) InsertChildBelow(child, sibling *Actor) {
	a.checkInsert(child, "InsertChildBelow")
	var prev *Actor
	if sibling != nil {
		if sibling.parent != a {
			panic("arbor: sibling's parent is not this actor")
		}
		prev = sibling.prevSibling
	}
	a.link(child, prev)
	a.childAttached(child)
}

// RemoveChild detaches child from this actor and releases the parent's
// ownership. Transitions running on the removed subtree are cancelled. If
// nothing else holds a reference (see Retain) the child is destroyed.
// Panics if child's parent is not this actor.
func (a *Actor) RemoveChild(child *Actor) {
	if child == nil || child.parent != a {
		panic("arbor: child's parent is not this actor")
	}
	if globalDebug {
		debugCheckDestroyed(a, "RemoveChild (parent)")
	}
	if a.stage != nil {
		a.stage.forgetSubtree(child)
	}
	a.unlink(child)
	child.setStage(nil)
	child.cancelSubtreeTransitions()
	child.notify(PropParent)
	a.QueueRelayout()
	if child.refs == 0 && !child.inDestruction {
		child.Destroy()
	}
}

// RemoveFromParent detaches this actor from its parent. No-op if detached.
func (a *Actor) RemoveFromParent() {
	if a.parent == nil {
		return
	}
	a.parent.RemoveChild(a)
}

// RemoveAllChildren removes every child. Children without external
// references are destroyed.
func (a *Actor) RemoveAllChildren() {
	for a.firstChild != nil {
		a.RemoveChild(a.firstChild)
	}
}

// DestroyAllChildren destroys every child, retained or not.
func (a *Actor) DestroyAllChildren() {
	for a.firstChild != nil {
		a.firstChild.Destroy()
	}
}

// Reparent moves this actor under newParent as one operation: the actor is
// never destroyed, its transitions keep running, and observers see a single
// parent change without an intermediate detached state.
func (a *Actor) Reparent(newParent *Actor) {
	if newParent == nil {
		panic("arbor: cannot reparent to nil")
	}
	if a.topLevel {
		panic("arbor: cannot reparent a stage")
	}
	if globalDebug {
		debugCheckDestroyed(a, "Reparent")
		debugCheckDestroyed(newParent, "Reparent (new parent)")
	}
	if a.destroyed || newParent.destroyed {
		panic("arbor: cannot reparent a destroyed actor")
	}
	old := a.parent
	if old == newParent {
		return
	}
	if isAncestor(a, newParent) {
		panic("arbor: reparenting would create a cycle")
	}
	if old != nil {
		if old.stage != nil && old.stage != newParent.stage {
			old.stage.forgetSubtree(a)
		}
		old.unlink(a)
		old.QueueRelayout()
	}
	newParent.link(a, newParent.lastChild)
	if a.stage != newParent.stage {
		a.setStage(newParent.stage)
	}
	a.invalidateSubtreeAllocation()
	newParent.QueueRelayout()
	a.notify(PropParent)
	if globalDebug {
		debugCheckTreeDepth(a)
		debugCheckChildCount(newParent)
	}
}

// SetChildIndex moves child to a new index among its siblings.
func (a *Actor) SetChildIndex(child *Actor, index int) {
	if child.parent != a {
		panic("arbor: child's parent is not this actor")
	}
	if index < 0 || index >= a.nChildren {
		panic("arbor: child index out of range")
	}
	a.unlink(child)
	var prev *Actor
	if index > 0 {
		prev = a.ChildAt(index - 1)
	}
	a.link(child, prev)
	a.QueueRelayout()
}

// --- Lifetime ---

// Retain records an external reference. A retained actor survives
// RemoveChild; it is destroyed when the last reference is released while it
// has no parent.
func (a *Actor) Retain() *Actor {
	a.refs++
	return a
}

// Release drops a reference taken with Retain.
func (a *Actor) Release() {
	if a.refs == 0 {
		panic("arbor: Release without matching Retain")
	}
	a.refs--
	if a.refs == 0 && a.parent == nil && !a.topLevel {
		a.Destroy()
	}
}

// OnDestroy registers fn to run when the actor is destroyed. Children are
// destroyed, and notified, before their parent.
func (a *Actor) OnDestroy(fn func(*Actor)) Handle {
	return a.destroySignal.Connect(fn)
}

// Destroy removes this actor from its parent and destroys it together with
// all of its children.
func (a *Actor) Destroy() {
	if a.destroyed || a.inDestruction {
		return
	}
	a.inDestruction = true

	if p := a.parent; p != nil {
		if p.stage != nil {
			p.stage.forgetSubtree(a)
		}
		p.unlink(a)
		if !p.inDestruction {
			p.QueueRelayout()
		}
	}
	for a.firstChild != nil {
		a.firstChild.Destroy()
	}

	a.destroySignal.Emit(a)

	a.cancelTransitions()
	a.setContentRef(nil)
	if a.layout != nil {
		a.layout.base().unbind()
		a.layout = nil
	}
	for _, c := range a.constraints {
		detachMeta(c)
	}
	for _, ac := range a.actions {
		detachMeta(ac)
	}
	for _, e := range a.effects {
		detachMeta(e)
	}
	a.constraints = nil
	a.actions = nil
	a.effects = nil
	a.stage = nil
	a.sortedChildren = nil
	a.hitShape = nil
	a.UserData = nil
	a.observers = nil
	a.destroySignal.Clear()
	a.captureHandlers.clear()
	a.eventHandlers.clear()
	a.destroyed = true
	a.inDestruction = false
}

// IsDestroyed reports whether Destroy has run on this actor.
func (a *Actor) IsDestroyed() bool {
	return a.destroyed
}

// --- Traversal ---

// Parent returns the parent actor, or nil.
func (a *Actor) Parent() *Actor { return a.parent }

// Stage returns the stage this actor is rooted under, or nil.
func (a *Actor) Stage() *Stage { return a.stage }

func (a *Actor) FirstChild() *Actor      { return a.firstChild }
func (a *Actor) LastChild() *Actor       { return a.lastChild }
func (a *Actor) NextSibling() *Actor     { return a.nextSibling }
func (a *Actor) PreviousSibling() *Actor { return a.prevSibling }

// NumChildren returns the number of children.
func (a *Actor) NumChildren() int { return a.nChildren }

// ChildAt returns the child at the given index. Panics if out of range.
func (a *Actor) ChildAt(index int) *Actor {
	if index < 0 || index >= a.nChildren {
		panic("arbor: child index out of range")
	}
	if index > a.nChildren/2 {
		c := a.lastChild
		for i := a.nChildren - 1; i > index; i-- {
			c = c.prevSibling
		}
		return c
	}
	c := a.firstChild
	for i := 0; i < index; i++ {
		c = c.nextSibling
	}
	return c
}

// Children returns a copy of the child list in order.
func (a *Actor) Children() []*Actor {
	out := make([]*Actor, 0, a.nChildren)
	for c := a.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// AllChildren iterates the children in order. Removing the current child
// during iteration is allowed.
func (a *Actor) AllChildren() iter.Seq[*Actor] {
	return func(yield func(*Actor) bool) {
		for c := a.firstChild; c != nil; {
			next := c.nextSibling
			if !yield(c) {
				return
			}
			c = next
		}
	}
}

// Contains reports whether descendant is this actor or one of its descendants.
func (a *Actor) Contains(descendant *Actor) bool {
	return isAncestor(a, descendant)
}

// --- Helpers ---

func (a *Actor) checkInsert(child *Actor, op string) {
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if globalDebug {
		debugCheckDestroyed(a, op+" (parent)")
		debugCheckDestroyed(child, op+" (child)")
	}
	if a.destroyed || child.destroyed {
		panic("arbor: cannot add a destroyed actor")
	}
	if child.topLevel {
		panic("arbor: cannot add a stage as a child")
	}
	if child.parent == a {
		panic("arbor: actor is already a child of this actor")
	}
	if child.parent != nil {
		panic(fmt.Sprintf("arbor: actor %s already has a parent; remove or reparent it first", child))
	}
	if isAncestor(child, a) {
		panic("arbor: adding child would create a cycle")
	}
}

// childAttached finishes an insertion: stage pointers, invalidation,
// notification and debug checks.
func (a *Actor) childAttached(child *Actor) {
	child.setStage(a.stage)
	child.invalidateSubtreeAllocation()
	a.QueueRelayout()
	child.notify(PropParent)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(a)
	}
}

// link inserts child after prev (nil means at the front).
func (a *Actor) link(child, prev *Actor) {
	child.parent = a
	child.prevSibling = prev
	if prev != nil {
		child.nextSibling = prev.nextSibling
		prev.nextSibling = child
	} else {
		child.nextSibling = a.firstChild
		a.firstChild = child
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child
	} else {
		a.lastChild = child
	}
	a.nChildren++
	a.childrenSorted = false
}

// unlink removes child from the list and clears its parent and siblings.
func (a *Actor) unlink(child *Actor) {
	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		a.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		a.lastChild = child.prevSibling
	}
	child.parent = nil
	child.prevSibling = nil
	child.nextSibling = nil
	a.nChildren--
	a.childrenSorted = false
}

// setStage updates the stage lookup pointer for the whole subtree.
func (a *Actor) setStage(s *Stage) {
	a.stage = s
	if s != nil {
		a.scheduleTransitions(s)
	}
	for c := a.firstChild; c != nil; c = c.nextSibling {
		c.setStage(s)
	}
}

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Actor) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// sortedPaintOrder returns the children in paint order: child-list order,
// stably sorted by z-position.
func (a *Actor) sortedPaintOrder() []*Actor {
	if a.childrenSorted && len(a.sortedChildren) == a.nChildren {
		return a.sortedChildren
	}
	a.sortedChildren = a.sortedChildren[:0]
	for c := a.firstChild; c != nil; c = c.nextSibling {
		a.sortedChildren = append(a.sortedChildren, c)
	}
	// Stable insertion sort: optimal for the usual few, nearly sorted children.
	s := a.sortedChildren
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j].zPosition > key.zPosition {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
	a.childrenSorted = true
	return s
}
