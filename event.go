package arbor

import (
	"time"
)

// EventType identifies the kind of Event.
type EventType uint8

const (
	EventNone EventType = iota
	EventButtonPress
	EventButtonRelease
	EventMotion
	EventScroll
	EventKeyPress
	EventKeyRelease
	EventEnter
	EventLeave

	// The following are produced by actions and delivered only to the
	// EntityStore; they never travel through capture and bubble.
	EventClick
	EventLongPress
	EventDragBegin
	EventDrag
	EventDragEnd
)

var eventTypeNames = [...]string{
	EventNone:          "none",
	EventButtonPress:   "button-press",
	EventButtonRelease: "button-release",
	EventMotion:        "motion",
	EventScroll:        "scroll",
	EventKeyPress:      "key-press",
	EventKeyRelease:    "key-release",
	EventEnter:         "enter",
	EventLeave:         "leave",
	EventClick:         "click",
	EventLongPress:     "long-press",
	EventDragBegin:     "drag-begin",
	EventDrag:          "drag",
	EventDragEnd:       "drag-end",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// IsPointer reports whether the event carries pointer coordinates.
func (t EventType) IsPointer() bool {
	switch t {
	case EventButtonPress, EventButtonRelease, EventMotion, EventScroll, EventEnter, EventLeave:
		return true
	}
	return false
}

// Key identifies a non-printable key. Printable input is carried in
// Event.Rune with Key set to KeyRune.
type Key uint16

const (
	KeyUnknown Key = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Event is an input event. Pointer coordinates are in stage space.
type Event struct {
	Type   EventType
	Device int           // pointer device; 0 is the mouse
	Time   time.Duration // stage time at dispatch

	X, Y             float64
	Button           MouseButton
	ScrollDX         float64
	ScrollDY         float64
	Key              Key
	Rune             rune
	Modifiers        KeyModifiers
	Synthetic        bool
	Source           *Actor // the actor the event is targeted at
	Related          *Actor // enter: the actor left; leave: the actor entered
	stopped          bool
	currentlyCapture bool
}

// IsCapture reports whether the event is in its capture phase.
func (e *Event) IsCapture() bool { return e.currentlyCapture }

// EventHandler receives an event at actor a. Returning true stops
// propagation.
type EventHandler func(a *Actor, ev *Event) bool

// OnEvent registers a bubbling-phase handler. Handlers run after the
// actor's actions, innermost actor first.
func (a *Actor) OnEvent(fn EventHandler) Handle {
	return a.eventHandlers.add(fn)
}

// OnCapturedEvent registers a capture-phase handler. Capture runs from the
// stage down to the target before any bubbling handler.
func (a *Actor) OnCapturedEvent(fn EventHandler) Handle {
	return a.captureHandlers.add(fn)
}

// EntityStore receives interaction events for actors with a non-zero
// EntityID.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge.
type InteractionEvent struct {
	Type      EventType
	EntityID  uint32
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
	Key       Key
	Rune      rune
	// Drag fields (valid for EventDragBegin, EventDrag, EventDragEnd)
	StartX float64
	StartY float64
	DeltaX float64
	DeltaY float64
}

// --- Stage-side processing ---

type pointerState struct {
	x, y  float64
	hover *Actor
	grab  *Actor
}

func (s *Stage) pointer(device int) *pointerState {
	ps := s.pointers[device]
	if ps == nil {
		ps = &pointerState{}
		s.pointers[device] = ps
	}
	return ps
}

// processEvent resolves the target of a queued event and dispatches it.
func (s *Stage) processEvent(ev Event) {
	ev.Time = s.elapsed
	switch ev.Type {
	case EventKeyPress, EventKeyRelease:
		target := s.keyFocus
		if target == nil || target.destroyed || target.stage != s {
			target = &s.Actor
		}
		ev.Source = target
		s.dispatch(&ev, target)

	case EventLeave:
		// The pointer left the stage.
		ps := s.pointer(ev.Device)
		s.updateHover(ps, nil, ev)

	case EventEnter:
		ps := s.pointer(ev.Device)
		ps.x, ps.y = ev.X, ev.Y
		s.updateHover(ps, s.Pick(ev.X, ev.Y), ev)

	case EventMotion, EventButtonPress, EventButtonRelease, EventScroll:
		ps := s.pointer(ev.Device)
		ps.x, ps.y = ev.X, ev.Y
		s.updateHover(ps, s.Pick(ev.X, ev.Y), ev)
		target := ps.hover
		if ps.grab != nil {
			target = ps.grab
		}
		if target == nil {
			target = &s.Actor
		}
		ev.Source = target
		s.dispatch(&ev, target)
	}
}

// updateHover synthesizes leave and enter events when the actor under a
// pointer changes.
func (s *Stage) updateHover(ps *pointerState, hit *Actor, base Event) {
	if hit == ps.hover {
		return
	}
	old := ps.hover
	ps.hover = hit
	if old != nil && !old.destroyed && old.stage == s {
		leave := base
		leave.Type = EventLeave
		leave.Source = old
		leave.Related = hit
		s.dispatch(&leave, old)
	}
	if hit != nil {
		enter := base
		enter.Type = EventEnter
		enter.Source = hit
		enter.Related = old
		s.dispatch(&enter, hit)
	}
}

// dispatch runs the capture phase from the stage down to target, then the
// bubble phase back up. It reports whether a handler stopped the event.
func (s *Stage) dispatch(ev *Event, target *Actor) bool {
	s.emitInteraction(ev, target)

	var chain []*Actor
	for p := target; p != nil; p = p.parent {
		chain = append(chain, p)
	}

	ev.currentlyCapture = true
	for i := len(chain) - 1; i >= 0; i-- {
		a := chain[i]
		for _, h := range a.captureHandlers.entries {
			if a.destroyed {
				break
			}
			if h.fn(a, ev) {
				ev.stopped = true
				return true
			}
		}
	}

	ev.currentlyCapture = false
	for _, a := range chain {
		if a.destroyed {
			continue
		}
		for _, ac := range a.actions {
			if ac.meta().disabled {
				continue
			}
			if ac.HandleEvent(a, ev) {
				ev.stopped = true
				return true
			}
		}
		for _, h := range a.eventHandlers.entries {
			if a.destroyed {
				break
			}
			if h.fn(a, ev) {
				ev.stopped = true
				return true
			}
		}
	}
	return false
}

// emitInteraction forwards an event to the entity store.
func (s *Stage) emitInteraction(ev *Event, target *Actor) {
	if s.store == nil || target == nil || target.EntityID == 0 {
		return
	}
	ie := InteractionEvent{
		Type:      ev.Type,
		EntityID:  target.EntityID,
		GlobalX:   ev.X,
		GlobalY:   ev.Y,
		Button:    ev.Button,
		Modifiers: ev.Modifiers,
		Key:       ev.Key,
		Rune:      ev.Rune,
	}
	if ev.Type.IsPointer() {
		ie.LocalX, ie.LocalY, _ = target.StageToLocal(ev.X, ev.Y)
	}
	s.store.EmitEvent(ie)
}

// emitActionEvent forwards an action-level event (click, drag) to the
// entity store.
func (s *Stage) emitActionEvent(typ EventType, a *Actor, ev *Event, start, delta Vec2) {
	if s == nil || s.store == nil || a == nil || a.EntityID == 0 {
		return
	}
	ie := InteractionEvent{
		Type:      typ,
		EntityID:  a.EntityID,
		GlobalX:   ev.X,
		GlobalY:   ev.Y,
		Button:    ev.Button,
		Modifiers: ev.Modifiers,
		StartX:    start.X,
		StartY:    start.Y,
		DeltaX:    delta.X,
		DeltaY:    delta.Y,
	}
	ie.LocalX, ie.LocalY, _ = a.StageToLocal(ev.X, ev.Y)
	s.store.EmitEvent(ie)
}

// --- Grabs and focus ---

// GrabPointer routes every event of the given device to a until
// UngrabPointer. Enter and leave events still follow the pointer.
func (s *Stage) GrabPointer(device int, a *Actor) {
	if a != nil && a.stage != s {
		panic("arbor: cannot grab the pointer for an actor on another stage")
	}
	s.pointer(device).grab = a
}

// UngrabPointer releases a pointer grab.
func (s *Stage) UngrabPointer(device int) {
	if ps := s.pointers[device]; ps != nil {
		ps.grab = nil
	}
}

// PointerGrab returns the actor grabbing the device, or nil.
func (s *Stage) PointerGrab(device int) *Actor {
	if ps := s.pointers[device]; ps != nil {
		return ps.grab
	}
	return nil
}

// PointerActor returns the actor under the device's last known position.
func (s *Stage) PointerActor(device int) *Actor {
	if ps := s.pointers[device]; ps != nil {
		return ps.hover
	}
	return nil
}

// PointerPosition returns the device's last known stage position.
func (s *Stage) PointerPosition(device int) (x, y float64) {
	if ps := s.pointers[device]; ps != nil {
		return ps.x, ps.y
	}
	return 0, 0
}

// SetKeyFocus directs key events to a. nil gives focus back to the stage.
func (s *Stage) SetKeyFocus(a *Actor) {
	if a != nil && a.stage != s {
		panic("arbor: cannot focus an actor on another stage")
	}
	if s.keyFocus == a {
		return
	}
	s.keyFocus = a
	s.KeyFocusChanged.Emit(a)
}

// KeyFocus returns the focused actor, or nil when the stage has focus.
func (s *Stage) KeyFocus() *Actor { return s.keyFocus }

// GrabKeyFocus gives this actor the key focus of its stage.
func (a *Actor) GrabKeyFocus() {
	if a.stage != nil {
		a.stage.SetKeyFocus(a)
	}
}

// HasKeyFocus reports whether this actor has key focus.
func (a *Actor) HasKeyFocus() bool {
	return a.stage != nil && a.stage.keyFocus == a
}

// forgetSubtree drops hover, grab and focus references into a subtree that
// is leaving the stage.
func (s *Stage) forgetSubtree(root *Actor) {
	for _, ps := range s.pointers {
		if ps.hover != nil && isAncestor(root, ps.hover) {
			ps.hover = nil
		}
		if ps.grab != nil && isAncestor(root, ps.grab) {
			ps.grab = nil
		}
	}
	if s.keyFocus != nil && isAncestor(root, s.keyFocus) {
		s.SetKeyFocus(nil)
	}
}
