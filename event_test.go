package arbor

import (
	"strings"
	"testing"
)

type recordingStore struct {
	events []InteractionEvent
}

func (r *recordingStore) EmitEvent(ev InteractionEvent) { r.events = append(r.events, ev) }

// nested builds stage > outer > inner, both reactive, inner at (10, 10)
// inside outer at (20, 20).
func nested() (s *Stage, outer, inner *Actor) {
	s = paintStage(200, 200)
	outer = reactiveBox("outer", 20, 20, 100, 100)
	inner = reactiveBox("inner", 10, 10, 30, 30)
	s.AddChild(outer)
	outer.AddChild(inner)
	return s, outer, inner
}

func TestDispatchOrder(t *testing.T) {
	s, outer, inner := nested()
	var trace []string
	record := func(tag string, stop bool) EventHandler {
		return func(a *Actor, ev *Event) bool {
			if ev.Type == EventButtonPress {
				trace = append(trace, tag)
			}
			return stop
		}
	}
	s.OnCapturedEvent(record("capture stage", false))
	outer.OnCapturedEvent(record("capture outer", false))
	inner.OnCapturedEvent(record("capture inner", false))
	inner.OnEvent(record("bubble inner", false))
	outer.OnEvent(record("bubble outer", false))
	s.OnEvent(record("bubble stage", false))

	s.InjectPress(35, 35)
	s.Update(0)

	want := "capture stage,capture outer,capture inner,bubble inner,bubble outer,bubble stage"
	if got := strings.Join(trace, ","); got != want {
		t.Errorf("order = %s\nwant    %s", got, want)
	}
}

func TestCaptureStopsEvent(t *testing.T) {
	s, outer, inner := nested()
	outer.OnCapturedEvent(func(_ *Actor, ev *Event) bool {
		if !ev.IsCapture() {
			t.Error("capture handler should see the capture phase")
		}
		return ev.Type == EventButtonPress
	})
	reached := false
	inner.OnCapturedEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			reached = true
		}
		return false
	})
	inner.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			reached = true
		}
		return false
	})
	s.InjectPress(35, 35)
	s.Update(0)
	if reached {
		t.Error("event stopped at outer should not reach inner")
	}
}

func TestBubbleStopsEvent(t *testing.T) {
	s, outer, inner := nested()
	inner.OnEvent(func(_ *Actor, ev *Event) bool { return ev.Type == EventButtonPress })
	reached := false
	outer.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			reached = true
		}
		return false
	})
	s.InjectPress(35, 35)
	s.Update(0)
	if reached {
		t.Error("event stopped at inner should not bubble to outer")
	}
}

func TestActionsRunBeforeHandlers(t *testing.T) {
	s, _, inner := nested()
	var trace []string
	inner.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			trace = append(trace, "handler")
		}
		return false
	})
	inner.AddAction(actionFunc(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			trace = append(trace, "action")
		}
		return false
	}))
	s.InjectPress(35, 35)
	s.Update(0)
	if strings.Join(trace, ",") != "action,handler" {
		t.Errorf("order = %v", trace)
	}
}

type actionFuncImpl struct {
	Meta
	fn EventHandler
}

func (a *actionFuncImpl) HandleEvent(actor *Actor, ev *Event) bool { return a.fn(actor, ev) }

func actionFunc(fn EventHandler) Action { return &actionFuncImpl{fn: fn} }

func TestDisabledActionSkipped(t *testing.T) {
	s, _, inner := nested()
	ran := false
	ac := actionFunc(func(*Actor, *Event) bool { ran = true; return false })
	inner.AddAction(ac)
	ac.(*actionFuncImpl).SetEnabled(false)
	s.InjectPress(35, 35)
	s.Update(0)
	if ran {
		t.Error("disabled action should not see events")
	}
}

func TestEnterLeave(t *testing.T) {
	s, outer, inner := nested()
	var trace []string
	track := func(a *Actor) {
		a.OnEvent(func(self *Actor, ev *Event) bool {
			if self != ev.Source {
				return false // bubbled from a descendant
			}
			switch ev.Type {
			case EventEnter:
				trace = append(trace, "enter "+self.Name+" from "+nameOf(ev.Related))
			case EventLeave:
				trace = append(trace, "leave "+self.Name+" to "+nameOf(ev.Related))
			}
			return false
		})
	}
	track(outer)
	track(inner)

	s.QueueEvent(Event{Type: EventMotion, X: 25, Y: 25}) // outer only
	s.QueueEvent(Event{Type: EventMotion, X: 35, Y: 35}) // inner
	s.QueueEvent(Event{Type: EventMotion, X: 36, Y: 36}) // still inner
	s.QueueEvent(Event{Type: EventMotion, X: 150, Y: 150})
	s.Update(0)

	want := []string{
		"enter outer from <nil>",
		"leave outer to inner",
		"enter inner from outer",
		"leave inner to stage",
	}
	if strings.Join(trace, "\n") != strings.Join(want, "\n") {
		t.Errorf("trace:\n%s\nwant:\n%s", strings.Join(trace, "\n"), strings.Join(want, "\n"))
	}
	if s.PointerActor(0) != &s.Actor {
		t.Errorf("PointerActor = %v, want the stage", s.PointerActor(0))
	}
	if x, y := s.PointerPosition(0); x != 150 || y != 150 {
		t.Errorf("PointerPosition = (%v, %v)", x, y)
	}
}

func nameOf(a *Actor) string {
	if a == nil {
		return "<nil>"
	}
	return a.Name
}

func TestPointerLeavesStage(t *testing.T) {
	s, outer, _ := nested()
	left := false
	outer.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventLeave && ev.Source == outer {
			left = true
		}
		return false
	})
	s.QueueEvent(Event{Type: EventEnter, X: 25, Y: 25})
	s.QueueEvent(Event{Type: EventLeave})
	s.Update(0)
	if !left || s.PointerActor(0) != nil {
		t.Error("leaving the stage should leave the hovered actor")
	}
}

func TestPointerGrab(t *testing.T) {
	s, outer, inner := nested()
	s.GrabPointer(0, inner)
	if s.PointerGrab(0) != inner {
		t.Fatal("PointerGrab mismatch")
	}
	var target *Actor
	outer.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventButtonPress {
			target = ev.Source
		}
		return false
	})
	s.InjectPress(190, 190)
	s.Update(0)
	if target != inner {
		t.Errorf("grabbed press went to %v, want inner", target)
	}
	s.UngrabPointer(0)
	if s.PointerGrab(0) != nil {
		t.Error("UngrabPointer should clear the grab")
	}
}

func TestGrabOnOtherStagePanics(t *testing.T) {
	s := paintStage(10, 10)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	s.GrabPointer(0, NewActor("loose"))
}

func TestKeyFocus(t *testing.T) {
	s, outer, inner := nested()
	var stageKeys, innerKeys int
	s.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventKeyPress {
			stageKeys++
		}
		return false
	})
	inner.OnEvent(func(_ *Actor, ev *Event) bool {
		if ev.Type == EventKeyPress {
			innerKeys++
		}
		return true
	})
	var changes []*Actor
	s.KeyFocusChanged.Connect(func(a *Actor) { changes = append(changes, a) })

	s.InjectKey(KeyEnter, 0, 0)
	s.Update(0)
	if stageKeys != 1 || innerKeys != 0 {
		t.Fatalf("without focus: stage=%d inner=%d", stageKeys, innerKeys)
	}

	inner.GrabKeyFocus()
	if !inner.HasKeyFocus() || s.KeyFocus() != inner {
		t.Fatal("GrabKeyFocus failed")
	}
	s.InjectKey(KeyEnter, 0, 0)
	s.Update(0)
	if innerKeys != 1 || stageKeys != 1 {
		t.Errorf("with focus: stage=%d inner=%d", stageKeys, innerKeys)
	}

	// Removing the focused subtree gives focus back to the stage.
	outer.Retain()
	s.RemoveChild(outer)
	if s.KeyFocus() != nil {
		t.Error("focus should be dropped with the subtree")
	}
	if len(changes) != 2 || changes[0] != inner || changes[1] != nil {
		t.Errorf("KeyFocusChanged = %v", changes)
	}
	outer.Release()
}

func TestHoverDroppedWithSubtree(t *testing.T) {
	s, outer, inner := nested()
	s.QueueEvent(Event{Type: EventMotion, X: 35, Y: 35})
	s.Update(0)
	if s.PointerActor(0) != inner {
		t.Fatalf("hover = %v, want inner", s.PointerActor(0))
	}
	outer.Destroy()
	if s.PointerActor(0) != nil {
		t.Error("destroying the hovered subtree should clear the hover")
	}
	// No leave is sent to destroyed actors.
	s.QueueEvent(Event{Type: EventMotion, X: 1, Y: 1})
	s.Update(0)
}

func TestEntityStoreReceivesEvents(t *testing.T) {
	s, _, inner := nested()
	store := &recordingStore{}
	s.SetEntityStore(store)
	inner.EntityID = 42

	s.InjectPress(35, 35)
	s.Update(0)

	var press *InteractionEvent
	for i := range store.events {
		if store.events[i].Type == EventButtonPress {
			press = &store.events[i]
		}
	}
	if press == nil {
		t.Fatalf("store saw %d events, none a press", len(store.events))
	}
	if press.EntityID != 42 || press.GlobalX != 35 || press.LocalX != 5 || press.LocalY != 5 {
		t.Errorf("press = %+v", *press)
	}
	for _, ev := range store.events {
		if ev.EntityID != 42 {
			t.Errorf("event for entity %d; only bound actors should report", ev.EntityID)
		}
	}
}

func TestEventTypeString(t *testing.T) {
	tests := map[EventType]string{
		EventButtonPress: "button-press",
		EventEnter:       "enter",
		EventDragEnd:     "drag-end",
		EventType(250):   "unknown",
	}
	for typ, want := range tests {
		if typ.String() != want {
			t.Errorf("%d.String() = %q, want %q", typ, typ.String(), want)
		}
	}
	if !EventMotion.IsPointer() || EventKeyPress.IsPointer() || EventClick.IsPointer() {
		t.Error("IsPointer mismatch")
	}
}

func TestEventTimeIsStageTime(t *testing.T) {
	s := paintStage(10, 10)
	s.Update(250 * ms)
	var got Event
	s.OnEvent(func(_ *Actor, ev *Event) bool {
		got = *ev
		return false
	})
	s.InjectPress(1, 1)
	s.Update(0)
	if got.Time != 250*ms {
		t.Errorf("Time = %v, want 250ms", got.Time)
	}
}
