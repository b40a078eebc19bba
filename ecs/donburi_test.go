package ecs

import (
	"testing"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/arbor"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	if NewDonburiStore(world) == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []arbor.InteractionEvent
	InteractionEventType.Subscribe(world, func(w donburi.World, e arbor.InteractionEvent) {
		received = append(received, e)
	})

	store.EmitEvent(arbor.InteractionEvent{
		Type:     arbor.EventButtonPress,
		EntityID: 42,
		GlobalX:  100,
		GlobalY:  200,
		Button:   arbor.MouseButtonLeft,
	})
	store.EmitEvent(arbor.InteractionEvent{
		Type:   arbor.EventDragBegin,
		StartX: 10,
		DeltaX: 5,
	})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("received %d events before ProcessEvents", len(received))
	}
	InteractionEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Type != arbor.EventButtonPress || e0.EntityID != 42 {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.GlobalX != 100 || e0.GlobalY != 200 {
		t.Errorf("event 0 position: (%v,%v)", e0.GlobalX, e0.GlobalY)
	}
	e1 := received[1]
	if e1.Type != arbor.EventDragBegin || e1.StartX != 10 || e1.DeltaX != 5 {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	InteractionEventType.Subscribe(world, func(w donburi.World, e arbor.InteractionEvent) { count1++ })
	InteractionEventType.Subscribe(world, func(w donburi.World, e arbor.InteractionEvent) { count2++ })

	store.EmitEvent(arbor.InteractionEvent{Type: arbor.EventClick})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestBindActor(t *testing.T) {
	world := donburi.NewWorld()
	e := world.Create(ActorComponent)
	a := arbor.NewActor("button")

	BindActor(world, e, a)
	if a.EntityID != uint32(e.Id()) {
		t.Errorf("EntityID = %d, want %d", a.EntityID, e.Id())
	}
	if got := ActorOf(world, e); got != a {
		t.Errorf("ActorOf = %v, want the bound actor", got)
	}

	other := world.Create()
	if got := ActorOf(world, other); got != nil {
		t.Errorf("ActorOf(unbound) = %v, want nil", got)
	}
	BindActor(world, other, arbor.NewActor("other"))
	if ActorOf(world, other) == nil {
		t.Error("BindActor should add the component")
	}
}

func TestStageClickReachesWorld(t *testing.T) {
	world := donburi.NewWorld()
	stage := arbor.NewStage(arbor.StageConfig{Width: 200, Height: 200})
	stage.SetEntityStore(NewDonburiStore(world))

	button := arbor.NewActor("button")
	button.SetPosition(10, 10)
	button.SetSize(50, 50)
	button.SetReactive(true)
	button.AddAction(arbor.NewClickAction())
	stage.AddChild(button)

	e := world.Create(ActorComponent)
	BindActor(world, e, button)

	var clicks int
	var types []arbor.EventType
	InteractionEventType.Subscribe(world, func(w donburi.World, ev arbor.InteractionEvent) {
		types = append(types, ev.Type)
		if ev.Type != arbor.EventClick {
			return
		}
		clicks++
		got, ok := EventEntity(w, ev)
		if !ok || got != e {
			t.Errorf("EventEntity = %v, %v; want %v", got, ok, e)
		}
		if ev.LocalX != 20 || ev.LocalY != 20 {
			t.Errorf("local = (%v,%v), want (20,20)", ev.LocalX, ev.LocalY)
		}
	})

	stage.InjectClick(30, 30)
	stage.Update(0)
	InteractionEventType.ProcessEvents(world)

	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1 (events %v)", clicks, types)
	}
}

func TestEventEntity_Unbound(t *testing.T) {
	world := donburi.NewWorld()
	if _, ok := EventEntity(world, arbor.InteractionEvent{}); ok {
		t.Error("zero EntityID should not resolve")
	}
	if _, ok := EventEntity(world, arbor.InteractionEvent{EntityID: 99}); ok {
		t.Error("unknown EntityID should not resolve")
	}
}
