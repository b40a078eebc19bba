package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/arbor"
)

// InteractionEventType is the Donburi event type for arbor interaction
// events.
var InteractionEventType = events.NewEventType[arbor.InteractionEvent]()

// ActorRef is the component linking an entity to the actor that shows it.
type ActorRef struct {
	Actor *arbor.Actor
}

// ActorComponent holds the ActorRef of bound entities.
var ActorComponent = donburi.NewComponentType[ActorRef]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Interaction events are published to InteractionEventType and can be
// consumed with Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) arbor.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event arbor.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// BindActor stores a on entity e and sets the actor's EntityID, so its
// interaction events carry the entity's id. The component is added if e
// does not have it yet.
func BindActor(world donburi.World, e donburi.Entity, a *arbor.Actor) {
	entry := world.Entry(e)
	if !entry.HasComponent(ActorComponent) {
		entry.AddComponent(ActorComponent)
	}
	ActorComponent.Set(entry, &ActorRef{Actor: a})
	a.EntityID = uint32(e.Id())
}

// ActorOf returns the actor bound to e, or nil.
func ActorOf(world donburi.World, e donburi.Entity) *arbor.Actor {
	if !world.Valid(e) {
		return nil
	}
	entry := world.Entry(e)
	if !entry.HasComponent(ActorComponent) {
		return nil
	}
	return ActorComponent.Get(entry).Actor
}

// EventEntity returns the live entity of ev, looked up among the bound
// entities. ok is false for events of unbound actors.
func EventEntity(world donburi.World, ev arbor.InteractionEvent) (e donburi.Entity, ok bool) {
	if ev.EntityID == 0 {
		return e, false
	}
	donburi.NewQuery(filter.Contains(ActorComponent)).Each(world, func(entry *donburi.Entry) {
		if !ok && uint32(entry.Entity().Id()) == ev.EntityID {
			e, ok = entry.Entity(), true
		}
	})
	return e, ok
}
