// Package ecs connects arbor stages to a [Donburi] world.
//
// [NewDonburiStore] publishes the stage's interaction events (button,
// key, click, long-press and drag events of actors with an EntityID) as
// typed Donburi events. Subscribe to [InteractionEventType] in your ECS
// systems to receive them. [BindActor] links an entity to an actor in
// both directions.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	stage.SetEntityStore(store)
//	ecs.BindActor(world, entity, button)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
