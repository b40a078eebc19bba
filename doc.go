// Package arbor is a retained-mode scene graph for 2D user interfaces and
// animated scenes.
//
// A [Stage] owns a tree of [Actor] values. Every actor has a box in its
// parent's coordinate space, produced by a two-pass layout: preferred sizes
// are negotiated bottom-up and allocations are handed out top-down by each
// container's [LayoutManager]. On top of the allocation an actor carries a
// transform (translation, scale, rotation around a pivot point), an opacity
// and an optional clip.
//
// Painting does not draw pixels. [Stage.Paint] settles layout and turns the
// visible tree into a tree of [PaintNode] values (colors, textures,
// transforms, clips, offscreen layers and effects) that a backend renders.
// Two backends ship with the module: ebitenbackend draws through Ebitengine
// and tcellbackend draws half-block pixels in a terminal.
//
// # Quick start
//
//	stage := arbor.NewStage(arbor.StageConfig{Width: 640, Height: 480})
//	stage.SetLayoutManager(arbor.NewBinLayout())
//
//	row := arbor.NewActor("row")
//	row.SetLayoutManager(arbor.NewBoxLayout(arbor.Horizontal))
//	stage.AddChild(row)
//
//	box := arbor.NewActor("box")
//	box.SetBackgroundColor(arbor.Color{R: 0.3, G: 0.7, B: 1, A: 1})
//	box.SetXExpand(true)
//	row.AddChild(box)
//
//	ebitenbackend.Run(stage, ebitenbackend.RunConfig{Title: "Demo"})
//
// Headless code drives the stage directly: [Stage.Update] advances input,
// timelines and layout by a time step and [Stage.Paint] returns the paint
// tree.
//
// # Animation
//
// A [Timeline] measures elapsed time with delay, repeat, auto-reverse and
// markers. A [Transition] binds a timeline and an [Interval] to a named
// property of an [Animatable]; [Actor.Animate] is the short form:
//
//	box.Animate("opacity", 0.0, 300*time.Millisecond, arbor.EaseOutQuad)
//
// Easing curves are [ProgressMode] values. The named ones come from
// [gween] and the CSS presets are cubic Béziers.
//
// # Input
//
// Backends queue [Event] values with [Stage.QueueEvent]. Events are picked
// against the reactive actors, then dispatched through a capture phase
// from the stage down and a bubble phase back up. [ClickAction] and
// [DragAction] turn raw events into clicks, long presses and drags.
// Set an [EntityStore] to forward interactions to an ECS; see the ecs
// subpackage for a Donburi adapter.
//
// # Concurrency
//
// A stage and its actors belong to one goroutine. Other goroutines talk to
// it through [Stage.Post] and [Stage.QueueEvent], which run at the next
// Update. [AssetLoader] decodes images in parallel and posts the results.
//
// [gween]: https://github.com/tanema/gween
package arbor
