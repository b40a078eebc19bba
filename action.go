package arbor

import (
	"math"
	"time"
)

// Action reacts to input on the actor it is attached to. Actions see each
// bubbling event before the actor's OnEvent handlers; returning true stops
// propagation.
type Action interface {
	ActorMeta
	HandleEvent(a *Actor, ev *Event) bool
}

const (
	// DefaultDragThreshold is the distance in pixels the pointer must travel
	// before a drag begins.
	DefaultDragThreshold = 4.0
	// DefaultLongPressDuration is how long a press must be held to count as
	// a long press.
	DefaultLongPressDuration = 500 * time.Millisecond
)

// --- ClickAction ---

// ClickAction turns a press and release on the same actor into a click. The
// pointer is grabbed between press and release, so the release is seen
// even when it happens outside the actor; it only counts as a click when
// the pointer is back over the actor or one of its descendants.
//
// Holding the press for LongPressDuration without moving further than
// LongPressThreshold fires LongPressed instead, and the release that
// follows is not a click.
type ClickAction struct {
	Meta
	LongPressDuration  time.Duration
	LongPressThreshold float64

	Clicked     Signal[*Actor]
	LongPressed Signal[*Actor]

	pressed   bool
	held      bool
	longFired bool
	device    int
	button    MouseButton
	pressPos  Vec2
	timer     *Timeline
}

// NewClickAction creates a click action with default long-press settings.
func NewClickAction() *ClickAction {
	return &ClickAction{
		LongPressDuration:  DefaultLongPressDuration,
		LongPressThreshold: DefaultDragThreshold,
	}
}

// IsPressed reports whether a press is in progress.
func (c *ClickAction) IsPressed() bool { return c.pressed }

// IsHeld reports whether the press is in progress with the pointer over
// the actor.
func (c *ClickAction) IsHeld() bool { return c.pressed && c.held }

// Button returns the button of the current or last press.
func (c *ClickAction) Button() MouseButton { return c.button }

// Release cancels a press in progress without emitting a click.
func (c *ClickAction) Release() {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.held = false
	c.stopTimer()
	if a := c.actor; a != nil && a.stage != nil && a.stage.PointerGrab(c.device) == a {
		a.stage.UngrabPointer(c.device)
	}
}

func (c *ClickAction) Detached(*Actor) { c.Release() }
func (c *ClickAction) Attached(*Actor) {}

func (c *ClickAction) HandleEvent(a *Actor, ev *Event) bool {
	switch ev.Type {
	case EventButtonPress:
		if c.pressed {
			return false
		}
		c.pressed = true
		c.held = true
		c.longFired = false
		c.device = ev.Device
		c.button = ev.Button
		c.pressPos = Vec2{ev.X, ev.Y}
		if a.stage != nil {
			a.stage.GrabPointer(ev.Device, a)
			c.startTimer(a, *ev)
		}

	case EventMotion:
		if !c.pressed || ev.Device != c.device {
			return false
		}
		if math.Hypot(ev.X-c.pressPos.X, ev.Y-c.pressPos.Y) > c.LongPressThreshold {
			c.stopTimer()
		}

	case EventEnter, EventLeave:
		if c.pressed && ev.Device == c.device && ev.Source != nil {
			c.held = ev.Type == EventEnter && a.Contains(ev.Source)
		}

	case EventButtonRelease:
		if !c.pressed || ev.Device != c.device || ev.Button != c.button {
			return false
		}
		c.Release()
		if c.longFired {
			return true
		}
		if a.stage != nil && a.Contains(a.stage.Pick(ev.X, ev.Y)) {
			c.Clicked.Emit(a)
			a.stage.emitActionEvent(EventClick, a, ev, c.pressPos, Vec2{})
		}
	}
	return false
}

func (c *ClickAction) startTimer(a *Actor, press Event) {
	if c.LongPressDuration <= 0 || c.LongPressed.Len() == 0 {
		return
	}
	c.stopTimer()
	tl := NewTimeline(c.LongPressDuration)
	tl.OnCompleted(func(*Timeline) {
		if !c.pressed || c.longFired {
			return
		}
		c.longFired = true
		c.LongPressed.Emit(a)
		if a.stage != nil {
			a.stage.emitActionEvent(EventLongPress, a, &press, c.pressPos, Vec2{})
		}
	})
	a.stage.AddTimeline(tl)
	tl.Start()
	c.timer = tl
}

func (c *ClickAction) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		if s := c.timer.stage; s != nil {
			s.RemoveTimeline(c.timer)
		}
		c.timer = nil
	}
}

// --- DragAction ---

// DragAxis restricts dragging to one axis.
type DragAxis uint8

const (
	DragAxisNone DragAxis = iota
	DragXAxis
	DragYAxis
)

// DragEvent describes one step of a drag. Coordinates are in stage space.
type DragEvent struct {
	Actor          *Actor
	X, Y           float64
	StartX, StartY float64
	DeltaX, DeltaY float64 // movement since the previous step
	Modifiers      KeyModifiers
}

// DragAction moves its actor with the pointer. The drag begins once the
// pointer moved more than Threshold from the press, and the actor's fixed
// position follows the pointer (in its parent's coordinate space) unless
// DisableMove is set.
type DragAction struct {
	Meta
	Threshold   float64
	Axis        DragAxis
	DisableMove bool

	DragBegin  Signal[DragEvent]
	DragMotion Signal[DragEvent]
	DragEnd    Signal[DragEvent]

	armed    bool
	dragging bool
	device   int
	press    Vec2
	last     Vec2
	startPos Vec2
}

// NewDragAction creates a drag action with the default threshold.
func NewDragAction() *DragAction {
	return &DragAction{Threshold: DefaultDragThreshold}
}

// IsDragging reports whether a drag is in progress.
func (d *DragAction) IsDragging() bool { return d.dragging }

func (d *DragAction) Attached(*Actor) {}

func (d *DragAction) Detached(a *Actor) {
	if (d.armed || d.dragging) && a.stage != nil && a.stage.PointerGrab(d.device) == a {
		a.stage.UngrabPointer(d.device)
	}
	d.armed, d.dragging = false, false
}

func (d *DragAction) HandleEvent(a *Actor, ev *Event) bool {
	switch ev.Type {
	case EventButtonPress:
		if d.armed {
			return false
		}
		d.armed = true
		d.dragging = false
		d.device = ev.Device
		d.press = Vec2{ev.X, ev.Y}
		d.last = d.press
		d.startPos = a.Position()
		if a.stage != nil {
			a.stage.GrabPointer(ev.Device, a)
		}

	case EventMotion:
		if !d.armed || ev.Device != d.device {
			return false
		}
		if !d.dragging {
			if math.Hypot(ev.X-d.press.X, ev.Y-d.press.Y) <= d.Threshold {
				return false
			}
			d.dragging = true
			d.DragBegin.Emit(d.event(a, ev, d.press))
			if a.stage != nil {
				a.stage.emitActionEvent(EventDragBegin, a, ev, d.press, Vec2{ev.X - d.press.X, ev.Y - d.press.Y})
			}
		}
		if !d.DisableMove {
			d.moveActor(a, ev.X, ev.Y)
		}
		de := d.event(a, ev, d.last)
		d.DragMotion.Emit(de)
		if a.stage != nil {
			a.stage.emitActionEvent(EventDrag, a, ev, d.press, Vec2{de.DeltaX, de.DeltaY})
		}
		d.last = Vec2{ev.X, ev.Y}
		return true

	case EventButtonRelease:
		if !d.armed || ev.Device != d.device {
			return false
		}
		d.armed = false
		if a.stage != nil && a.stage.PointerGrab(d.device) == a {
			a.stage.UngrabPointer(d.device)
		}
		if !d.dragging {
			return false
		}
		d.dragging = false
		de := d.event(a, ev, d.last)
		d.DragEnd.Emit(de)
		if a.stage != nil {
			a.stage.emitActionEvent(EventDragEnd, a, ev, d.press, Vec2{de.DeltaX, de.DeltaY})
		}
		return true
	}
	return false
}

func (d *DragAction) event(a *Actor, ev *Event, prev Vec2) DragEvent {
	return DragEvent{
		Actor:     a,
		X:         ev.X,
		Y:         ev.Y,
		StartX:    d.press.X,
		StartY:    d.press.Y,
		DeltaX:    ev.X - prev.X,
		DeltaY:    ev.Y - prev.Y,
		Modifiers: ev.Modifiers,
	}
}

// moveActor converts the pointer travel into the parent's space and moves
// the actor's fixed position by it.
func (d *DragAction) moveActor(a *Actor, x, y float64) {
	px0, py0, px1, py1 := d.press.X, d.press.Y, x, y
	if p := a.parent; p != nil && !p.topLevel {
		var ok0, ok1 bool
		px0, py0, ok0 = p.StageToLocal(d.press.X, d.press.Y)
		px1, py1, ok1 = p.StageToLocal(x, y)
		if !ok0 || !ok1 {
			return
		}
	}
	dx, dy := px1-px0, py1-py0
	switch d.Axis {
	case DragXAxis:
		dy = 0
	case DragYAxis:
		dx = 0
	}
	a.SetPosition(d.startPos.X+dx, d.startPos.Y+dy)
}
