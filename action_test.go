package arbor

import "testing"

func clickable(s *Stage) (*Actor, *ClickAction, *int) {
	btn := reactiveBox("btn", 10, 10, 50, 50)
	s.AddChild(btn)
	click := NewClickAction()
	n := 0
	click.Clicked.Connect(func(*Actor) { n++ })
	btn.AddAction(click)
	return btn, click, &n
}

// --- ClickAction ---

func TestClickActionGrabsUntilRelease(t *testing.T) {
	s := paintStage(200, 200)
	btn, click, clicks := clickable(s)

	s.InjectPress(20, 20)
	s.Update(0)
	if !click.IsPressed() || !click.IsHeld() || s.PointerGrab(0) != btn {
		t.Fatal("press should grab the pointer")
	}
	if click.Button() != MouseButtonLeft {
		t.Errorf("Button = %v", click.Button())
	}

	s.InjectMove(150, 150)
	s.Update(0)
	if !click.IsPressed() || click.IsHeld() {
		t.Error("moving off the actor should keep the press but drop the hold")
	}
	s.InjectMove(30, 30)
	s.Update(0)
	if !click.IsHeld() {
		t.Error("moving back should restore the hold")
	}

	s.InjectRelease(30, 30)
	s.Update(0)
	if *clicks != 1 || click.IsPressed() || s.PointerGrab(0) != nil {
		t.Errorf("clicks = %d pressed = %v grab = %v", *clicks, click.IsPressed(), s.PointerGrab(0))
	}
}

func TestClickActionReleaseOutside(t *testing.T) {
	s := paintStage(200, 200)
	_, click, clicks := clickable(s)
	s.InjectPress(20, 20)
	s.InjectRelease(150, 150)
	s.Update(0)
	if *clicks != 0 {
		t.Error("release outside the actor is not a click")
	}
	if click.IsPressed() || s.PointerGrab(0) != nil {
		t.Error("release outside should still end the press")
	}
}

func TestClickActionOnDescendant(t *testing.T) {
	s := paintStage(200, 200)
	btn, _, clicks := clickable(s)
	label := reactiveBox("label", 5, 5, 10, 10)
	btn.AddChild(label)

	s.InjectClick(20, 20) // lands on the label
	s.Update(0)
	if *clicks != 1 {
		t.Errorf("clicks = %d; a click on a descendant counts", *clicks)
	}
}

func TestClickActionLongPress(t *testing.T) {
	s := paintStage(200, 200)
	btn, click, clicks := clickable(s)
	long := 0
	click.LongPressed.Connect(func(a *Actor) {
		if a != btn {
			t.Error("LongPressed should carry the actor")
		}
		long++
	})

	s.InjectPress(20, 20)
	s.Update(0)
	s.Update(DefaultLongPressDuration / 2)
	if long != 0 {
		t.Fatal("long press fired early")
	}
	s.Update(DefaultLongPressDuration)
	if long != 1 {
		t.Fatalf("long presses = %d, want 1", long)
	}
	s.InjectRelease(20, 20)
	s.Update(0)
	if *clicks != 0 {
		t.Error("release after a long press is not a click")
	}
	if s.NumTimelines() != 0 {
		t.Errorf("NumTimelines = %d, want 0", s.NumTimelines())
	}
}

func TestClickActionMotionCancelsLongPress(t *testing.T) {
	s := paintStage(200, 200)
	_, click, clicks := clickable(s)
	long := 0
	click.LongPressed.Connect(func(*Actor) { long++ })

	s.InjectPress(20, 20)
	s.InjectMove(40, 40)
	s.Update(0)
	s.Update(2 * DefaultLongPressDuration)
	s.InjectRelease(40, 40)
	s.Update(0)
	if long != 0 || *clicks != 1 {
		t.Errorf("long = %d clicks = %d, want 0 and 1", long, *clicks)
	}
}

func TestClickActionClickEventToStore(t *testing.T) {
	s := paintStage(200, 200)
	btn, _, _ := clickable(s)
	btn.EntityID = 7
	store := &recordingStore{}
	s.SetEntityStore(store)

	s.InjectClick(20, 20)
	s.Update(0)
	var click *InteractionEvent
	for i := range store.events {
		if store.events[i].Type == EventClick {
			click = &store.events[i]
		}
	}
	if click == nil {
		t.Fatal("store did not receive a click")
	}
	if click.LocalX != 10 || click.LocalY != 10 || click.StartX != 20 {
		t.Errorf("click = %+v", *click)
	}
}

func TestClickActionDetachReleasesGrab(t *testing.T) {
	s := paintStage(200, 200)
	btn, click, _ := clickable(s)
	s.InjectPress(20, 20)
	s.Update(0)
	btn.RemoveAction(click)
	if click.IsPressed() || s.PointerGrab(0) != nil {
		t.Error("detaching should cancel the press and the grab")
	}
}

// --- DragAction ---

type dragLog struct {
	begin, motion, end []DragEvent
}

func draggable(s *Stage, parent *Actor) (*Actor, *DragAction, *dragLog) {
	a := reactiveBox("handle", 10, 10, 20, 20)
	parent.AddChild(a)
	d := NewDragAction()
	log := &dragLog{}
	d.DragBegin.Connect(func(e DragEvent) { log.begin = append(log.begin, e) })
	d.DragMotion.Connect(func(e DragEvent) { log.motion = append(log.motion, e) })
	d.DragEnd.Connect(func(e DragEvent) { log.end = append(log.end, e) })
	a.AddAction(d)
	return a, d, log
}

func TestDragActionMovesActor(t *testing.T) {
	s := paintStage(200, 200)
	a, d, log := draggable(s, &s.Actor)

	s.InjectPress(20, 20)
	s.InjectMove(40, 25)
	s.Update(0)
	if !d.IsDragging() || len(log.begin) != 1 {
		t.Fatal("moving past the threshold should begin a drag")
	}
	if p := a.Position(); p != (Vec2{30, 15}) {
		t.Errorf("position = %v, want (30, 15)", p)
	}

	s.InjectMove(50, 35)
	s.InjectRelease(50, 35)
	s.Update(0)
	if d.IsDragging() || len(log.end) != 1 {
		t.Fatal("release should end the drag")
	}
	if len(log.motion) != 2 {
		t.Fatalf("motion events = %d, want 2", len(log.motion))
	}
	m := log.motion[1]
	if m.DeltaX != 10 || m.DeltaY != 10 || m.StartX != 20 || m.StartY != 20 {
		t.Errorf("second motion = %+v", m)
	}
	if p := a.Position(); p != (Vec2{40, 25}) {
		t.Errorf("final position = %v, want (40, 25)", p)
	}
	if s.PointerGrab(0) != nil {
		t.Error("release should drop the grab")
	}
}

func TestDragActionThreshold(t *testing.T) {
	s := paintStage(200, 200)
	a, _, log := draggable(s, &s.Actor)
	s.InjectPress(20, 20)
	s.InjectMove(22, 22)
	s.InjectRelease(22, 22)
	s.Update(0)
	if len(log.begin)+len(log.motion)+len(log.end) != 0 {
		t.Error("movement within the threshold is not a drag")
	}
	if p := a.Position(); p != (Vec2{10, 10}) {
		t.Errorf("position = %v, want unchanged", p)
	}
}

func TestDragActionAxis(t *testing.T) {
	tests := []struct {
		axis DragAxis
		want Vec2
	}{
		{DragAxisNone, Vec2{30, 30}},
		{DragXAxis, Vec2{30, 10}},
		{DragYAxis, Vec2{10, 30}},
	}
	for _, tt := range tests {
		s := paintStage(200, 200)
		a, d, _ := draggable(s, &s.Actor)
		d.Axis = tt.axis
		s.InjectPress(20, 20)
		s.InjectMove(40, 40)
		s.InjectRelease(40, 40)
		s.Update(0)
		if p := a.Position(); p != tt.want {
			t.Errorf("axis %d: position = %v, want %v", tt.axis, p, tt.want)
		}
	}
}

func TestDragActionInScaledParent(t *testing.T) {
	s := paintStage(200, 200)
	parent := NewActor("parent")
	parent.SetScale(2, 2)
	s.AddChild(parent)
	a, _, _ := draggable(s, parent)

	// The handle covers (20, 20)-(60, 60) on the stage.
	s.InjectPress(30, 30)
	s.InjectMove(50, 30)
	s.InjectRelease(50, 30)
	s.Update(0)
	if p := a.Position(); p != (Vec2{20, 10}) {
		t.Errorf("position = %v, want (20, 10)", p)
	}
}

func TestDragActionDisableMove(t *testing.T) {
	s := paintStage(200, 200)
	a, d, log := draggable(s, &s.Actor)
	d.DisableMove = true
	s.InjectDrag(20, 20, 60, 60, 4)
	s.Update(0)
	if p := a.Position(); p != (Vec2{10, 10}) {
		t.Errorf("position = %v, want unchanged", p)
	}
	if len(log.end) != 1 || log.end[0].X != 60 {
		t.Errorf("end events = %+v", log.end)
	}
}
