package arbor

// InjectPress queues a left-button press of the mouse at the given stage
// coordinates. Injected events are processed at the next Update, in order,
// exactly like backend input.
func (s *Stage) InjectPress(x, y float64) {
	s.QueueEvent(Event{Type: EventButtonPress, X: x, Y: y, Button: MouseButtonLeft, Synthetic: true})
}

// InjectMove queues a pointer motion to the given stage coordinates. Use it
// between InjectPress and InjectRelease to simulate a drag.
func (s *Stage) InjectMove(x, y float64) {
	s.QueueEvent(Event{Type: EventMotion, X: x, Y: y, Button: MouseButtonLeft, Synthetic: true})
}

// InjectRelease queues a left-button release at the given stage coordinates.
func (s *Stage) InjectRelease(x, y float64) {
	s.QueueEvent(Event{Type: EventButtonRelease, X: x, Y: y, Button: MouseButtonLeft, Synthetic: true})
}

// InjectClick queues a press followed by a release at the same point.
func (s *Stage) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY), steps-2
// linearly interpolated moves, and release at (toX, toY). steps is at
// least 2 (press and release).
func (s *Stage) InjectDrag(fromX, fromY, toX, toY float64, steps int) {
	if steps < 2 {
		steps = 2
	}
	s.InjectPress(fromX, fromY)
	moves := steps - 2
	for i := 1; i <= moves; i++ {
		t := float64(i) / float64(moves+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// InjectScroll queues a scroll of (dx, dy) at the given point.
func (s *Stage) InjectScroll(x, y, dx, dy float64) {
	s.QueueEvent(Event{Type: EventScroll, X: x, Y: y, ScrollDX: dx, ScrollDY: dy, Synthetic: true})
}

// InjectKey queues a key press and release. For printable keys pass
// KeyRune and the character.
func (s *Stage) InjectKey(key Key, r rune, mods KeyModifiers) {
	s.QueueEvent(Event{Type: EventKeyPress, Key: key, Rune: r, Modifiers: mods, Synthetic: true})
	s.QueueEvent(Event{Type: EventKeyRelease, Key: key, Rune: r, Modifiers: mods, Synthetic: true})
}
