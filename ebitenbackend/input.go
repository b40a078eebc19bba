package ebitenbackend

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/arbor"
)

// maxPointers is the number of pointer devices: 0 is the mouse, 1-9 are
// touches.
const maxPointers = 10

// inputReader polls Ebitengine's input state once per tick and turns the
// differences into arbor events.
type inputReader struct {
	lastX, lastY int
	hasCursor    bool

	touchMap  [maxPointers]ebiten.TouchID
	touchUsed [maxPointers]bool
	touchPos  [maxPointers][2]int

	keys  []ebiten.Key
	runes []rune
	touch []ebiten.TouchID
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() arbor.KeyModifiers {
	var mods arbor.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= arbor.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= arbor.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= arbor.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= arbor.ModMeta
	}
	return mods
}

// poll queues this tick's input on s.
func (in *inputReader) poll(s *arbor.Stage) {
	mods := readModifiers()
	in.pollMouse(s, mods)
	in.pollTouches(s, mods)
	in.pollKeys(s, mods)
}

var mouseButtons = [...]struct {
	eb ebiten.MouseButton
	ab arbor.MouseButton
}{
	{ebiten.MouseButtonLeft, arbor.MouseButtonLeft},
	{ebiten.MouseButtonRight, arbor.MouseButtonRight},
	{ebiten.MouseButtonMiddle, arbor.MouseButtonMiddle},
}

func (in *inputReader) pollMouse(s *arbor.Stage, mods arbor.KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	if !in.hasCursor || mx != in.lastX || my != in.lastY {
		in.hasCursor = true
		in.lastX, in.lastY = mx, my
		s.QueueEvent(arbor.Event{Type: arbor.EventMotion, X: x, Y: y, Modifiers: mods})
	}
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			s.QueueEvent(arbor.Event{Type: arbor.EventButtonPress, X: x, Y: y, Button: b.ab, Modifiers: mods})
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			s.QueueEvent(arbor.Event{Type: arbor.EventButtonRelease, X: x, Y: y, Button: b.ab, Modifiers: mods})
		}
	}
	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		s.QueueEvent(arbor.Event{Type: arbor.EventScroll, X: x, Y: y, ScrollDX: dx, ScrollDY: dy, Modifiers: mods})
	}
}

func (in *inputReader) pollTouches(s *arbor.Stage, mods arbor.KeyModifiers) {
	in.touch = inpututil.AppendJustPressedTouchIDs(in.touch[:0])
	for _, tid := range in.touch {
		slot := in.touchSlot(tid)
		if slot < 0 {
			continue
		}
		tx, ty := ebiten.TouchPosition(tid)
		in.touchPos[slot] = [2]int{tx, ty}
		s.QueueEvent(arbor.Event{Type: arbor.EventButtonPress, Device: slot, X: float64(tx), Y: float64(ty), Modifiers: mods})
	}
	for slot := 1; slot < maxPointers; slot++ {
		if !in.touchUsed[slot] {
			continue
		}
		tid := in.touchMap[slot]
		if inpututil.IsTouchJustReleased(tid) {
			p := in.touchPos[slot]
			s.QueueEvent(arbor.Event{Type: arbor.EventButtonRelease, Device: slot, X: float64(p[0]), Y: float64(p[1]), Modifiers: mods})
			in.touchUsed[slot] = false
			in.touchMap[slot] = 0
			continue
		}
		tx, ty := ebiten.TouchPosition(tid)
		if p := in.touchPos[slot]; p[0] != tx || p[1] != ty {
			in.touchPos[slot] = [2]int{tx, ty}
			s.QueueEvent(arbor.Event{Type: arbor.EventMotion, Device: slot, X: float64(tx), Y: float64(ty), Modifiers: mods})
		}
	}
}

// touchSlot maps a touch to a pointer slot (1-9). Returns the existing slot
// or allocates a new one. Returns -1 if all slots are in use.
func (in *inputReader) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if in.touchUsed[i] && in.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !in.touchUsed[i] {
			in.touchUsed[i] = true
			in.touchMap[i] = tid
			return i
		}
	}
	return -1
}

func (in *inputReader) pollKeys(s *arbor.Stage, mods arbor.KeyModifiers) {
	in.keys = inpututil.AppendJustPressedKeys(in.keys[:0])
	for _, k := range in.keys {
		if key, ok := translateKey(k); ok {
			s.QueueEvent(arbor.Event{Type: arbor.EventKeyPress, Key: key, Modifiers: mods})
		}
	}
	in.runes = ebiten.AppendInputChars(in.runes[:0])
	for _, r := range in.runes {
		s.QueueEvent(arbor.Event{Type: arbor.EventKeyPress, Key: arbor.KeyRune, Rune: r, Modifiers: mods})
	}
	in.keys = inpututil.AppendJustReleasedKeys(in.keys[:0])
	for _, k := range in.keys {
		if key, ok := translateKey(k); ok {
			s.QueueEvent(arbor.Event{Type: arbor.EventKeyRelease, Key: key, Modifiers: mods})
		}
	}
}

var keyMap = map[ebiten.Key]arbor.Key{
	ebiten.KeyEnter:       arbor.KeyEnter,
	ebiten.KeyNumpadEnter: arbor.KeyEnter,
	ebiten.KeyEscape:      arbor.KeyEscape,
	ebiten.KeyTab:         arbor.KeyTab,
	ebiten.KeyBackspace:   arbor.KeyBackspace,
	ebiten.KeyDelete:      arbor.KeyDelete,
	ebiten.KeyInsert:      arbor.KeyInsert,
	ebiten.KeySpace:       arbor.KeySpace,
	ebiten.KeyArrowUp:     arbor.KeyUp,
	ebiten.KeyArrowDown:   arbor.KeyDown,
	ebiten.KeyArrowLeft:   arbor.KeyLeft,
	ebiten.KeyArrowRight:  arbor.KeyRight,
	ebiten.KeyHome:        arbor.KeyHome,
	ebiten.KeyEnd:         arbor.KeyEnd,
	ebiten.KeyPageUp:      arbor.KeyPageUp,
	ebiten.KeyPageDown:    arbor.KeyPageDown,
	ebiten.KeyF1:          arbor.KeyF1,
	ebiten.KeyF2:          arbor.KeyF2,
	ebiten.KeyF3:          arbor.KeyF3,
	ebiten.KeyF4:          arbor.KeyF4,
	ebiten.KeyF5:          arbor.KeyF5,
	ebiten.KeyF6:          arbor.KeyF6,
	ebiten.KeyF7:          arbor.KeyF7,
	ebiten.KeyF8:          arbor.KeyF8,
	ebiten.KeyF9:          arbor.KeyF9,
	ebiten.KeyF10:         arbor.KeyF10,
	ebiten.KeyF11:         arbor.KeyF11,
	ebiten.KeyF12:         arbor.KeyF12,
}

// translateKey maps a non-printable Ebitengine key. Printable keys arrive
// as runes through AppendInputChars and are not translated here.
func translateKey(k ebiten.Key) (arbor.Key, bool) {
	key, ok := keyMap[k]
	return key, ok
}
