package tcellbackend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/arbor"
)

// InputTranslator turns tcell events into stage events. Terminals report
// mouse state rather than transitions, so the translator remembers the
// buttons held by the previous event. Terminals do not report key
// releases.
type InputTranslator struct {
	buttons tcell.ButtonMask
	x, y    float64
	moved   bool
}

var buttonMap = [...]struct {
	mask tcell.ButtonMask
	btn  arbor.MouseButton
}{
	{tcell.Button1, arbor.MouseButtonLeft},
	{tcell.Button2, arbor.MouseButtonRight},
	{tcell.Button3, arbor.MouseButtonMiddle},
}

var keyMap = map[tcell.Key]arbor.Key{
	tcell.KeyEnter:      arbor.KeyEnter,
	tcell.KeyEscape:     arbor.KeyEscape,
	tcell.KeyTab:        arbor.KeyTab,
	tcell.KeyBackspace:  arbor.KeyBackspace,
	tcell.KeyBackspace2: arbor.KeyBackspace,
	tcell.KeyDelete:     arbor.KeyDelete,
	tcell.KeyInsert:     arbor.KeyInsert,
	tcell.KeyUp:         arbor.KeyUp,
	tcell.KeyDown:       arbor.KeyDown,
	tcell.KeyLeft:       arbor.KeyLeft,
	tcell.KeyRight:      arbor.KeyRight,
	tcell.KeyHome:       arbor.KeyHome,
	tcell.KeyEnd:        arbor.KeyEnd,
	tcell.KeyPgUp:       arbor.KeyPageUp,
	tcell.KeyPgDn:       arbor.KeyPageDown,
	tcell.KeyF1:         arbor.KeyF1,
	tcell.KeyF2:         arbor.KeyF2,
	tcell.KeyF3:         arbor.KeyF3,
	tcell.KeyF4:         arbor.KeyF4,
	tcell.KeyF5:         arbor.KeyF5,
	tcell.KeyF6:         arbor.KeyF6,
	tcell.KeyF7:         arbor.KeyF7,
	tcell.KeyF8:         arbor.KeyF8,
	tcell.KeyF9:         arbor.KeyF9,
	tcell.KeyF10:        arbor.KeyF10,
	tcell.KeyF11:        arbor.KeyF11,
	tcell.KeyF12:        arbor.KeyF12,
}

func translateModifiers(m tcell.ModMask) arbor.KeyModifiers {
	var mods arbor.KeyModifiers
	if m&tcell.ModShift != 0 {
		mods |= arbor.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= arbor.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= arbor.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= arbor.ModMeta
	}
	return mods
}

// TranslateKey converts a key event. ok is false for keys with no arbor
// equivalent.
func TranslateKey(ev *tcell.EventKey) (arbor.Event, bool) {
	out := arbor.Event{Type: arbor.EventKeyPress, Modifiers: translateModifiers(ev.Modifiers())}
	if ev.Key() == tcell.KeyRune {
		out.Rune = ev.Rune()
		out.Key = arbor.KeyRune
		if out.Rune == ' ' {
			out.Key = arbor.KeySpace
		}
		return out, true
	}
	k, ok := keyMap[ev.Key()]
	if !ok {
		return arbor.Event{}, false
	}
	out.Key = k
	return out, true
}

// Translate converts one tcell event into zero or more stage events.
// Resize and other non-input events produce none.
func (t *InputTranslator) Translate(ev tcell.Event) []arbor.Event {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if out, ok := TranslateKey(ev); ok {
			return []arbor.Event{out}
		}
	case *tcell.EventMouse:
		return t.mouse(ev)
	}
	return nil
}

func (t *InputTranslator) mouse(ev *tcell.EventMouse) []arbor.Event {
	cx, cy := ev.Position()
	x, y := CellToStage(cx, cy)
	mods := translateModifiers(ev.Modifiers())
	base := arbor.Event{X: x, Y: y, Modifiers: mods}
	var out []arbor.Event

	if !t.moved || x != t.x || y != t.y {
		e := base
		e.Type = arbor.EventMotion
		out = append(out, e)
		t.x, t.y, t.moved = x, y, true
	}

	btns := ev.Buttons()
	for _, b := range buttonMap {
		was := t.buttons&b.mask != 0
		now := btns&b.mask != 0
		if was == now {
			continue
		}
		e := base
		e.Button = b.btn
		e.Type = arbor.EventButtonRelease
		if now {
			e.Type = arbor.EventButtonPress
		}
		out = append(out, e)
	}
	t.buttons = btns & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	wheel := base
	wheel.Type = arbor.EventScroll
	switch {
	case btns&tcell.WheelUp != 0:
		wheel.ScrollDY = 1
	case btns&tcell.WheelDown != 0:
		wheel.ScrollDY = -1
	case btns&tcell.WheelLeft != 0:
		wheel.ScrollDX = 1
	case btns&tcell.WheelRight != 0:
		wheel.ScrollDX = -1
	default:
		return out
	}
	return append(out, wheel)
}
