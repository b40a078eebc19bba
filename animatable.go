package arbor

import (
	"errors"
	"strings"
)

// ErrUnknownProperty is reported when a property name is not animatable on
// its target, or the target rejects the value's type.
var ErrUnknownProperty = errors.New("arbor: unknown animatable property")

// Animatable is implemented by anything a Transition can drive: actors,
// constraints, effects and user types.
type Animatable interface {
	// SetAnimatableProperty applies v and reports whether name was known
	// and v had an acceptable type.
	SetAnimatableProperty(name string, v any) bool
	// AnimatableProperty returns the current value of name.
	AnimatableProperty(name string) (any, bool)
}

// Actor properties reachable by name. Scalars are float64; the compound
// properties use the value types of this package.
//
//	x, y, width, height, opacity, rotation, z-position,
//	translation-x, translation-y, translation-z, scale-x, scale-y,
//	min-width, min-height                 float64
//	position, scale, pivot-point          Vec2
//	size, min-size                        Size
//	translation                           Vec3
//	background-color                      Color
//	margin                                Margin
//	clip                                  Box
//	visible, reactive                     bool
//
// Names of the form "@constraints.<name>.<property>" (and likewise
// "@actions" and "@effects") address a named meta of the actor.
func (a *Actor) SetAnimatableProperty(name string, v any) bool {
	if strings.HasPrefix(name, "@") {
		target, prop, ok := a.metaTarget(name)
		return ok && target.SetAnimatableProperty(prop, v)
	}
	if f, ok := toFloat(v); ok {
		return a.setScalarProperty(name, f)
	}
	switch x := v.(type) {
	case Vec2:
		switch name {
		case "position":
			a.SetPosition(x.X, x.Y)
		case "scale":
			a.SetScale(x.X, x.Y)
		case "pivot-point":
			a.SetPivotPoint(x.X, x.Y)
		default:
			return false
		}
	case Size:
		switch name {
		case "size":
			a.SetSize(x.Width, x.Height)
		case "min-size":
			a.SetMinSize(x.Width, x.Height)
		default:
			return false
		}
	case Vec3:
		if name != "translation" {
			return false
		}
		a.SetTranslation(x.X, x.Y, x.Z)
	case Color:
		if name != "background-color" {
			return false
		}
		a.SetBackgroundColor(x)
	case Margin:
		if name != "margin" {
			return false
		}
		a.SetMargin(x)
	case Box:
		if name != "clip" {
			return false
		}
		a.SetClip(x)
	case bool:
		switch name {
		case "visible":
			a.SetVisible(x)
		case "reactive":
			a.SetReactive(x)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func (a *Actor) setScalarProperty(name string, f float64) bool {
	switch name {
	case "x":
		a.SetX(f)
	case "y":
		a.SetY(f)
	case "width":
		a.SetWidth(f)
	case "height":
		a.SetHeight(f)
	case "min-width":
		a.SetMinSize(f, a.minOrUnset(a.minHeightSet, a.minSize.Height))
	case "min-height":
		a.SetMinSize(a.minOrUnset(a.minWidthSet, a.minSize.Width), f)
	case "opacity":
		a.SetOpacity(f)
	case "rotation":
		a.SetRotation(f)
	case "z-position":
		a.SetZPosition(f)
	case "translation-x":
		a.SetTranslation(f, a.translation.Y, a.translation.Z)
	case "translation-y":
		a.SetTranslation(a.translation.X, f, a.translation.Z)
	case "translation-z":
		a.SetTranslation(a.translation.X, a.translation.Y, f)
	case "scale-x":
		a.SetScale(f, a.scaleY)
	case "scale-y":
		a.SetScale(a.scaleX, f)
	default:
		return false
	}
	return true
}

func (a *Actor) minOrUnset(set bool, v float64) float64 {
	if set {
		return v
	}
	return -1
}

// AnimatableProperty returns the current value of a named property. See
// SetAnimatableProperty for the names.
func (a *Actor) AnimatableProperty(name string) (any, bool) {
	if strings.HasPrefix(name, "@") {
		target, prop, ok := a.metaTarget(name)
		if !ok {
			return nil, false
		}
		return target.AnimatableProperty(prop)
	}
	switch name {
	case "x":
		return a.Position().X, true
	case "y":
		return a.Position().Y, true
	case "width":
		return a.Width(), true
	case "height":
		return a.Height(), true
	case "min-width":
		return a.minSize.Width, true
	case "min-height":
		return a.minSize.Height, true
	case "opacity":
		return a.opacity, true
	case "rotation":
		return a.rotation, true
	case "z-position":
		return a.zPosition, true
	case "translation-x":
		return a.translation.X, true
	case "translation-y":
		return a.translation.Y, true
	case "translation-z":
		return a.translation.Z, true
	case "scale-x":
		return a.scaleX, true
	case "scale-y":
		return a.scaleY, true
	case "position":
		return a.Position(), true
	case "scale":
		return Vec2{a.scaleX, a.scaleY}, true
	case "pivot-point":
		return a.pivot, true
	case "size":
		return Size{a.Width(), a.Height()}, true
	case "min-size":
		return a.minSize, true
	case "translation":
		return a.translation, true
	case "background-color":
		return a.background, true
	case "margin":
		return a.margin, true
	case "clip":
		box, _ := a.Clip()
		return box, true
	case "visible":
		return a.visible, true
	case "reactive":
		return a.reactive, true
	}
	return nil, false
}

// metaTarget resolves "@<section>.<meta>.<property>".
func (a *Actor) metaTarget(path string) (Animatable, string, bool) {
	section, rest, ok := strings.Cut(path[1:], ".")
	if !ok {
		return nil, "", false
	}
	metaName, prop, ok := strings.Cut(rest, ".")
	if !ok || metaName == "" || prop == "" {
		return nil, "", false
	}
	var m ActorMeta
	switch section {
	case "constraints":
		m, ok = a.Constraint(metaName)
	case "actions":
		m, ok = a.Action(metaName)
	case "effects":
		m, ok = a.Effect(metaName)
	default:
		return nil, "", false
	}
	if !ok {
		return nil, "", false
	}
	target, ok := m.(Animatable)
	return target, prop, ok
}
