package arbor

import "math"

// EffectKind selects the operation a renderer performs for an effect node.
type EffectKind uint8

const (
	EffectNone        EffectKind = iota // plain group or opacity layer
	EffectColorMatrix                   // per-pixel 4x5 color matrix
	EffectBlur                          // blur of the composited layer
	EffectShader                        // custom fragment shader over the layer
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectColorMatrix:
		return "color-matrix"
	case EffectBlur:
		return "blur"
	case EffectShader:
		return "shader"
	default:
		return "unknown"
	}
}

// EffectOp is the renderer-facing description of an effect.
type EffectOp struct {
	Kind     EffectKind
	Matrix   ColorMatrix    // EffectColorMatrix
	Radius   float64        // EffectBlur
	Shader   string         // EffectShader: Kage source
	Uniforms map[string]any // EffectShader
	Key      uint64         // EffectShader: stable identity for compiled-shader caches
}

// Effect alters how an actor's subtree is painted. Effects wrap the
// subtree in attachment order, the first one innermost.
type Effect interface {
	ActorMeta
	// Op describes the operation for the renderer.
	Op() EffectOp
	// Padding is how far, in local units, the effect may draw past the
	// subtree's paint volume.
	Padding() float64
	// NeedsOffscreen reports whether the effect must see the subtree
	// composited into one image. Effects that can be applied to each
	// primitive independently answer false when the actor has no
	// overlaps.
	NeedsOffscreen(a *Actor) bool
}

// HasOverlaps reports whether the things an actor draws (background,
// content, children) can overlap each other, which makes per-primitive
// opacity and color effects differ from applying them to the composited
// result. It depends only on the actor's structure, never on pixels.
func (a *Actor) HasOverlaps() bool {
	n := a.nChildren
	if a.backgroundSet && a.background.A > 0 {
		n++
	}
	if a.content != nil {
		n++
	}
	return n > 1
}

// --- Color matrices ---

// ColorMatrix is a row-major 4x5 matrix applied to straight-alpha RGBA:
// each output channel is a weighted sum of R, G, B, A plus an offset.
type ColorMatrix [20]float64

// IdentityColorMatrix leaves colors unchanged.
var IdentityColorMatrix = ColorMatrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// Luminance weights (ITU-R BT.601).
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// SaturationMatrix scales saturation: 1 is unchanged, 0 is grayscale.
func SaturationMatrix(s float64) ColorMatrix {
	sr := (1 - s) * lumR
	sg := (1 - s) * lumG
	sb := (1 - s) * lumB
	return ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix adds b, in [-1, 1], to every color channel.
func BrightnessMatrix(b float64) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales contrast around mid-gray: 1 is unchanged, 0 is flat
// gray.
func ContrastMatrix(c float64) ColorMatrix {
	t := (1 - c) / 2
	return ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// ColorizeMatrix replaces hue with tint, keeping luminance.
func ColorizeMatrix(tint Color) ColorMatrix {
	return ColorMatrix{
		lumR * tint.R, lumG * tint.R, lumB * tint.R, 0, 0,
		lumR * tint.G, lumG * tint.G, lumB * tint.G, 0, 0,
		lumR * tint.B, lumG * tint.B, lumB * tint.B, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Then returns the matrix applying m first and n second.
func (m ColorMatrix) Then(n ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			v := 0.0
			for k := 0; k < 4; k++ {
				v += n[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				v += n[row*5+4]
			}
			out[row*5+col] = v
		}
	}
	return out
}

// ApplyColorMatrix transforms one color and clamps the result to [0, 1].
func ApplyColorMatrix(m ColorMatrix, c Color) Color {
	in := [4]float64{c.R, c.G, c.B, c.A}
	var out [4]float64
	for row := 0; row < 4; row++ {
		v := m[row*5+4]
		for k := 0; k < 4; k++ {
			v += m[row*5+k] * in[k]
		}
		out[row] = clamp01(v)
	}
	return Color{out[0], out[1], out[2], out[3]}
}

// colorMatrixEffect is shared by the effects that reduce to a matrix. They
// run inline unless the actor has overlaps.
type colorMatrixEffect struct {
	Meta
}

func (colorMatrixEffect) Padding() float64 { return 0 }

func (colorMatrixEffect) NeedsOffscreen(a *Actor) bool { return a.HasOverlaps() }

func (e *colorMatrixEffect) changed() {
	if e.actor != nil {
		e.actor.QueueRedraw()
	}
}

// --- DesaturateEffect ---

// DesaturateEffect removes color. Factor 1 is fully gray, 0 leaves colors
// unchanged. Animatable property: "factor".
type DesaturateEffect struct {
	colorMatrixEffect
	factor float64
}

func NewDesaturateEffect(factor float64) *DesaturateEffect {
	return &DesaturateEffect{factor: clamp01(factor)}
}

func (e *DesaturateEffect) Factor() float64 { return e.factor }

func (e *DesaturateEffect) SetFactor(f float64) {
	e.factor = clamp01(f)
	e.changed()
}

func (e *DesaturateEffect) Op() EffectOp {
	return EffectOp{Kind: EffectColorMatrix, Matrix: SaturationMatrix(1 - e.factor)}
}

func (e *DesaturateEffect) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "factor" || !ok {
		return false
	}
	e.SetFactor(f)
	return true
}

func (e *DesaturateEffect) AnimatableProperty(name string) (any, bool) {
	if name == "factor" {
		return e.factor, true
	}
	return nil, false
}

// --- ColorizeEffect ---

// ColorizeEffect tints the subtree, keeping luminance. Animatable property:
// "tint".
type ColorizeEffect struct {
	colorMatrixEffect
	tint Color
}

func NewColorizeEffect(tint Color) *ColorizeEffect { return &ColorizeEffect{tint: tint} }

func (e *ColorizeEffect) Tint() Color { return e.tint }

func (e *ColorizeEffect) SetTint(c Color) {
	e.tint = c
	e.changed()
}

func (e *ColorizeEffect) Op() EffectOp {
	return EffectOp{Kind: EffectColorMatrix, Matrix: ColorizeMatrix(e.tint)}
}

func (e *ColorizeEffect) SetAnimatableProperty(name string, v any) bool {
	c, ok := v.(Color)
	if name != "tint" || !ok {
		return false
	}
	e.SetTint(c)
	return true
}

func (e *ColorizeEffect) AnimatableProperty(name string) (any, bool) {
	if name == "tint" {
		return e.tint, true
	}
	return nil, false
}

// --- BrightnessContrastEffect ---

// BrightnessContrastEffect adjusts brightness (an offset, 0 unchanged) and
// contrast (a factor, 1 unchanged). Animatable properties: "brightness",
// "contrast".
type BrightnessContrastEffect struct {
	colorMatrixEffect
	brightness float64
	contrast   float64
}

func NewBrightnessContrastEffect(brightness, contrast float64) *BrightnessContrastEffect {
	return &BrightnessContrastEffect{brightness: brightness, contrast: contrast}
}

func (e *BrightnessContrastEffect) Brightness() float64 { return e.brightness }
func (e *BrightnessContrastEffect) Contrast() float64   { return e.contrast }

func (e *BrightnessContrastEffect) SetBrightness(b float64) {
	e.brightness = math.Max(-1, math.Min(1, b))
	e.changed()
}

func (e *BrightnessContrastEffect) SetContrast(c float64) {
	e.contrast = math.Max(0, c)
	e.changed()
}

func (e *BrightnessContrastEffect) Op() EffectOp {
	return EffectOp{
		Kind:   EffectColorMatrix,
		Matrix: BrightnessMatrix(e.brightness).Then(ContrastMatrix(e.contrast)),
	}
}

func (e *BrightnessContrastEffect) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if !ok {
		return false
	}
	switch name {
	case "brightness":
		e.SetBrightness(f)
	case "contrast":
		e.SetContrast(f)
	default:
		return false
	}
	return true
}

func (e *BrightnessContrastEffect) AnimatableProperty(name string) (any, bool) {
	switch name {
	case "brightness":
		return e.brightness, true
	case "contrast":
		return e.contrast, true
	}
	return nil, false
}

// --- BlurEffect ---

// BlurEffect blurs the composited subtree. It always renders offscreen.
// Animatable property: "radius".
type BlurEffect struct {
	Meta
	radius float64
}

func NewBlurEffect(radius float64) *BlurEffect { return &BlurEffect{radius: math.Max(0, radius)} }

func (e *BlurEffect) Radius() float64 { return e.radius }

func (e *BlurEffect) SetRadius(r float64) {
	e.radius = math.Max(0, r)
	if e.actor != nil {
		e.actor.QueueRedraw()
	}
}

func (e *BlurEffect) Op() EffectOp               { return EffectOp{Kind: EffectBlur, Radius: e.radius} }
func (e *BlurEffect) Padding() float64           { return e.radius }
func (e *BlurEffect) NeedsOffscreen(*Actor) bool { return true }

func (e *BlurEffect) SetAnimatableProperty(name string, v any) bool {
	f, ok := toFloat(v)
	if name != "radius" || !ok {
		return false
	}
	e.SetRadius(f)
	return true
}

func (e *BlurEffect) AnimatableProperty(name string) (any, bool) {
	if name == "radius" {
		return e.radius, true
	}
	return nil, false
}

// --- ShaderEffect ---

// ShaderEffect runs a custom fragment shader over the composited subtree.
// The source is renderer specific (Kage for the Ebitengine backend; the
// terminal backend ignores shaders). Every uniform is an animatable
// property of the same name.
type ShaderEffect struct {
	Meta
	source   string
	uniforms map[string]any
	padding  float64
	key      uint64
}

// NewShaderEffect creates an effect for the given shader source.
func NewShaderEffect(source string) *ShaderEffect {
	return &ShaderEffect{source: source, uniforms: map[string]any{}, key: textureKeys.Add(1)}
}

func (e *ShaderEffect) Source() string { return e.source }

// SetUniform sets a shader uniform.
func (e *ShaderEffect) SetUniform(name string, v any) {
	e.uniforms[name] = v
	if e.actor != nil {
		e.actor.QueueRedraw()
	}
}

// Uniform returns a uniform value.
func (e *ShaderEffect) Uniform(name string) (any, bool) {
	v, ok := e.uniforms[name]
	return v, ok
}

// SetPadding declares how far the shader draws past its input.
func (e *ShaderEffect) SetPadding(p float64) { e.padding = math.Max(0, p) }

func (e *ShaderEffect) Padding() float64           { return e.padding }
func (e *ShaderEffect) NeedsOffscreen(*Actor) bool { return true }

func (e *ShaderEffect) Op() EffectOp {
	u := make(map[string]any, len(e.uniforms))
	for k, v := range e.uniforms {
		u[k] = v
	}
	return EffectOp{Kind: EffectShader, Shader: e.source, Uniforms: u, Key: e.key}
}

func (e *ShaderEffect) SetAnimatableProperty(name string, v any) bool {
	if _, ok := e.uniforms[name]; !ok {
		return false
	}
	e.SetUniform(name, v)
	return true
}

func (e *ShaderEffect) AnimatableProperty(name string) (any, bool) {
	return e.Uniform(name)
}
