package ebitenbackend

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// Ebitengine uses premultiplied alpha; the matrix shader un-premultiplies,
// applies the matrix to straight alpha and premultiplies again. The vertex
// color carries the draw's opacity.
const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a) * color.a
}
`

// shaderCache compiles Kage sources once. The matrix shader is built in;
// custom sources are keyed by the effect's key.
type shaderCache struct {
	matrix    *ebiten.Shader
	custom    map[uint64]*ebiten.Shader
	failed    map[uint64]error
	matrixF32 [20]float32
	uniforms  map[string]any
}

func (c *shaderCache) colorMatrix() *ebiten.Shader {
	if c.matrix == nil {
		s, err := ebiten.NewShader([]byte(colorMatrixShaderSrc))
		if err != nil {
			panic("ebitenbackend: failed to compile color matrix shader: " + err.Error())
		}
		c.matrix = s
	}
	return c.matrix
}

// matrixUniforms converts m into the uniform map of the matrix shader,
// reusing one buffer.
func (c *shaderCache) matrixUniforms(m arbor.ColorMatrix) map[string]any {
	if c.uniforms == nil {
		c.uniforms = make(map[string]any, 1)
	}
	for i, v := range m {
		c.matrixF32[i] = float32(v)
	}
	c.uniforms["Matrix"] = c.matrixF32[:]
	return c.uniforms
}

// customShader returns the compiled shader of op. A source that fails to
// compile is remembered and reported once; later calls return nil, nil.
func (c *shaderCache) customShader(op arbor.EffectOp) (*ebiten.Shader, error) {
	if s, ok := c.custom[op.Key]; ok {
		return s, nil
	}
	if _, ok := c.failed[op.Key]; ok {
		return nil, nil
	}
	s, err := ebiten.NewShader([]byte(op.Shader))
	if err != nil {
		if c.failed == nil {
			c.failed = make(map[uint64]error)
		}
		err = fmt.Errorf("ebitenbackend: compile shader %d: %w", op.Key, err)
		c.failed[op.Key] = err
		return nil, err
	}
	if c.custom == nil {
		c.custom = make(map[uint64]*ebiten.Shader)
	}
	c.custom[op.Key] = s
	return s, nil
}

// shaderUniforms converts float64 values, which Kage does not accept, to
// float32.
func shaderUniforms(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case float64:
			out[k] = float32(v)
		case []float64:
			f := make([]float32, len(v))
			for i := range v {
				f[i] = float32(v[i])
			}
			out[k] = f
		case arbor.Color:
			out[k] = []float32{float32(v.R), float32(v.G), float32(v.B), float32(v.A)}
		case arbor.Vec2:
			out[k] = []float32{float32(v.X), float32(v.Y)}
		default:
			out[k] = v
		}
	}
	return out
}

func (c *shaderCache) dispose() {
	if c.matrix != nil {
		c.matrix.Deallocate()
		c.matrix = nil
	}
	for k, s := range c.custom {
		s.Deallocate()
		delete(c.custom, k)
	}
}

// blurPasses returns the number of Kawase passes for a pixel radius:
// log2(radius), at least 1.
func blurPasses(radius float64) int {
	if radius <= 1 {
		return 1
	}
	return max(1, int(math.Ceil(math.Log2(radius))))
}

// kawaseBlur blurs src into dst with iterative downscale and upscale
// passes. Bilinear filtering during DrawImage does the work.
func kawaseBlur(src, dst *ebiten.Image, radius float64, pool *targetPool) {
	var op ebiten.DrawImageOptions
	if radius <= 0 {
		dst.DrawImage(src, &op)
		return
	}
	passes := blurPasses(radius)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	temps := make([]*ebiten.Image, passes)
	defer func() {
		for _, t := range temps {
			pool.release(t)
		}
	}()

	current := src
	cw, ch := w, h
	sizes := make([][2]int, passes)
	for i := range passes {
		cw = max(cw/2, 1)
		ch = max(ch/2, 1)
		sizes[i] = [2]int{cw, ch}
		temps[i] = pool.acquire(cw, ch)
		op.GeoM.Reset()
		op.GeoM.Scale(float64(cw)/float64(current.Bounds().Dx()), float64(ch)/float64(current.Bounds().Dy()))
		op.Filter = ebiten.FilterLinear
		temps[i].DrawImage(current, &op)
		current = temps[i].SubImage(rectOf(cw, ch)).(*ebiten.Image)
	}
	for i := passes - 2; i >= 0; i-- {
		temps[i].Clear()
		tw, th := sizes[i][0], sizes[i][1]
		op.GeoM.Reset()
		op.GeoM.Scale(float64(tw)/float64(current.Bounds().Dx()), float64(th)/float64(current.Bounds().Dy()))
		op.Filter = ebiten.FilterLinear
		temps[i].DrawImage(current, &op)
		current = temps[i].SubImage(rectOf(tw, th)).(*ebiten.Image)
	}
	op.GeoM.Reset()
	op.GeoM.Scale(float64(w)/float64(current.Bounds().Dx()), float64(h)/float64(current.Bounds().Dy()))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(current, &op)
}
