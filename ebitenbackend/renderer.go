// Package ebitenbackend draws arbor paint trees with Ebitengine and feeds
// Ebitengine input back into the stage.
package ebitenbackend

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// textureTTL is how many frames an unused texture stays uploaded.
const textureTTL = 120

type textureEntry struct {
	img      *ebiten.Image
	revision uint64
	lastUsed uint64
}

// Renderer turns paint trees into draw calls on an *ebiten.Image. It keeps
// uploaded textures, compiled shaders and offscreen buffers between frames,
// so one Renderer should be reused for every frame of a stage.
//
// A Renderer must only be used from Ebitengine's draw goroutine.
type Renderer struct {
	target   *ebiten.Image
	white    *ebiten.Image
	textures map[uint64]*textureEntry
	pool     targetPool
	shaders  shaderCache
	frame    uint64

	// Frame statistics.
	drawCalls int
	layers    int
	errs      []error

	imgOp    ebiten.DrawImageOptions
	shaderOp ebiten.DrawRectShaderOptions
}

// NewRenderer creates a renderer. Call SetTarget before rendering.
func NewRenderer() *Renderer {
	return &Renderer{textures: make(map[uint64]*textureEntry)}
}

// SetTarget sets the image the next RenderPaintTree draws into.
func (r *Renderer) SetTarget(dst *ebiten.Image) { r.target = dst }

// RenderPaintTree draws root into the current target. Shader compile
// failures are returned after the rest of the tree has been drawn; the
// affected layers are composited without their effect.
func (r *Renderer) RenderPaintTree(root *arbor.PaintNode) error {
	if r.target == nil {
		return errors.New("ebitenbackend: no render target")
	}
	return r.Render(r.target, root)
}

// Render draws root into dst.
func (r *Renderer) Render(dst *ebiten.Image, root *arbor.PaintNode) error {
	if root == nil {
		return nil
	}
	r.frame++
	r.drawCalls = 0
	r.layers = 0
	r.errs = r.errs[:0]
	st := drawState{
		dst:  dst,
		clip: dst.Bounds(),
	}
	r.drawNode(root, st)
	r.evictTextures()
	return errors.Join(r.errs...)
}

// DrawCalls returns the number of draw calls issued by the last frame.
func (r *Renderer) DrawCalls() int { return r.drawCalls }

// Layers returns the number of offscreen layers used by the last frame.
func (r *Renderer) Layers() int { return r.layers }

// Dispose frees every GPU resource held by the renderer.
func (r *Renderer) Dispose() {
	for k, e := range r.textures {
		e.img.Deallocate()
		delete(r.textures, k)
	}
	r.pool.dispose()
	r.shaders.dispose()
	if r.white != nil {
		r.white.Deallocate()
		r.white = nil
	}
}

// drawState is what a node inherits from its ancestors.
type drawState struct {
	dst    *ebiten.Image   // root or layer image
	geo    ebiten.GeoM     // local to dst pixels
	clip   image.Rectangle // in dst pixels
	matrix *arbor.ColorMatrix
}

func (st drawState) target() *ebiten.Image {
	return st.dst.SubImage(st.clip).(*ebiten.Image)
}

func (r *Renderer) drawNode(n *arbor.PaintNode, st drawState) {
	switch n.Kind {
	case arbor.PaintRoot:
		r.drawChildren(n, st)
	case arbor.PaintTransform:
		g := geoMFromMatrix(n.Transform)
		g.Concat(st.geo)
		st.geo = g
		r.drawChildren(n, st)
	case arbor.PaintColor:
		r.drawColor(n, st)
	case arbor.PaintTexture:
		r.drawTexture(n, st)
	case arbor.PaintClip:
		st.clip = st.clip.Intersect(pixelBounds(st.geo, n.Rect))
		if st.clip.Empty() {
			return
		}
		r.drawChildren(n, st)
	case arbor.PaintEffect:
		if n.Effect.Kind == arbor.EffectColorMatrix {
			m := n.Effect.Matrix
			if st.matrix != nil {
				m = m.Then(*st.matrix)
			}
			st.matrix = &m
		}
		r.drawChildren(n, st)
	case arbor.PaintLayer:
		r.drawLayer(n, st)
	}
}

func (r *Renderer) drawChildren(n *arbor.PaintNode, st drawState) {
	for _, c := range n.Children() {
		r.drawNode(c, st)
	}
}

func (r *Renderer) whitePixel() *ebiten.Image {
	if r.white == nil {
		r.white = ebiten.NewImage(1, 1)
		r.white.Fill(color.White)
	}
	return r.white
}

func (r *Renderer) drawColor(n *arbor.PaintNode, st drawState) {
	c := n.Color
	if st.matrix != nil {
		c = arbor.ApplyColorMatrix(*st.matrix, c)
	}
	if c.A <= 0 || n.Rect.IsEmpty() {
		return
	}
	op := &r.imgOp
	op.GeoM.Reset()
	op.GeoM.Scale(n.Rect.Width(), n.Rect.Height())
	op.GeoM.Translate(n.Rect.X1, n.Rect.Y1)
	op.GeoM.Concat(st.geo)
	op.ColorScale.Reset()
	op.ColorScale.Scale(premultiply(c))
	op.Filter = ebiten.FilterNearest
	st.target().DrawImage(r.whitePixel(), op)
	r.drawCalls++
}

func (r *Renderer) drawTexture(n *arbor.PaintNode, st drawState) {
	img := r.texture(n.Texture)
	if img == nil || n.Rect.IsEmpty() || n.Opacity <= 0 {
		return
	}
	if !n.Source.IsEmpty() {
		img = img.SubImage(image.Rect(
			int(n.Source.X1), int(n.Source.Y1),
			int(math.Ceil(n.Source.X2)), int(math.Ceil(n.Source.Y2)),
		)).(*ebiten.Image)
	}
	b := img.Bounds()
	if b.Empty() {
		return
	}
	geo := ebiten.GeoM{}
	geo.Scale(n.Rect.Width()/float64(b.Dx()), n.Rect.Height()/float64(b.Dy()))
	geo.Translate(n.Rect.X1, n.Rect.Y1)
	geo.Concat(st.geo)

	if st.matrix != nil {
		r.drawWithMatrix(st.target(), img, geo, *st.matrix, n.Opacity)
		return
	}
	op := &r.imgOp
	op.GeoM = geo
	op.ColorScale.Reset()
	op.ColorScale.ScaleAlpha(float32(n.Opacity))
	op.Filter = ebitenFilter(n.Filter)
	st.target().DrawImage(img, op)
	r.drawCalls++
}

// drawWithMatrix draws src through the color-matrix shader. src must not
// be larger than the shader's source rectangle.
func (r *Renderer) drawWithMatrix(dst, src *ebiten.Image, geo ebiten.GeoM, m arbor.ColorMatrix, alpha float64) {
	b := src.Bounds()
	op := &r.shaderOp
	*op = ebiten.DrawRectShaderOptions{}
	op.GeoM = geo
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Images[0] = src
	op.Uniforms = r.shaders.matrixUniforms(m)
	dst.DrawRectShader(b.Dx(), b.Dy(), r.shaders.colorMatrix(), op)
	r.drawCalls++
}

// drawLayer renders the children into a pooled image, applies the layer's
// effect and composites the result with the layer opacity.
func (r *Renderer) drawLayer(n *arbor.PaintNode, st drawState) {
	bounds := pixelBounds(st.geo, n.Rect).Intersect(st.clip)
	if n.Effect.Kind == arbor.EffectBlur {
		// Blur reads outside the visible part; keep the padded rectangle.
		bounds = pixelBounds(st.geo, n.Rect).Intersect(st.dst.Bounds())
	}
	if bounds.Empty() {
		return
	}
	w, h := bounds.Dx(), bounds.Dy()
	r.layers++

	buf := r.pool.acquire(w, h)
	defer r.pool.release(buf)
	inner := drawState{
		dst:  buf,
		clip: rectOf(w, h),
		geo:  st.geo,
	}
	inner.geo.Translate(-float64(bounds.Min.X), -float64(bounds.Min.Y))
	r.drawChildren(n, inner)

	result := buf.SubImage(rectOf(w, h)).(*ebiten.Image)
	matrix := st.matrix
	switch n.Effect.Kind {
	case arbor.EffectColorMatrix:
		m := n.Effect.Matrix
		if matrix != nil {
			m = m.Then(*matrix)
		}
		matrix = &m
	case arbor.EffectBlur:
		out := r.pool.acquire(w, h)
		defer r.pool.release(out)
		radius := n.Effect.Radius * geoScale(st.geo)
		kawaseBlur(result, out, radius, &r.pool)
		result = out.SubImage(rectOf(w, h)).(*ebiten.Image)
	case arbor.EffectShader:
		shader, err := r.shaders.customShader(n.Effect)
		if err != nil {
			r.errs = append(r.errs, err)
		}
		if shader != nil {
			out := r.pool.acquire(w, h)
			defer r.pool.release(out)
			op := &ebiten.DrawRectShaderOptions{}
			op.Images[0] = result
			op.Uniforms = shaderUniforms(n.Effect.Uniforms)
			out.DrawRectShader(w, h, shader, op)
			r.drawCalls++
			result = out.SubImage(rectOf(w, h)).(*ebiten.Image)
		}
	}

	var geo ebiten.GeoM
	geo.Translate(float64(bounds.Min.X), float64(bounds.Min.Y))
	dst := st.target()
	if matrix != nil {
		r.drawWithMatrix(dst, result, geo, *matrix, n.Opacity)
		return
	}
	op := &r.imgOp
	op.GeoM = geo
	op.ColorScale.Reset()
	op.ColorScale.ScaleAlpha(float32(n.Opacity))
	op.Filter = ebiten.FilterNearest
	dst.DrawImage(result, op)
	r.drawCalls++
}

// texture returns the uploaded image of src, re-uploading when the
// revision changed.
func (r *Renderer) texture(src *arbor.TextureSource) *ebiten.Image {
	if src == nil || src.Image == nil || src.Bounds().Empty() {
		return nil
	}
	e := r.textures[src.Key]
	if e == nil || e.revision != src.Revision {
		if e != nil {
			e.img.Deallocate()
		}
		e = &textureEntry{img: ebiten.NewImageFromImage(src.Image), revision: src.Revision}
		r.textures[src.Key] = e
	}
	e.lastUsed = r.frame
	return e.img
}

// evictTextures frees textures that have not been drawn for a while.
func (r *Renderer) evictTextures() {
	for k, e := range r.textures {
		if r.frame-e.lastUsed > textureTTL {
			e.img.Deallocate()
			delete(r.textures, k)
		}
	}
}

// --- Helpers ---

// geoMFromMatrix converts an arbor affine matrix to an ebiten.GeoM.
func geoMFromMatrix(m arbor.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}

// pixelBounds returns the integer pixel rectangle covering b after g.
func pixelBounds(g ebiten.GeoM, b arbor.Box) image.Rectangle {
	if b.IsEmpty() {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X1, b.Y2}, {b.X2, b.Y2}} {
		x, y := g.Apply(p[0], p[1])
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// geoScale returns the average linear scale factor of g.
func geoScale(g ebiten.GeoM) float64 {
	a, b := g.Element(0, 0), g.Element(0, 1)
	c, d := g.Element(1, 0), g.Element(1, 1)
	return math.Sqrt(math.Abs(a*d - b*c))
}

// premultiply returns the color scale for a straight-alpha color.
func premultiply(c arbor.Color) (r, g, b, a float32) {
	return float32(c.R * c.A), float32(c.G * c.A), float32(c.B * c.A), float32(c.A)
}

func ebitenFilter(f arbor.ScalingFilter) ebiten.Filter {
	if f == arbor.FilterNearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}

func rectOf(w, h int) image.Rectangle { return image.Rect(0, 0, w, h) }
