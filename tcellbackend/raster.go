package tcellbackend

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/phanxgames/arbor"
)

// Raster draws paint trees into an *image.RGBA on the CPU. Stage units map
// 1:1 to pixels. Layers are separate images composited with src-over;
// color-matrix and blur effects run per pixel. Custom shader effects have
// no CPU form and composite their layer unchanged.
type Raster struct {
	dst     *image.RGBA
	stats   RasterStats
	white   image.Uniform
	scratch []*image.RGBA
}

// RasterStats counts the work done by the last Draw.
type RasterStats struct {
	Fills    int
	Textures int
	Layers   int
	Skipped  int // shader effects drawn without their effect
}

// NewRaster creates a raster of w×h pixels.
func NewRaster(w, h int) *Raster {
	r := &Raster{}
	r.Resize(w, h)
	return r
}

// Resize changes the pixel size, discarding the contents.
func (r *Raster) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	if r.dst != nil && r.dst.Rect.Dx() == w && r.dst.Rect.Dy() == h {
		return
	}
	r.dst = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Image returns the pixels of the last Draw.
func (r *Raster) Image() *image.RGBA { return r.dst }

// Stats returns counters for the last Draw.
func (r *Raster) Stats() RasterStats { return r.stats }

// Draw clears the raster to bg and paints root.
func (r *Raster) Draw(root *arbor.PaintNode, bg arbor.Color) {
	r.stats = RasterStats{}
	draw.Draw(r.dst, r.dst.Rect, image.NewUniform(toRGBA(bg)), image.Point{}, draw.Src)
	if root == nil {
		return
	}
	r.node(root, rasterState{dst: r.dst, m: arbor.IdentityMatrix, clip: r.dst.Rect})
}

type rasterState struct {
	dst    *image.RGBA
	m      arbor.Matrix
	clip   image.Rectangle
	matrix *arbor.ColorMatrix
}

func (r *Raster) node(n *arbor.PaintNode, st rasterState) {
	switch n.Kind {
	case arbor.PaintRoot:
		r.children(n, st)
	case arbor.PaintTransform:
		st.m = st.m.Mul(n.Transform)
		r.children(n, st)
	case arbor.PaintColor:
		r.fill(n, st)
	case arbor.PaintTexture:
		r.texture(n, st)
	case arbor.PaintClip:
		st.clip = st.clip.Intersect(pixelBounds(st.m, n.Rect))
		if st.clip.Empty() {
			return
		}
		r.children(n, st)
	case arbor.PaintEffect:
		if n.Effect.Kind == arbor.EffectColorMatrix {
			m := n.Effect.Matrix
			if st.matrix != nil {
				m = m.Then(*st.matrix)
			}
			st.matrix = &m
		}
		r.children(n, st)
	case arbor.PaintLayer:
		r.layer(n, st)
	}
}

func (r *Raster) children(n *arbor.PaintNode, st rasterState) {
	for _, c := range n.Children() {
		r.node(c, st)
	}
}

func (r *Raster) fill(n *arbor.PaintNode, st rasterState) {
	c := n.Color
	if st.matrix != nil {
		c = arbor.ApplyColorMatrix(*st.matrix, c)
	}
	if c.A <= 0 || n.Rect.IsEmpty() {
		return
	}
	dst := st.dst.SubImage(st.clip).(*image.RGBA)
	if dst.Rect.Empty() {
		return
	}
	// A 1×1 source stretched over the rectangle.
	m := st.m.Mul(arbor.Matrix{n.Rect.Width(), 0, 0, n.Rect.Height(), n.Rect.X1, n.Rect.Y1})
	r.white.C = toRGBA(c)
	draw.NearestNeighbor.Transform(dst, aff3(m), &r.white, image.Rect(0, 0, 1, 1), draw.Over, nil)
	r.stats.Fills++
}

func (r *Raster) texture(n *arbor.PaintNode, st rasterState) {
	if n.Texture == nil || n.Texture.Image == nil || n.Rect.IsEmpty() || n.Opacity <= 0 {
		return
	}
	src := n.Texture.Image
	sr := src.Bounds()
	if !n.Source.IsEmpty() {
		sr = image.Rect(
			sr.Min.X+int(n.Source.X1), sr.Min.Y+int(n.Source.Y1),
			sr.Min.X+int(math.Ceil(n.Source.X2)), sr.Min.Y+int(math.Ceil(n.Source.Y2)),
		).Intersect(sr)
	}
	if sr.Empty() {
		return
	}
	m := st.m.Mul(arbor.Matrix{
		n.Rect.Width() / float64(sr.Dx()), 0, 0, n.Rect.Height() / float64(sr.Dy()),
		n.Rect.X1 - float64(sr.Min.X)*n.Rect.Width()/float64(sr.Dx()),
		n.Rect.Y1 - float64(sr.Min.Y)*n.Rect.Height()/float64(sr.Dy()),
	})
	var interp draw.Transformer = draw.ApproxBiLinear
	if n.Filter == arbor.FilterNearest {
		interp = draw.NearestNeighbor
	}
	var opts *draw.Options
	if n.Opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(n.Opacity * 0xffff)})}
	}
	r.stats.Textures++

	if st.matrix == nil {
		dst := st.dst.SubImage(st.clip).(*image.RGBA)
		interp.Transform(dst, aff3(m), src, sr, draw.Over, opts)
		return
	}
	bounds := pixelBounds(m, arbor.Box{X1: float64(sr.Min.X), Y1: float64(sr.Min.Y), X2: float64(sr.Max.X), Y2: float64(sr.Max.Y)}).Intersect(st.clip)
	if bounds.Empty() {
		return
	}
	tmp := r.acquire(bounds)
	defer r.release(tmp)
	interp.Transform(tmp, aff3(m), src, sr, draw.Over, opts)
	applyColorMatrix(tmp, *st.matrix)
	draw.Draw(st.dst, bounds, tmp, bounds.Min, draw.Over)
}

// layer paints the children into a separate image, applies the layer's
// effect and composites the result with the layer opacity.
func (r *Raster) layer(n *arbor.PaintNode, st rasterState) {
	full := pixelBounds(st.m, n.Rect).Intersect(st.dst.Rect)
	bounds := full.Intersect(st.clip)
	if n.Effect.Kind == arbor.EffectBlur {
		// Blur reads outside the visible part.
		bounds = full
	}
	if bounds.Empty() || n.Opacity <= 0 {
		return
	}
	r.stats.Layers++
	tmp := r.acquire(bounds)
	defer r.release(tmp)
	r.children(n, rasterState{dst: tmp, m: st.m, clip: bounds})

	matrix := st.matrix
	switch n.Effect.Kind {
	case arbor.EffectColorMatrix:
		m := n.Effect.Matrix
		if matrix != nil {
			m = m.Then(*matrix)
		}
		matrix = &m
	case arbor.EffectBlur:
		boxBlur(tmp, int(math.Round(n.Effect.Radius*matrixScale(st.m))))
	case arbor.EffectShader:
		r.stats.Skipped++
	}
	if matrix != nil {
		applyColorMatrix(tmp, *matrix)
	}
	out := bounds.Intersect(st.clip)
	if n.Opacity >= 1 {
		draw.Draw(st.dst, out, tmp, out.Min, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha16{A: uint16(n.Opacity * 0xffff)})
	draw.DrawMask(st.dst, out, tmp, out.Min, mask, image.Point{}, draw.Over)
}

// acquire returns a transparent image covering bounds.
func (r *Raster) acquire(bounds image.Rectangle) *image.RGBA {
	if n := len(r.scratch); n > 0 {
		img := r.scratch[n-1]
		r.scratch = r.scratch[:n-1]
		if cap(img.Pix) >= 4*bounds.Dx()*bounds.Dy() {
			img.Pix = img.Pix[:4*bounds.Dx()*bounds.Dy()]
			clear(img.Pix)
			img.Rect = bounds
			img.Stride = 4 * bounds.Dx()
			return img
		}
	}
	return image.NewRGBA(bounds)
}

func (r *Raster) release(img *image.RGBA) { r.scratch = append(r.scratch, img) }

// --- Pixel operations ---

// applyColorMatrix transforms every pixel of img in place.
func applyColorMatrix(img *image.RGBA, m arbor.ColorMatrix) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3]) / 255
		if a == 0 && m[19] == 0 {
			continue
		}
		var c arbor.Color
		if a > 0 {
			c = arbor.Color{
				R: float64(img.Pix[i]) / 255 / a,
				G: float64(img.Pix[i+1]) / 255 / a,
				B: float64(img.Pix[i+2]) / 255 / a,
				A: a,
			}
		}
		out := toRGBA(arbor.ApplyColorMatrix(m, c))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = out.R, out.G, out.B, out.A
	}
}

// boxBlur approximates a gaussian of the given radius with three box
// passes per axis. img is premultiplied, so averaging is exact.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	box := max(1, radius/2)
	tmp := make([]uint8, len(img.Pix))
	for range 3 {
		blurLine(img.Pix, tmp, w, h, 4, img.Stride, box)
		blurLine(tmp, img.Pix, h, w, img.Stride, 4, box)
	}
}

// blurLine runs a moving-average along n lines of length l. step is the
// byte distance between neighbors on a line, lineStep between lines.
func blurLine(src, dst []uint8, l, n, step, lineStep, r int) {
	window := float64(2*r + 1)
	for j := 0; j < n; j++ {
		base := j * lineStep
		for ch := 0; ch < 4; ch++ {
			at := func(i int) int {
				i = min(max(i, 0), l-1)
				return int(src[base+i*step+ch])
			}
			sum := 0
			for i := -r; i <= r; i++ {
				sum += at(i)
			}
			for i := 0; i < l; i++ {
				dst[base+i*step+ch] = uint8(float64(sum)/window + 0.5)
				sum += at(i+r+1) - at(i-r)
			}
		}
	}
}

// --- Helpers ---

func aff3(m arbor.Matrix) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// pixelBounds returns the pixel rectangle covering b after m.
func pixelBounds(m arbor.Matrix, b arbor.Box) image.Rectangle {
	if b.IsEmpty() {
		return image.Rectangle{}
	}
	t := m.TransformBox(b)
	return image.Rect(int(math.Floor(t.X1)), int(math.Floor(t.Y1)), int(math.Ceil(t.X2)), int(math.Ceil(t.Y2)))
}

func matrixScale(m arbor.Matrix) float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// toRGBA converts a straight-alpha color to premultiplied 8-bit.
func toRGBA(c arbor.Color) color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
