package arbor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// CanvasContent is content drawn by a callback into an RGBA buffer. The
// callback runs on the first paint and again after every
// ContentRef.Invalidate, never during layout.
type CanvasContent struct {
	width, height int
	draw          func(c *Canvas)
	tex           *TextureSource
	dirty         bool
}

// NewCanvasContent creates a w×h canvas painted by fn.
func NewCanvasContent(w, h int, fn func(c *Canvas)) *CanvasContent {
	return &CanvasContent{width: max(w, 0), height: max(h, 0), draw: fn, dirty: true}
}

// Size returns the buffer size in pixels.
func (c *CanvasContent) Size() (w, h int) { return c.width, c.height }

// SetSize resizes the buffer. Call ContentRef.InvalidateSize afterwards if
// the content is attached.
func (c *CanvasContent) SetSize(w, h int) {
	c.width, c.height = max(w, 0), max(h, 0)
	c.dirty = true
}

// SetDrawFunc replaces the callback.
func (c *CanvasContent) SetDrawFunc(fn func(c *Canvas)) {
	c.draw = fn
	c.dirty = true
}

func (c *CanvasContent) PreferredSize() (float64, float64, bool) {
	return float64(c.width), float64(c.height), true
}

func (c *CanvasContent) PaintContent(a *Actor, parent *PaintNode) {
	if c.width == 0 || c.height == 0 {
		return
	}
	if c.dirty || c.tex == nil {
		c.redraw()
	}
	box := a.ContentBox()
	if box.IsEmpty() {
		return
	}
	parent.AddTextureRectangle(c.tex, box, a.contentFilter)
}

func (c *CanvasContent) contentInvalidated() { c.dirty = true }

// ReleaseContent frees the buffer; it is rebuilt if the canvas is shown
// again.
func (c *CanvasContent) ReleaseContent() {
	c.tex = nil
	c.dirty = true
}

// Raster draws the canvas immediately and returns the buffer.
func (c *CanvasContent) Raster() *image.RGBA {
	if c.dirty || c.tex == nil {
		c.redraw()
	}
	img, _ := c.tex.Image.(*image.RGBA)
	return img
}

func (c *CanvasContent) redraw() {
	var img *image.RGBA
	if c.tex != nil {
		if old, ok := c.tex.Image.(*image.RGBA); ok && old.Rect.Dx() == c.width && old.Rect.Dy() == c.height {
			img = old
			clear(img.Pix)
		}
	}
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	}
	if c.draw != nil {
		c.draw(&Canvas{Image: img})
	}
	if c.tex == nil {
		c.tex = NewTextureSource(img)
	} else {
		c.tex.Update(img)
	}
	c.dirty = false
}

// Canvas is the drawing surface handed to a CanvasContent callback. Shapes
// are anti-aliased and composited source-over.
type Canvas struct {
	Image *image.RGBA
	ras   *vector.Rasterizer
}

// Width returns the surface width in pixels.
func (c *Canvas) Width() int { return c.Image.Rect.Dx() }

// Height returns the surface height in pixels.
func (c *Canvas) Height() int { return c.Image.Rect.Dy() }

func (c *Canvas) rasterizer() *vector.Rasterizer {
	w, h := c.Width(), c.Height()
	if c.ras == nil {
		c.ras = vector.NewRasterizer(w, h)
	} else {
		c.ras.Reset(w, h)
	}
	c.ras.DrawOp = draw.Over
	return c.ras
}

func (c *Canvas) fill(col Color) {
	src := image.NewUniform(toNRGBA(col))
	c.ras.Draw(c.Image, c.Image.Bounds(), src, image.Point{})
}

// Clear replaces every pixel with col.
func (c *Canvas) Clear(col Color) {
	draw.Draw(c.Image, c.Image.Bounds(), image.NewUniform(toNRGBA(col)), image.Point{}, draw.Src)
}

// FillRect fills an axis-aligned rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, col Color) {
	c.FillPolygon([]Vec2{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, col)
}

// FillPolygon fills a closed polygon using the non-zero winding rule.
func (c *Canvas) FillPolygon(points []Vec2, col Color) {
	if len(points) < 3 {
		return
	}
	r := c.rasterizer()
	r.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, p := range points[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	c.fill(col)
}

// FillCircle fills a circle approximated by four cubic curves.
func (c *Canvas) FillCircle(cx, cy, radius float64, col Color) {
	c.FillEllipse(cx, cy, radius, radius, col)
}

// FillEllipse fills an axis-aligned ellipse.
func (c *Canvas) FillEllipse(cx, cy, rx, ry float64, col Color) {
	if rx <= 0 || ry <= 0 {
		return
	}
	const k = 0.5522847498 // cubic approximation of a quarter circle
	ox, oy := float32(rx*k), float32(ry*k)
	x, y := float32(cx), float32(cy)
	fx, fy := float32(rx), float32(ry)
	r := c.rasterizer()
	r.MoveTo(x+fx, y)
	r.CubeTo(x+fx, y+oy, x+ox, y+fy, x, y+fy)
	r.CubeTo(x-ox, y+fy, x-fx, y+oy, x-fx, y)
	r.CubeTo(x-fx, y-oy, x-ox, y-fy, x, y-fy)
	r.CubeTo(x+ox, y-fy, x+fx, y-oy, x+fx, y)
	r.ClosePath()
	c.fill(col)
}

// StrokeLine draws a line segment of the given width.
func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float64, col Color) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 || width <= 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	c.FillPolygon([]Vec2{
		{x0 + nx, y0 + ny},
		{x1 + nx, y1 + ny},
		{x1 - nx, y1 - ny},
		{x0 - nx, y0 - ny},
	}, col)
}

// toNRGBA converts a straight-alpha Color to an 8-bit color.
func toNRGBA(c Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}
