package arbor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode is wrapped by every image decoding failure.
var ErrDecode = errors.New("arbor: cannot decode image")

// ImageContent displays a bitmap. An image that failed to load records the
// error in Err and behaves as empty content: zero preferred size and
// nothing painted.
type ImageContent struct {
	tex    *TextureSource
	format string
	err    error
}

// NewImageContent wraps an already decoded image.
func NewImageContent(img image.Image) *ImageContent {
	c := &ImageContent{}
	if img != nil {
		c.tex = NewTextureSource(img)
	}
	return c
}

// DecodeImageContent decodes PNG, JPEG, GIF, BMP or WebP data.
func DecodeImageContent(r io.Reader) *ImageContent {
	img, format, err := image.Decode(r)
	if err != nil {
		return &ImageContent{err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	c := NewImageContent(img)
	c.format = format
	return c
}

// DecodeImageBytes decodes an in-memory image.
func DecodeImageBytes(data []byte) *ImageContent {
	return DecodeImageContent(bytes.NewReader(data))
}

// LoadImageContent reads and decodes a file from fsys. Open failures are
// recorded like decode failures.
func LoadImageContent(fsys fs.FS, name string) *ImageContent {
	f, err := fsys.Open(name)
	if err != nil {
		return &ImageContent{err: fmt.Errorf("load %s: %w", name, err)}
	}
	defer f.Close()
	c := DecodeImageContent(f)
	if c.err != nil {
		c.err = fmt.Errorf("load %s: %w", name, c.err)
	}
	return c
}

// Err returns the load error, or nil.
func (c *ImageContent) Err() error { return c.err }

// Format returns the name of the decoder that read the image, if any.
func (c *ImageContent) Format() string { return c.format }

// Image returns the bitmap, or nil when empty.
func (c *ImageContent) Image() image.Image {
	if c.tex == nil {
		return nil
	}
	return c.tex.Image
}

// Texture returns the texture source painted by the content.
func (c *ImageContent) Texture() *TextureSource { return c.tex }

// SetImage replaces the bitmap and clears any load error. Call
// ContentRef.InvalidateSize afterwards if the content is attached.
func (c *ImageContent) SetImage(img image.Image) {
	c.err = nil
	if img == nil {
		c.tex = nil
		return
	}
	if c.tex == nil {
		c.tex = NewTextureSource(img)
		return
	}
	c.tex.Update(img)
}

func (c *ImageContent) PreferredSize() (float64, float64, bool) {
	if c.err != nil || c.tex == nil {
		return 0, 0, true
	}
	b := c.tex.Bounds()
	return float64(b.Dx()), float64(b.Dy()), true
}

func (c *ImageContent) PaintContent(a *Actor, parent *PaintNode) {
	if c.err != nil || c.tex == nil {
		return
	}
	box := a.ContentBox()
	if box.IsEmpty() {
		return
	}
	parent.AddTextureRectangle(c.tex, box, a.contentFilter)
}
