package arbor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// --- ImageContent ---

func TestDecodeImageContent(t *testing.T) {
	c := DecodeImageBytes(pngBytes(t, 20, 10))
	if c.Err() != nil {
		t.Fatalf("Err = %v", c.Err())
	}
	if c.Format() != "png" {
		t.Errorf("Format = %q, want png", c.Format())
	}
	w, h, ok := c.PreferredSize()
	if !ok || w != 20 || h != 10 {
		t.Errorf("PreferredSize = (%v, %v, %v), want (20, 10, true)", w, h, ok)
	}
}

func TestDecodeImageContentError(t *testing.T) {
	c := DecodeImageBytes([]byte("not an image"))
	if !errors.Is(c.Err(), ErrDecode) {
		t.Fatalf("Err = %v, want ErrDecode", c.Err())
	}
	w, h, ok := c.PreferredSize()
	if !ok || w != 0 || h != 0 {
		t.Errorf("PreferredSize = (%v, %v, %v), want (0, 0, true)", w, h, ok)
	}

	s := paintStage(100, 100)
	a := NewActor("broken")
	a.SetSize(10, 10)
	a.SetContent(c)
	s.AddChild(a)
	if tree := s.Paint(); !tree.IsEmpty() {
		t.Errorf("failed image should paint nothing:\n%s", dumpString(tree))
	}
}

func TestImageContentSetImageClearsError(t *testing.T) {
	c := DecodeImageBytes(nil)
	c.SetImage(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	if c.Err() != nil {
		t.Errorf("Err = %v after SetImage", c.Err())
	}
	rev := c.Texture().Revision
	c.SetImage(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	if c.Texture().Revision != rev+1 {
		t.Error("SetImage on a loaded image should bump the revision")
	}
}

func TestImageContentPaintsTexture(t *testing.T) {
	s := paintStage(100, 100)
	a := NewActor("img")
	a.SetSize(40, 40)
	a.SetOpacity(0.5)
	a.SetContentGravity(GravityCenter)
	a.SetContentScalingFilter(FilterNearest)
	a.SetContent(NewImageContent(image.NewRGBA(image.Rect(0, 0, 20, 10))))
	s.AddChild(a)

	tex := collect(s.Paint(), PaintTexture)
	if len(tex) != 1 {
		t.Fatalf("textures = %d, want 1", len(tex))
	}
	assertBox(t, "content box", tex[0].Rect, Box{10, 15, 30, 25})
	if tex[0].Opacity != 0.5 || tex[0].Filter != FilterNearest || tex[0].Actor != a {
		t.Errorf("texture = %s filter=%v", tex[0].describe(), tex[0].Filter)
	}
}

func TestGravityBox(t *testing.T) {
	tests := []struct {
		g    ContentGravity
		want Box
	}{
		{GravityResizeFill, Box{0, 0, 100, 50}},
		{GravityResizeAspect, Box{25, 0, 75, 50}},
		{GravityCenter, Box{40, 20, 60, 30}},
		{GravityTopLeft, Box{0, 0, 20, 10}},
		{GravityTop, Box{40, 0, 60, 10}},
		{GravityTopRight, Box{80, 0, 100, 10}},
		{GravityLeft, Box{0, 20, 20, 30}},
		{GravityRight, Box{80, 20, 100, 30}},
		{GravityBottomLeft, Box{0, 40, 20, 50}},
		{GravityBottom, Box{40, 40, 60, 50}},
		{GravityBottomRight, Box{80, 40, 100, 50}},
	}
	for _, tt := range tests {
		assertBox(t, "gravity", gravityBox(tt.g, 100, 50, 20, 10), tt.want)
	}
}

func TestContentWithoutPreferredSizeFills(t *testing.T) {
	a := allocated(NewActor("a"), Box{0, 0, 30, 20})
	a.SetContent(NewColorContent(ColorWhite))
	a.SetContentGravity(GravityCenter)
	assertBox(t, "content box", a.ContentBox(), Box{0, 0, 30, 20})
}

// --- ContentRef ---

type releaseCounter struct {
	ColorContent
	attached, detached, released int
}

func (c *releaseCounter) Attached(*Actor)  { c.attached++ }
func (c *releaseCounter) Detached(*Actor)  { c.detached++ }
func (c *releaseCounter) ReleaseContent() { c.released++ }

func TestContentRefSharing(t *testing.T) {
	content := &releaseCounter{ColorContent: ColorContent{Color: ColorWhite}}
	ref := NewContentRef(content)
	a, b := NewActor("a"), NewActor("b")
	a.SetContentRef(ref)
	b.SetContentRef(ref)

	if ref.Refs() != 2 || len(ref.Actors()) != 2 || content.attached != 2 {
		t.Fatalf("refs = %d actors = %d attached = %d", ref.Refs(), len(ref.Actors()), content.attached)
	}
	if a.Content() != Content(content) || a.ContentRef() != ref {
		t.Error("actor should expose the shared content")
	}

	a.Destroy()
	if ref.Refs() != 1 || content.released != 0 {
		t.Errorf("after first destroy: refs = %d released = %d", ref.Refs(), content.released)
	}
	b.SetContent(nil)
	if ref.Refs() != 0 || content.released != 1 || content.detached != 2 {
		t.Errorf("after last detach: refs = %d released = %d detached = %d",
			ref.Refs(), content.released, content.detached)
	}
}

func TestContentRefRetainKeepsAlive(t *testing.T) {
	content := &releaseCounter{}
	ref := NewContentRef(content).Retain()
	a := NewActor("a")
	a.SetContentRef(ref)
	a.SetContentRef(nil)
	if content.released != 0 {
		t.Fatal("retained content should not be released")
	}
	ref.Release()
	if content.released != 1 {
		t.Error("Release of the last reference should release the content")
	}
}

func TestContentRefMisusePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil content", func() { NewContentRef(nil) }},
		{"unbalanced release", func() { NewContentRef(&ColorContent{}).Release() }},
		{"retain released", func() {
			r := NewContentRef(&ColorContent{}).Retain()
			r.Release()
			r.Retain()
		}},
		{"attach released", func() {
			r := NewContentRef(&ColorContent{}).Retain()
			r.Release()
			NewActor("a").SetContentRef(r)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestContentRefInvalidate(t *testing.T) {
	s := paintStage(100, 100)
	a := NewActor("a")
	a.SetSize(10, 10)
	ref := NewContentRef(NewColorContent(ColorWhite))
	a.SetContentRef(ref)
	s.AddChild(a)
	s.Paint()

	rev := ref.Revision()
	ref.Invalidate()
	if ref.Revision() != rev+1 {
		t.Error("Invalidate should bump the revision")
	}
	if !s.NeedsRedraw() {
		t.Error("Invalidate should queue a redraw")
	}
	s.Paint()
	ref.InvalidateSize()
	if !a.NeedsRelayout() {
		t.Error("InvalidateSize should queue a relayout")
	}
}

// --- CanvasContent ---

func TestCanvasContentDrawsLazily(t *testing.T) {
	calls := 0
	canvas := NewCanvasContent(8, 8, func(c *Canvas) {
		calls++
		c.FillRect(0, 0, 8, 8, Color{1, 0, 0, 1})
	})
	s := paintStage(100, 100)
	a := NewActor("canvas")
	ref := NewContentRef(canvas)
	a.SetContentRef(ref)
	s.AddChild(a)

	if calls != 0 {
		t.Fatal("canvas should not draw before the first paint")
	}
	s.Paint()
	s.Paint()
	if calls != 1 {
		t.Errorf("draw calls = %d, want 1", calls)
	}
	if a.Width() != 8 || a.Height() != 8 {
		t.Errorf("size = %vx%v, want the canvas size", a.Width(), a.Height())
	}
	got := canvas.Raster().RGBAAt(4, 4)
	if got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}

	ref.Invalidate()
	s.Paint()
	if calls != 2 {
		t.Errorf("draw calls after Invalidate = %d, want 2", calls)
	}
}

func TestCanvasShapes(t *testing.T) {
	canvas := NewCanvasContent(20, 20, func(c *Canvas) {
		c.Clear(ColorBlack)
		c.FillCircle(10, 10, 5, ColorWhite)
		c.StrokeLine(0, 19, 19, 19, 2, Color{0, 0, 1, 1})
	})
	img := canvas.Raster()
	if c := img.RGBAAt(10, 10); c.R != 0xff || c.G != 0xff {
		t.Errorf("circle center = %v, want white", c)
	}
	if c := img.RGBAAt(1, 1); c != (color.RGBA{A: 0xff}) {
		t.Errorf("corner = %v, want black", c)
	}
	if c := img.RGBAAt(10, 19); c.B < 0x80 {
		t.Errorf("line pixel = %v, want blue", c)
	}
}

func TestCanvasReleaseFreesBuffer(t *testing.T) {
	canvas := NewCanvasContent(4, 4, nil)
	canvas.Raster()
	canvas.ReleaseContent()
	if canvas.tex != nil {
		t.Error("ReleaseContent should drop the texture")
	}
	if canvas.Raster() == nil {
		t.Error("Raster should rebuild a released canvas")
	}
}

// --- AssetLoader ---

func assetFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"a.png":   {Data: pngBytes(t, 3, 2)},
		"b.png":   {Data: pngBytes(t, 5, 5)},
		"bad.png": {Data: []byte("garbage")},
	}
}

func TestAssetLoaderLoadAll(t *testing.T) {
	l := NewAssetLoader(assetFS(t))
	l.SetLimit(1)
	res, err := l.LoadAll(context.Background(), []string{"a.png", "b.png", "bad.png", "missing.png"})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(res) != 4 {
		t.Fatalf("results = %d, want 4", len(res))
	}
	if w, h, _ := res["a.png"].PreferredSize(); w != 3 || h != 2 {
		t.Errorf("a.png = %vx%v", w, h)
	}
	if !errors.Is(res["bad.png"].Err(), ErrDecode) {
		t.Errorf("bad.png err = %v", res["bad.png"].Err())
	}
	if !errors.Is(res["missing.png"].Err(), fs.ErrNotExist) {
		t.Errorf("missing.png err = %v", res["missing.png"].Err())
	}
}

func TestAssetLoaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAssetLoader(assetFS(t)).LoadAll(ctx, []string{"a.png"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAssetLoaderDeliversOnFrameLoop(t *testing.T) {
	s := paintStage(100, 100)
	var got map[string]*ImageContent
	NewAssetLoader(assetFS(t)).Load(context.Background(), s, []string{"a.png"}, func(res map[string]*ImageContent, err error) {
		if err != nil {
			t.Errorf("Load: %v", err)
		}
		got = res
	})

	deadline := time.Now().Add(5 * time.Second)
	for got == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		s.Update(0)
	}
	if got == nil || got["a.png"].Err() != nil {
		t.Fatalf("results = %v", got)
	}
}
