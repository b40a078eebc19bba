package arbor

import (
	"image"
	"math"
	"sync/atomic"
)

// Content is a drawable attached to an actor. It has no tree position of
// its own and may be shared between actors through a ContentRef.
type Content interface {
	// PreferredSize returns the intrinsic size. ok is false when the
	// content has no opinion and the actor should size from its children.
	PreferredSize() (w, h float64, ok bool)
	// PaintContent adds the content's nodes to parent, in the actor's local
	// space. Use Actor.ContentBox for the area selected by the gravity.
	PaintContent(a *Actor, parent *PaintNode)
}

// ContentAttacher is implemented by content that wants to know when an
// actor starts or stops displaying it.
type ContentAttacher interface {
	Attached(a *Actor)
	Detached(a *Actor)
}

// ContentReleaser is implemented by content holding resources to free when
// the last reference is dropped.
type ContentReleaser interface {
	ReleaseContent()
}

// contentInvalidator lets content refresh derived state (such as a canvas
// raster) when its owner calls Invalidate.
type contentInvalidator interface {
	contentInvalidated()
}

// ContentRef is a reference-counted handle to shared content. Every actor
// displaying the content holds one reference; Retain and Release add
// external references. When the count returns to zero the content is
// released.
//
// Content must not be modified in place while attached. Change it, then
// call Invalidate (or InvalidateSize when its preferred size changed).
type ContentRef struct {
	content  Content
	refs     int
	actors   []*Actor
	revision uint64
	released bool
}

// NewContentRef wraps content in a shared handle with no references.
func NewContentRef(c Content) *ContentRef {
	if c == nil {
		panic("arbor: NewContentRef with nil content")
	}
	return &ContentRef{content: c, revision: 1}
}

func (r *ContentRef) Content() Content { return r.content }

// Refs returns the number of live references.
func (r *ContentRef) Refs() int { return r.refs }

// Revision increments on every Invalidate. Renderers use it to refresh
// cached textures.
func (r *ContentRef) Revision() uint64 { return r.revision }

// Actors returns the actors displaying the content.
func (r *ContentRef) Actors() []*Actor { return append([]*Actor(nil), r.actors...) }

// Retain adds an external reference.
func (r *ContentRef) Retain() *ContentRef {
	if r.released {
		panic("arbor: Retain on released content")
	}
	r.refs++
	return r
}

// Release drops an external reference taken with Retain.
func (r *ContentRef) Release() {
	if r.refs == 0 {
		panic("arbor: content Release without matching Retain")
	}
	r.refs--
	r.maybeRelease()
}

func (r *ContentRef) maybeRelease() {
	if r.refs > 0 || r.released {
		return
	}
	r.released = true
	if rel, ok := r.content.(ContentReleaser); ok {
		rel.ReleaseContent()
	}
}

// Invalidate announces new pixels: every actor showing the content is
// redrawn.
func (r *ContentRef) Invalidate() {
	r.revision++
	if inv, ok := r.content.(contentInvalidator); ok {
		inv.contentInvalidated()
	}
	for _, a := range r.actors {
		a.QueueRedraw()
	}
}

// InvalidateSize announces a new preferred size as well as new pixels.
func (r *ContentRef) InvalidateSize() {
	r.Invalidate()
	for _, a := range r.actors {
		a.QueueRelayout()
	}
}

func (r *ContentRef) attach(a *Actor) {
	if r.released {
		panic("arbor: cannot attach released content")
	}
	r.refs++
	r.actors = append(r.actors, a)
	if at, ok := r.content.(ContentAttacher); ok {
		at.Attached(a)
	}
}

func (r *ContentRef) detach(a *Actor) {
	for i, x := range r.actors {
		if x == a {
			r.actors = append(r.actors[:i:i], r.actors[i+1:]...)
			break
		}
	}
	if at, ok := r.content.(ContentAttacher); ok {
		at.Detached(a)
	}
	r.refs--
	r.maybeRelease()
}

// --- Actor integration ---

// SetContent attaches c through a new ContentRef. Pass nil to remove the
// content. To share one content between actors use SetContentRef.
func (a *Actor) SetContent(c Content) {
	if c == nil {
		a.SetContentRef(nil)
		return
	}
	a.SetContentRef(NewContentRef(c))
}

// SetContentRef attaches shared content, taking one reference.
func (a *Actor) SetContentRef(r *ContentRef) {
	if a.content == r {
		return
	}
	a.setContentRef(r)
	a.QueueRelayout()
	a.notify(PropContent)
}

func (a *Actor) setContentRef(r *ContentRef) {
	if old := a.content; old != nil {
		a.content = nil
		old.detach(a)
	}
	if r != nil {
		r.attach(a)
		a.content = r
	}
}

// Content returns the attached content, or nil.
func (a *Actor) Content() Content {
	if a.content == nil {
		return nil
	}
	return a.content.content
}

// ContentRef returns the shared handle of the attached content, or nil.
func (a *Actor) ContentRef() *ContentRef { return a.content }

// SetContentGravity selects how content is fitted into the allocation.
func (a *Actor) SetContentGravity(g ContentGravity) {
	if a.gravity == g {
		return
	}
	a.gravity = g
	if a.requestMode != RequestContentSize {
		a.QueueRelayout()
	}
	a.QueueRedraw()
	a.notify(PropContentGravity)
}

func (a *Actor) ContentGravity() ContentGravity { return a.gravity }

// SetContentScalingFilter selects the sampling filter for scaled content.
func (a *Actor) SetContentScalingFilter(f ScalingFilter) {
	a.contentFilter = f
	a.QueueRedraw()
}

func (a *Actor) ContentScalingFilter() ScalingFilter { return a.contentFilter }

func (a *Actor) contentPreferredSize() (w, h float64, ok bool) {
	if a.content == nil {
		return 0, 0, false
	}
	w, h, ok = a.content.content.PreferredSize()
	if !ok {
		return 0, 0, false
	}
	return sanitizeSize(w), sanitizeSize(h), true
}

// ContentBox returns the area of the allocation, in local coordinates, that
// the content covers under the current gravity. Content without a
// preferred size always fills the allocation.
func (a *Actor) ContentBox() Box {
	w, h := a.allocation.Width(), a.allocation.Height()
	full := Box{0, 0, w, h}
	cw, ch, ok := a.contentPreferredSize()
	if !ok {
		return full
	}
	return gravityBox(a.gravity, w, h, cw, ch)
}

func gravityBox(g ContentGravity, w, h, cw, ch float64) Box {
	switch g {
	case GravityResizeFill:
		return Box{0, 0, w, h}
	case GravityResizeAspect:
		if cw <= 0 || ch <= 0 {
			return Box{0, 0, w, h}
		}
		s := math.Min(w/cw, h/ch)
		sw, sh := cw*s, ch*s
		return BoxFromSize((w-sw)/2, (h-sh)/2, sw, sh)
	}
	var fx, fy float64
	switch g {
	case GravityCenter:
		fx, fy = 0.5, 0.5
	case GravityTop:
		fx = 0.5
	case GravityTopRight:
		fx = 1
	case GravityLeft:
		fy = 0.5
	case GravityRight:
		fx, fy = 1, 0.5
	case GravityBottomLeft:
		fy = 1
	case GravityBottom:
		fx, fy = 0.5, 1
	case GravityBottomRight:
		fx, fy = 1, 1
	}
	return BoxFromSize((w-cw)*fx, (h-ch)*fy, cw, ch)
}

// --- Textures ---

var textureKeys atomic.Uint64

// TextureSource is pixel data referenced by texture paint nodes. Renderers
// cache their upload by Key and refresh it when Revision changes.
type TextureSource struct {
	Key      uint64
	Revision uint64
	Image    image.Image
}

// NewTextureSource wraps img with a fresh key.
func NewTextureSource(img image.Image) *TextureSource {
	return &TextureSource{Key: textureKeys.Add(1), Revision: 1, Image: img}
}

// Bounds returns the image bounds, or an empty rectangle.
func (t *TextureSource) Bounds() image.Rectangle {
	if t == nil || t.Image == nil {
		return image.Rectangle{}
	}
	return t.Image.Bounds()
}

// Update replaces the pixels and bumps the revision.
func (t *TextureSource) Update(img image.Image) {
	t.Image = img
	t.Revision++
}

// --- ColorContent ---

// ColorContent fills the actor's content box with a solid color. It has no
// preferred size.
type ColorContent struct {
	Color Color
}

func NewColorContent(c Color) *ColorContent { return &ColorContent{Color: c} }

func (c *ColorContent) PreferredSize() (float64, float64, bool) { return 0, 0, false }

func (c *ColorContent) PaintContent(a *Actor, parent *PaintNode) {
	if c.Color.A <= 0 {
		return
	}
	parent.AddRectangle(a.ContentBox(), c.Color)
}
