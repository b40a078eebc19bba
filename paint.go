package arbor

import (
	"fmt"
	"io"
	"strings"
)

// PaintKind identifies what a PaintNode asks the renderer to do.
type PaintKind uint8

const (
	PaintRoot      PaintKind = iota // top of a frame's tree
	PaintTransform                  // maps children into the parent's space
	PaintColor                      // solid rectangle
	PaintTexture                    // textured rectangle
	PaintClip                       // restricts children to Rect
	PaintLayer                      // composites children through an offscreen buffer
	PaintEffect                     // applies Effect to each child primitive inline
)

var paintKindNames = [...]string{"root", "transform", "color", "texture", "clip", "layer", "effect"}

func (k PaintKind) String() string {
	if int(k) < len(paintKindNames) {
		return paintKindNames[k]
	}
	return "unknown"
}

// PaintNode is one node of the tree a stage builds every frame to describe
// what to draw. Renderers walk it depth-first; children paint in order,
// later ones on top. A sealed tree is immutable.
//
// Coordinates of every node are in the space established by the nearest
// PaintTransform ancestor.
type PaintNode struct {
	Kind  PaintKind
	Actor *Actor // the actor that produced the node, if any

	Transform Matrix         // PaintTransform
	Rect      Box            // destination of Color/Texture, clip box, layer bounds
	Color     Color          // PaintColor, with inherited opacity folded into A
	Texture   *TextureSource // PaintTexture
	Source    Box            // PaintTexture source rectangle in pixels; empty means whole image
	Filter    ScalingFilter  // PaintTexture
	Opacity   float64        // PaintTexture and PaintLayer multiplier
	Effect    EffectOp       // PaintLayer and PaintEffect

	parent   *PaintNode
	children []*PaintNode
	sealed   bool
}

// NewPaintNode creates a detached node with identity transform and full
// opacity.
func NewPaintNode(kind PaintKind) *PaintNode {
	return &PaintNode{Kind: kind, Transform: IdentityMatrix, Opacity: 1}
}

func (n *PaintNode) checkMutable() {
	if n.sealed {
		panic("arbor: paint node is sealed")
	}
}

// AddChild appends child and returns it. Panics if n is sealed or child
// already has a parent.
func (n *PaintNode) AddChild(child *PaintNode) *PaintNode {
	n.checkMutable()
	if child == nil {
		panic("arbor: nil paint node")
	}
	if child.parent != nil || child == n {
		panic("arbor: paint node already has a parent")
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// AddRectangle appends a solid rectangle.
func (n *PaintNode) AddRectangle(box Box, c Color) *PaintNode {
	child := NewPaintNode(PaintColor)
	child.Rect = box
	child.Color = c
	return n.AddChild(child)
}

// AddTextureRectangle appends a rectangle showing the whole of tex.
func (n *PaintNode) AddTextureRectangle(tex *TextureSource, box Box, filter ScalingFilter) *PaintNode {
	child := NewPaintNode(PaintTexture)
	child.Rect = box
	child.Texture = tex
	child.Filter = filter
	return n.AddChild(child)
}

// AddTransform appends a transform group.
func (n *PaintNode) AddTransform(m Matrix) *PaintNode {
	child := NewPaintNode(PaintTransform)
	child.Transform = m
	return n.AddChild(child)
}

// AddClip appends a clip group.
func (n *PaintNode) AddClip(box Box) *PaintNode {
	child := NewPaintNode(PaintClip)
	child.Rect = box
	return n.AddChild(child)
}

// Parent returns the parent node, or nil.
func (n *PaintNode) Parent() *PaintNode { return n.parent }

// Children returns the child nodes. The slice must not be modified.
func (n *PaintNode) Children() []*PaintNode { return n.children }

func (n *PaintNode) NumChildren() int { return len(n.children) }

// IsEmpty reports whether the node has no children.
func (n *PaintNode) IsEmpty() bool { return len(n.children) == 0 }

// Seal freezes the subtree.
func (n *PaintNode) Seal() {
	n.sealed = true
	for _, c := range n.children {
		c.Seal()
	}
}

func (n *PaintNode) IsSealed() bool { return n.sealed }

// Walk visits the subtree depth-first in paint order. Returning false from
// fn skips the node's children.
func (n *PaintNode) Walk(fn func(node *PaintNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *PaintNode) walk(fn func(*PaintNode, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the subtree, n included.
func (n *PaintNode) Count() int {
	total := 1
	for _, c := range n.children {
		total += c.Count()
	}
	return total
}

// Dump writes an indented description of the subtree, one node per line.
func (n *PaintNode) Dump(w io.Writer) {
	n.Walk(func(node *PaintNode, depth int) bool {
		_, _ = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), node.describe())
		return true
	})
}

func (n *PaintNode) describe() string {
	var b strings.Builder
	b.WriteString(n.Kind.String())
	if n.Actor != nil {
		fmt.Fprintf(&b, " %s", n.Actor)
	}
	switch n.Kind {
	case PaintTransform:
		if !n.Transform.IsIdentity() {
			fmt.Fprintf(&b, " %v", [6]float64(n.Transform))
		}
	case PaintColor:
		fmt.Fprintf(&b, " %v %v", n.Rect, n.Color)
	case PaintTexture:
		fmt.Fprintf(&b, " %v opacity=%g", n.Rect, n.Opacity)
	case PaintClip:
		fmt.Fprintf(&b, " %v", n.Rect)
	case PaintLayer:
		fmt.Fprintf(&b, " %v opacity=%g %s", n.Rect, n.Opacity, n.Effect.Kind)
	case PaintEffect:
		fmt.Fprintf(&b, " %s", n.Effect.Kind)
	}
	return b.String()
}

// multiplyOpacity folds alpha into every primitive of the subtree. Layers
// take it as a whole and their contents are left alone.
func (n *PaintNode) multiplyOpacity(alpha float64) {
	if alpha == 1 {
		return
	}
	switch n.Kind {
	case PaintColor:
		n.Color.A *= alpha
		return
	case PaintTexture, PaintLayer:
		n.Opacity *= alpha
		return
	}
	for _, c := range n.children {
		c.multiplyOpacity(alpha)
	}
}
