package arbor

import "math"

// Matrix is a 2D affine transform [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity transform.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

var identityTransform = IdentityMatrix

// TranslateMatrix returns a pure translation.
func TranslateMatrix(x, y float64) Matrix { return Matrix{1, 0, 0, 1, x, y} }

// Mul returns m * c (c is applied first).
func (m Matrix) Mul(c Matrix) Matrix {
	return Matrix{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Invert returns the inverse. ok is false when the matrix is singular, in
// which case the identity is returned.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{a, b, c, d, -(a*m[4] + c*m[5]), -(b*m[4] + d*m[5])}, true
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool { return m == IdentityMatrix }

// TransformBox returns the axis-aligned bounds of b after transformation.
func (m Matrix) TransformBox(b Box) Box {
	x0, y0 := m.Apply(b.X1, b.Y1)
	x1, y1 := m.Apply(b.X2, b.Y1)
	x2, y2 := m.Apply(b.X1, b.Y2)
	x3, y3 := m.Apply(b.X2, b.Y2)
	return Box{
		X1: math.Min(math.Min(x0, x1), math.Min(x2, x3)),
		Y1: math.Min(math.Min(y0, y1), math.Min(y2, y3)),
		X2: math.Max(math.Max(x0, x1), math.Max(x2, x3)),
		Y2: math.Max(math.Max(y0, y1), math.Max(y2, y3)),
	}
}

// LocalTransform maps actor-local coordinates to the parent's space.
//
// Composition order:
//
//	Translate(-pivot) -> Scale -> Rotate -> Translate(pivot + origin + translation)
//
// where pivot is the normalized pivot point scaled by the allocation size.
func (a *Actor) LocalTransform() Matrix {
	w, h := a.allocation.Width(), a.allocation.Height()
	px, py := a.pivot.X*w, a.pivot.Y*h
	ox := a.allocation.X1 + a.translation.X
	oy := a.allocation.Y1 + a.translation.Y

	if a.rotation == 0 && a.scaleX == 1 && a.scaleY == 1 {
		return TranslateMatrix(ox, oy)
	}

	sin, cos := math.Sincos(a.rotation)
	ma := cos * a.scaleX
	mb := sin * a.scaleX
	mc := -sin * a.scaleY
	md := cos * a.scaleY
	return Matrix{
		ma, mb, mc, md,
		-ma*px - mc*py + px + ox,
		-mb*px - md*py + py + oy,
	}
}

// WorldTransform maps actor-local coordinates to stage coordinates. It is
// computed from the current allocations, walking up the parent chain.
func (a *Actor) WorldTransform() Matrix {
	m := a.LocalTransform()
	for p := a.parent; p != nil; p = p.parent {
		if p.topLevel {
			break
		}
		m = p.LocalTransform().Mul(m)
	}
	return m
}

// updateWorldTransforms refreshes the cached world matrices of a subtree.
// parentRecomputed forces recomputation below a changed ancestor.
func updateWorldTransforms(a *Actor, parent Matrix, parentRecomputed bool) {
	recompute := !a.worldValid || parentRecomputed
	if recompute {
		if a.topLevel {
			a.worldTransform = parent
		} else {
			a.worldTransform = parent.Mul(a.LocalTransform())
		}
		a.worldValid = true
	}
	for c := a.firstChild; c != nil; c = c.nextSibling {
		updateWorldTransforms(c, a.worldTransform, recompute)
	}
}

// StageToLocal converts a stage-space point into this actor's local space.
// ok is false when the actor's transform is degenerate (e.g. scale 0).
func (a *Actor) StageToLocal(x, y float64) (lx, ly float64, ok bool) {
	inv, ok := a.WorldTransform().Invert()
	if !ok {
		return 0, 0, false
	}
	lx, ly = inv.Apply(x, y)
	return lx, ly, true
}

// LocalToStage converts a local-space point into stage space.
func (a *Actor) LocalToStage(x, y float64) (sx, sy float64) {
	return a.WorldTransform().Apply(x, y)
}

// TransformedExtents returns the stage-space bounds of the allocation after
// every ancestor transform.
func (a *Actor) TransformedExtents() Box {
	return a.WorldTransform().TransformBox(Box{0, 0, a.allocation.Width(), a.allocation.Height()})
}
