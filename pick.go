package arbor

// --- Built-in HitShape types ---

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a polygon hit area in local coordinates. Any simple
// polygon works, convex or not, in either winding order.
type HitPolygon struct {
	Points []Vec2
}

// Contains reports whether (x, y) lies inside the polygon by the even-odd
// rule.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Points[i], p.Points[j]
		if (a.Y > y) != (b.Y > y) && x < a.X+(y-a.Y)*(b.X-a.X)/(b.Y-a.Y) {
			inside = !inside
		}
	}
	return inside
}

// --- Picking ---

// containsLocal tests whether (lx, ly) falls inside the actor's hit region.
// Actors with an empty allocation and no HitShape are never hit.
func (a *Actor) containsLocal(lx, ly float64) bool {
	if a.hitShape != nil {
		return a.hitShape.Contains(lx, ly)
	}
	w, h := a.allocation.Width(), a.allocation.Height()
	if w <= 0 || h <= 0 {
		return false
	}
	return lx >= 0 && lx <= w && ly >= 0 && ly <= h
}

// Pick returns the topmost reactive, visible actor under the stage point
// (x, y), or the stage itself when no other actor is hit. Children are
// tested in reverse paint order before their parent, and clipped actors
// only hit inside their clip.
func (s *Stage) Pick(x, y float64) *Actor {
	if hit := pickActor(&s.Actor, IdentityMatrix, x, y); hit != nil {
		return hit
	}
	return &s.Actor
}

func pickActor(a *Actor, parent Matrix, x, y float64) *Actor {
	if !a.visible || a.destroyed {
		return nil
	}
	world := parent
	if !a.topLevel {
		world = parent.Mul(a.LocalTransform())
	}
	inv, ok := world.Invert()
	if !ok {
		return nil
	}
	lx, ly := inv.Apply(x, y)
	if clip, ok := a.Clip(); ok && !clip.Contains(lx, ly) {
		return nil
	}

	children := a.sortedPaintOrder()
	for i := len(children) - 1; i >= 0; i-- {
		if hit := pickActor(children[i], world, x, y); hit != nil {
			return hit
		}
	}
	if a.reactive && !a.topLevel && a.containsLocal(lx, ly) {
		return a
	}
	return nil
}
