package arbor

import "math"

// PaintVolume is an axis-aligned 3D box bounding everything an actor may
// draw, in the actor's local space. It may be larger than what is actually
// painted, never smaller. The zero value is empty.
type PaintVolume struct {
	Min, Max Vec3
	set      bool
}

// NewPaintVolume returns a flat volume covering b at depth 0.
func NewPaintVolume(b Box) PaintVolume {
	if b.IsEmpty() {
		return PaintVolume{}
	}
	return PaintVolume{Min: Vec3{b.X1, b.Y1, 0}, Max: Vec3{b.X2, b.Y2, 0}, set: true}
}

// IsEmpty reports whether the volume covers nothing.
func (v PaintVolume) IsEmpty() bool { return !v.set }

// Box returns the 2D extent of the volume.
func (v PaintVolume) Box() Box {
	if !v.set {
		return Box{}
	}
	return Box{v.Min.X, v.Min.Y, v.Max.X, v.Max.Y}
}

// Width returns the extent along x.
func (v PaintVolume) Width() float64 { return v.Max.X - v.Min.X }

// Height returns the extent along y.
func (v PaintVolume) Height() float64 { return v.Max.Y - v.Min.Y }

// Depth returns the extent along z.
func (v PaintVolume) Depth() float64 { return v.Max.Z - v.Min.Z }

// Union returns the smallest volume containing both.
func (v PaintVolume) Union(o PaintVolume) PaintVolume {
	if !o.set {
		return v
	}
	if !v.set {
		return o
	}
	return PaintVolume{
		Min: Vec3{math.Min(v.Min.X, o.Min.X), math.Min(v.Min.Y, o.Min.Y), math.Min(v.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(v.Max.X, o.Max.X), math.Max(v.Max.Y, o.Max.Y), math.Max(v.Max.Z, o.Max.Z)},
		set: true,
	}
}

// UnionBox grows the volume to contain a flat box.
func (v PaintVolume) UnionBox(b Box) PaintVolume { return v.Union(NewPaintVolume(b)) }

// Grow pads the volume by d on every side of the x and y axes.
func (v PaintVolume) Grow(d float64) PaintVolume {
	if !v.set || d <= 0 {
		return v
	}
	v.Min.X -= d
	v.Min.Y -= d
	v.Max.X += d
	v.Max.Y += d
	return v
}

// Clip restricts the x and y extent to b.
func (v PaintVolume) Clip(b Box) PaintVolume {
	if !v.set {
		return v
	}
	r := v.Box().Intersect(b)
	if r.IsEmpty() {
		return PaintVolume{}
	}
	v.Min.X, v.Min.Y, v.Max.X, v.Max.Y = r.X1, r.Y1, r.X2, r.Y2
	return v
}

// Transform maps the volume through m, returning the bounds of the result.
// z is offset by dz.
func (v PaintVolume) Transform(m Matrix, dz float64) PaintVolume {
	if !v.set {
		return v
	}
	b := m.TransformBox(v.Box())
	return PaintVolume{
		Min: Vec3{b.X1, b.Y1, v.Min.Z + dz},
		Max: Vec3{b.X2, b.Y2, v.Max.Z + dz},
		set: true,
	}
}

// Intersects reports whether the 2D extent overlaps b.
func (v PaintVolume) Intersects(b Box) bool {
	return v.set && !v.Box().Intersect(b).IsEmpty()
}

// PaintVolume returns the region the actor and its visible descendants may
// draw into, in local space: the allocation, the content box, the children,
// limited by the clip and padded by effects. Hidden and fully transparent
// actors have an empty volume.
func (a *Actor) PaintVolume() PaintVolume {
	if !a.visible || a.opacity == 0 {
		return PaintVolume{}
	}
	v := a.ownPaintVolume()
	for c := a.firstChild; c != nil; c = c.nextSibling {
		v = v.Union(c.PaintVolume().Transform(c.LocalTransform(), c.zPosition+c.translation.Z))
	}
	return a.finishPaintVolume(v)
}

// ownPaintVolume covers what the actor draws itself.
func (a *Actor) ownPaintVolume() PaintVolume {
	w, h := a.allocation.Width(), a.allocation.Height()
	v := NewPaintVolume(Box{0, 0, w, h})
	if a.content != nil {
		v = v.UnionBox(a.ContentBox())
	}
	return v
}

// finishPaintVolume applies the clip, then effect padding: effects wrap
// the clipped subtree and may spread past the clip.
func (a *Actor) finishPaintVolume(v PaintVolume) PaintVolume {
	if clip, ok := a.Clip(); ok {
		v = v.Clip(clip)
	}
	pad := 0.0
	for _, e := range a.effects {
		if e.meta().Enabled() {
			pad += e.Padding()
		}
	}
	return v.Grow(pad)
}
