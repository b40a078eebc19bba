package arbor

// buildPaintTree turns the actor tree into a sealed paint tree. It reads
// layout state but never changes it.
func (s *Stage) buildPaintTree() *PaintNode {
	root := NewPaintNode(PaintRoot)
	root.Actor = &s.Actor
	updateWorldTransforms(&s.Actor, IdentityMatrix, false)
	s.viewport = Box{0, 0, s.width, s.height}
	if n, _ := s.paintActor(&s.Actor, 1); n != nil {
		root.AddChild(n)
	}
	root.Seal()
	return root
}

// paintActor builds the node of one actor and its subtree. alpha is the
// opacity inherited from ancestors that did not use a layer. It returns
// nil when the actor draws nothing, along with the local paint volume.
func (s *Stage) paintActor(a *Actor, alpha float64) (*PaintNode, PaintVolume) {
	if !a.visible || a.destroyed || a.opacity <= 0 {
		return nil, PaintVolume{}
	}
	eff := alpha * a.opacity
	if eff <= 0 {
		return nil, PaintVolume{}
	}

	useLayer := false
	switch a.offscreen {
	case RedirectAlways:
		useLayer = true
	case RedirectAutomaticForOpacity:
		useLayer = eff < 1 && a.HasOverlaps()
	}
	inner := eff
	if useLayer {
		inner = 1
	}

	top := NewPaintNode(PaintTransform)
	top.Actor = a
	if !a.topLevel {
		top.Transform = a.LocalTransform()
	}
	container := top
	var layers []*PaintNode

	if useLayer {
		layer := NewPaintNode(PaintLayer)
		layer.Actor = a
		layer.Opacity = eff
		container = container.AddChild(layer)
		layers = append(layers, layer)
	}
	for i := len(a.effects) - 1; i >= 0; i-- {
		e := a.effects[i]
		if !e.meta().Enabled() {
			continue
		}
		kind := PaintEffect
		if e.NeedsOffscreen(a) {
			kind = PaintLayer
		}
		n := NewPaintNode(kind)
		n.Actor = a
		n.Effect = e.Op()
		container = container.AddChild(n)
		if kind == PaintLayer {
			layers = append(layers, n)
		}
	}
	if clip, ok := a.Clip(); ok {
		container = container.AddClip(clip)
		container.Actor = a
	}

	drew := false
	w, h := a.allocation.Width(), a.allocation.Height()
	if a.backgroundSet && a.background.A > 0 && w > 0 && h > 0 {
		bg := container.AddRectangle(Box{0, 0, w, h}, a.background.Mul(inner))
		bg.Actor = a
		drew = true
	}
	if a.content != nil && s.paintContent(a, container, inner) {
		drew = true
	}

	volume := a.ownPaintVolume()
	for _, c := range a.sortedPaintOrder() {
		n, v := s.paintActor(c, inner)
		if v.IsEmpty() {
			continue
		}
		world := v.Transform(c.worldTransform, 0)
		if !world.Intersects(s.viewport) {
			s.culled++
			continue
		}
		volume = volume.Union(v.Transform(c.LocalTransform(), c.zPosition+c.translation.Z))
		if n != nil {
			container.AddChild(n)
			drew = true
		}
	}
	volume = a.finishPaintVolume(volume)

	if !drew {
		return nil, volume
	}
	for _, l := range layers {
		l.Rect = volume.Box()
	}
	return top, volume
}

// paintContent lets the content add its nodes, then folds the inherited
// opacity into them. It reports whether the content drew anything.
func (s *Stage) paintContent(a *Actor, container *PaintNode, alpha float64) bool {
	scratch := NewPaintNode(PaintTransform)
	a.content.content.PaintContent(a, scratch)
	if !hasPrimitives(scratch) {
		return false
	}
	for _, n := range scratch.children {
		n.parent = nil
		if n.Actor == nil {
			n.Actor = a
		}
		n.multiplyOpacity(alpha)
		container.AddChild(n)
	}
	return true
}

// hasPrimitives reports whether anything under n draws.
func hasPrimitives(n *PaintNode) bool {
	switch n.Kind {
	case PaintColor, PaintTexture:
		return true
	}
	for _, c := range n.children {
		if hasPrimitives(c) {
			return true
		}
	}
	return false
}
