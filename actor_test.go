package arbor

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

// --- Constructor defaults ---

func TestNewActorDefaults(t *testing.T) {
	a := NewActor("test")
	if a.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if a.Name != "test" {
		t.Errorf("Name = %q, want %q", a.Name, "test")
	}
	if sx, sy := a.Scale(); sx != 1 || sy != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", sx, sy)
	}
	if a.Opacity() != 1 {
		t.Errorf("Opacity = %v, want 1", a.Opacity())
	}
	if !a.IsVisible() {
		t.Error("actor should start visible")
	}
	if a.IsReactive() {
		t.Error("actor should start non-reactive")
	}
	if a.Parent() != nil || a.Stage() != nil {
		t.Error("new actor should be detached")
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := map[uint32]bool{}
	for range 100 {
		a := NewActor("")
		if seen[a.ID] {
			t.Fatalf("duplicate ID %d", a.ID)
		}
		seen[a.ID] = true
	}
}

// --- Tree integrity ---

func childNames(a *Actor) []string {
	var out []string
	for c := a.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c.Name)
	}
	return out
}

func assertChildren(t *testing.T, parent *Actor, want ...string) {
	t.Helper()
	got := childNames(parent)
	if len(got) != len(want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("children = %v, want %v", got, want)
		}
	}
	if parent.NumChildren() != len(want) {
		t.Errorf("NumChildren = %d, want %d", parent.NumChildren(), len(want))
	}
	// The backwards walk must mirror the forward one.
	i := len(want) - 1
	for c := parent.LastChild(); c != nil; c = c.PreviousSibling() {
		if c.Name != want[i] {
			t.Errorf("backward child %d = %q, want %q", i, c.Name, want[i])
		}
		if c.Parent() != parent {
			t.Errorf("%q has wrong parent", c.Name)
		}
		i--
	}
}

func TestInsertChildVariants(t *testing.T) {
	p := NewActor("p")
	a, b, c, d, e := NewActor("a"), NewActor("b"), NewActor("c"), NewActor("d"), NewActor("e")

	p.AddChild(a)
	p.AddChild(c)
	p.InsertChildAt(b, 1)
	assertChildren(t, p, "a", "b", "c")

	p.InsertChildBelow(d, a)
	assertChildren(t, p, "d", "a", "b", "c")

	p.InsertChildAbove(e, b)
	assertChildren(t, p, "d", "a", "b", "e", "c")

	if p.ChildAt(3) != e || p.ChildAt(0) != d || p.ChildAt(4) != c {
		t.Error("ChildAt returned the wrong child")
	}
}

func TestSetChildIndex(t *testing.T) {
	p := NewActor("p")
	for _, n := range []string{"a", "b", "c"} {
		p.AddChild(NewActor(n))
	}
	p.SetChildIndex(p.ChildAt(0), 2)
	assertChildren(t, p, "b", "c", "a")
	p.SetChildIndex(p.ChildAt(2), 0)
	assertChildren(t, p, "a", "b", "c")
}

func TestAddChildPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil child", func() { NewActor("p").AddChild(nil) }},
		{"already parented", func() {
			p1, p2, c := NewActor("p1"), NewActor("p2"), NewActor("c")
			p1.AddChild(c)
			p2.AddChild(c)
		}},
		{"cycle", func() {
			a, b := NewActor("a"), NewActor("b")
			a.AddChild(b)
			b.AddChild(a)
		}},
		{"self", func() {
			a := NewActor("a")
			a.AddChild(a)
		}},
		{"stage as child", func() {
			s := NewStage(StageConfig{Width: 10, Height: 10})
			NewActor("a").AddChild(&s.Actor)
		}},
		{"destroyed child", func() {
			c := NewActor("c")
			c.Destroy()
			NewActor("p").AddChild(c)
		}},
		{"index out of range", func() { NewActor("p").InsertChildAt(NewActor("c"), 1) }},
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

func TestRemoveChildDestroysUnreferenced(t *testing.T) {
	p := NewActor("p")
	c := NewActor("c")
	gc := NewActor("gc")
	c.AddChild(gc)
	p.AddChild(c)

	var order []string
	c.OnDestroy(func(a *Actor) { order = append(order, a.Name) })
	gc.OnDestroy(func(a *Actor) { order = append(order, a.Name) })

	p.RemoveChild(c)
	if !c.IsDestroyed() || !gc.IsDestroyed() {
		t.Fatal("unreferenced subtree should be destroyed")
	}
	if len(order) != 2 || order[0] != "gc" || order[1] != "c" {
		t.Errorf("destroy order = %v, want [gc c]", order)
	}
	if p.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", p.NumChildren())
	}
}

func TestRetainedChildSurvivesRemoval(t *testing.T) {
	p := NewActor("p")
	c := NewActor("c").Retain()
	p.AddChild(c)
	p.RemoveChild(c)
	if c.IsDestroyed() {
		t.Fatal("retained actor should survive removal")
	}
	q := NewActor("q")
	q.AddChild(c)
	q.RemoveChild(c)
	c.Release()
	if !c.IsDestroyed() {
		t.Error("releasing the last reference of a detached actor should destroy it")
	}
}

func TestReleaseWithoutRetainPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewActor("a").Release()
}

func TestReparentKeepsActorAlive(t *testing.T) {
	s := NewStage(StageConfig{Width: 100, Height: 100})
	p1, p2, c := NewActor("p1"), NewActor("p2"), NewActor("c")
	s.AddChild(p1)
	s.AddChild(p2)
	p1.AddChild(c)

	tr, err := c.Animate("x", 50.0, time.Second, Linear)
	if err != nil {
		t.Fatal(err)
	}
	var parentChanges int
	c.Observe(PropParent, func(PropertyChange) { parentChanges++ })

	c.Reparent(p2)
	if c.IsDestroyed() {
		t.Fatal("Reparent destroyed the actor")
	}
	if c.Parent() != p2 || p1.NumChildren() != 0 || p2.NumChildren() != 1 {
		t.Error("child not moved")
	}
	if parentChanges != 1 {
		t.Errorf("parent notifications = %d, want 1", parentChanges)
	}
	if tr.Timeline().State() != TimelineRunning {
		t.Errorf("transition state = %v, want running", tr.Timeline().State())
	}
}

func TestReparentIntoDescendantPanics(t *testing.T) {
	a, b := NewActor("a"), NewActor("b")
	a.AddChild(b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a.Reparent(b)
}

func TestDestroyDetachesFromParent(t *testing.T) {
	p := NewActor("p")
	a, b := NewActor("a"), NewActor("b")
	p.AddChild(a)
	p.AddChild(b)
	a.Destroy()
	assertChildren(t, p, "b")
	// Second destroy is a no-op.
	a.Destroy()
}

func TestAllChildrenAllowsRemoval(t *testing.T) {
	p := NewActor("p")
	for _, n := range []string{"a", "b", "c", "d"} {
		p.AddChild(NewActor(n))
	}
	for c := range p.AllChildren() {
		if c.Name == "b" || c.Name == "c" {
			p.RemoveChild(c)
		}
	}
	assertChildren(t, p, "a", "d")
}

func TestContains(t *testing.T) {
	a, b, c := NewActor("a"), NewActor("b"), NewActor("c")
	a.AddChild(b)
	b.AddChild(c)
	if !a.Contains(c) || !a.Contains(a) {
		t.Error("a should contain itself and its grandchild")
	}
	if c.Contains(a) {
		t.Error("c should not contain its ancestor")
	}
}

func TestStagePointerPropagates(t *testing.T) {
	s := NewStage(StageConfig{Width: 10, Height: 10})
	a, b := NewActor("a"), NewActor("b")
	a.AddChild(b)
	s.AddChild(a)
	if a.Stage() != s || b.Stage() != s {
		t.Error("stage pointer not set on subtree")
	}
	a.Retain()
	s.RemoveChild(a)
	if a.Stage() != nil || b.Stage() != nil {
		t.Error("stage pointer not cleared on removal")
	}
}

func TestPaintOrderByZPosition(t *testing.T) {
	p := NewActor("p")
	a, b, c := NewActor("a"), NewActor("b"), NewActor("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)
	a.SetZPosition(2)
	c.SetZPosition(-1)

	got := p.sortedPaintOrder()
	want := []*Actor{c, b, a}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paint order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	// Ties keep child-list order.
	a.SetZPosition(0)
	got = p.sortedPaintOrder()
	if got[0] != c || got[1] != a || got[2] != b {
		t.Errorf("tie order = %v", got)
	}
}

// --- Tree integrity under mixed operations ---

// checkTree verifies the structural invariants of every actor in pool:
// one parent at most, no cycles, and consistent sibling links and counts.
func checkTree(t *testing.T, pool []*Actor, step string) {
	t.Helper()
	owners := make(map[*Actor]int)
	for _, a := range pool {
		n := 0
		var prev *Actor
		for c := a.firstChild; c != nil; c = c.nextSibling {
			if c.parent != a {
				t.Fatalf("%s: %s lists %s but its parent is %v", step, a.Name, c.Name, c.parent)
			}
			if c.prevSibling != prev {
				t.Fatalf("%s: %s.prevSibling = %v, want %v", step, c.Name, c.prevSibling, prev)
			}
			owners[c]++
			prev = c
			n++
			if n > len(pool) {
				t.Fatalf("%s: child list of %s loops", step, a.Name)
			}
		}
		if a.lastChild != prev {
			t.Fatalf("%s: %s.lastChild = %v, want %v", step, a.Name, a.lastChild, prev)
		}
		if n != a.NumChildren() {
			t.Fatalf("%s: %s.NumChildren = %d, list has %d", step, a.Name, a.NumChildren(), n)
		}
	}
	for _, a := range pool {
		if owners[a] > 1 {
			t.Fatalf("%s: %s is listed by %d parents", step, a.Name, owners[a])
		}
		if (a.parent != nil) != (owners[a] == 1) {
			t.Fatalf("%s: %s parent pointer disagrees with the child lists", step, a.Name)
		}
		depth := 0
		for p := a.parent; p != nil; p = p.parent {
			if p == a {
				t.Fatalf("%s: %s is its own ancestor", step, a.Name)
			}
			if depth++; depth > len(pool) {
				t.Fatalf("%s: parent chain of %s loops", step, a.Name)
			}
		}
	}
}

func TestTreeIntegrityRandomOps(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 1234} {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*31+1))
			pool := make([]*Actor, 8)
			for i := range pool {
				pool[i] = NewActor(fmt.Sprintf("a%d", i)).Retain()
			}
			pick := func() *Actor { return pool[rng.IntN(len(pool))] }

			for step := 0; step < 500; step++ {
				a, b := pick(), pick()
				var name string
				func() {
					defer func() { recover() }() // misuse panics must leave the tree intact
					switch rng.IntN(5) {
					case 0:
						name = "AddChild"
						a.AddChild(b)
					case 1:
						name = "InsertChildAt"
						a.InsertChildAt(b, rng.IntN(a.NumChildren()+2))
					case 2:
						name = "RemoveChild"
						if c := a.FirstChild(); c != nil && rng.IntN(2) == 0 {
							b = c
						}
						a.RemoveChild(b)
					case 3:
						name = "Reparent"
						b.Reparent(a)
					case 4:
						name = "SetChildIndex"
						if n := a.NumChildren(); n > 0 {
							a.SetChildIndex(a.ChildAt(rng.IntN(n)), rng.IntN(n))
						}
					}
				}()
				checkTree(t, pool, fmt.Sprintf("step %d %s(%s, %s)", step, name, a.Name, b.Name))
			}
			for _, a := range pool {
				if a.IsDestroyed() {
					t.Errorf("%s destroyed while retained", a.Name)
				}
			}
		})
	}
}
