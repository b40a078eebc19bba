package ebitenbackend

import (
	"image"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		input, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{127, 128},
		{128, 128},
		{129, 256},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.input); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestPoolAcquireReturnsPow2(t *testing.T) {
	var pool targetPool
	img := pool.acquire(100, 50)
	defer pool.release(img)

	b := img.Bounds()
	if b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("size = %dx%d, want 128x64", b.Dx(), b.Dy())
	}
}

func TestPoolReleaseAndReacquire(t *testing.T) {
	var pool targetPool
	img1 := pool.acquire(64, 64)
	pool.release(img1)
	img2 := pool.acquire(60, 33)
	if img1 != img2 {
		t.Error("expected the pool to reuse the released image")
	}
	pool.release(img2)
	if pool.live != 0 {
		t.Errorf("live = %d, want 0", pool.live)
	}
}

func TestGeoMFromMatrix(t *testing.T) {
	m := arbor.TranslateMatrix(10, 20).Mul(arbor.Matrix{0, 1, -1, 0, 0, 0})
	g := geoMFromMatrix(m)
	for _, p := range [][2]float64{{0, 0}, {1, 0}, {3, 5}} {
		wx, wy := m.Apply(p[0], p[1])
		gx, gy := g.Apply(p[0], p[1])
		if math.Abs(wx-gx) > 1e-9 || math.Abs(wy-gy) > 1e-9 {
			t.Errorf("point %v: geoM = (%g, %g), matrix = (%g, %g)", p, gx, gy, wx, wy)
		}
	}
}

func TestPixelBounds(t *testing.T) {
	tests := []struct {
		name string
		geo  func() ebiten.GeoM
		box  arbor.Box
		want image.Rectangle
	}{
		{
			name: "identity",
			geo:  func() ebiten.GeoM { return ebiten.GeoM{} },
			box:  arbor.Box{X1: 1.5, Y1: 2, X2: 10.2, Y2: 4},
			want: image.Rect(1, 2, 11, 4),
		},
		{
			name: "scaled and translated",
			geo: func() ebiten.GeoM {
				var g ebiten.GeoM
				g.Scale(2, 2)
				g.Translate(5, 5)
				return g
			},
			box:  arbor.Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			want: image.Rect(5, 5, 25, 25),
		},
		{
			name: "empty",
			geo:  func() ebiten.GeoM { return ebiten.GeoM{} },
			box:  arbor.Box{},
			want: image.Rectangle{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pixelBounds(tt.geo(), tt.box); got != tt.want {
				t.Errorf("pixelBounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeoScale(t *testing.T) {
	var g ebiten.GeoM
	g.Scale(3, 3)
	g.Rotate(0.7)
	if got := geoScale(g); math.Abs(got-3) > 1e-9 {
		t.Errorf("geoScale = %g, want 3", got)
	}
}

func TestBlurPasses(t *testing.T) {
	tests := []struct {
		radius float64
		want   int
	}{
		{0.5, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{8, 3},
		{9, 4},
	}
	for _, tt := range tests {
		if got := blurPasses(tt.radius); got != tt.want {
			t.Errorf("blurPasses(%g) = %d, want %d", tt.radius, got, tt.want)
		}
	}
}

func TestPremultiply(t *testing.T) {
	r, g, b, a := premultiply(arbor.Color{R: 1, G: 0.5, B: 0, A: 0.5})
	if r != 0.5 || g != 0.25 || b != 0 || a != 0.5 {
		t.Errorf("premultiply = (%g, %g, %g, %g)", r, g, b, a)
	}
}

func TestShaderUniformsConvertsFloats(t *testing.T) {
	out := shaderUniforms(map[string]any{
		"Time":  1.5,
		"Tint":  arbor.Color{R: 1, A: 1},
		"Count": int32(3),
	})
	if v, ok := out["Time"].(float32); !ok || v != 1.5 {
		t.Errorf("Time = %#v, want float32(1.5)", out["Time"])
	}
	if v, ok := out["Tint"].([]float32); !ok || len(v) != 4 || v[0] != 1 {
		t.Errorf("Tint = %#v", out["Tint"])
	}
	if _, ok := out["Count"].(int32); !ok {
		t.Errorf("Count = %#v, want int32 untouched", out["Count"])
	}
	if shaderUniforms(nil) != nil {
		t.Error("nil uniforms should stay nil")
	}
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		in   ebiten.Key
		want arbor.Key
		ok   bool
	}{
		{ebiten.KeyEnter, arbor.KeyEnter, true},
		{ebiten.KeyNumpadEnter, arbor.KeyEnter, true},
		{ebiten.KeyArrowLeft, arbor.KeyLeft, true},
		{ebiten.KeyF12, arbor.KeyF12, true},
		{ebiten.KeyA, arbor.KeyUnknown, false},
	}
	for _, tt := range tests {
		got, ok := translateKey(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("translateKey(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTouchSlots(t *testing.T) {
	var in inputReader
	a := in.touchSlot(ebiten.TouchID(7))
	b := in.touchSlot(ebiten.TouchID(9))
	if a != 1 || b != 2 {
		t.Fatalf("slots = %d, %d; want 1, 2", a, b)
	}
	if again := in.touchSlot(ebiten.TouchID(7)); again != a {
		t.Errorf("same touch got slot %d, want %d", again, a)
	}
	for i := 0; i < maxPointers; i++ {
		in.touchSlot(ebiten.TouchID(100 + i))
	}
	if got := in.touchSlot(ebiten.TouchID(999)); got != -1 {
		t.Errorf("slot when full = %d, want -1", got)
	}
}

func TestRenderWithoutTargetFails(t *testing.T) {
	r := NewRenderer()
	if err := r.RenderPaintTree(arbor.NewPaintNode(arbor.PaintRoot)); err == nil {
		t.Error("expected an error without a target")
	}
}

func TestGameLayoutFollowsStage(t *testing.T) {
	s := arbor.NewStage(arbor.StageConfig{Width: 320, Height: 200})
	g := NewGame(s, RunConfig{})
	if w, h := g.Layout(800, 600); w != 320 || h != 200 {
		t.Errorf("Layout = %dx%d, want 320x200", w, h)
	}

	g = NewGame(s, RunConfig{Resizable: true})
	g.Layout(640, 480)
	if w, h := s.Size(); w != 640 || h != 480 {
		t.Errorf("stage size = %gx%g, want 640x480", w, h)
	}
}
