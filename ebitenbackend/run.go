package ebitenbackend

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/arbor"
)

// RunConfig configures the window opened by Run. Zero values pick the
// defaults noted on each field.
type RunConfig struct {
	Title string
	// Width and Height are the window size in device-independent pixels.
	// Zero uses the stage size.
	Width, Height int
	// Resizable lets the user resize the window; the stage follows.
	Resizable bool
	// TPS is the update rate. Zero uses ebiten.DefaultTPS.
	TPS int
	// ShowFPS overlays the current FPS and TPS in the top-left corner.
	ShowFPS bool
	// Background clears the screen before each frame. The zero value
	// leaves it transparent.
	Background arbor.Color
}

// Game adapts a stage to ebiten.Game. Run uses it; embed it to combine
// arbor with other Ebitengine code.
type Game struct {
	stage    *arbor.Stage
	renderer *Renderer
	input    inputReader
	cfg      RunConfig
	tick     time.Duration
	err      error

	// OnUpdate, when set, runs at the start of every tick before input is
	// queued. Returning an error ends the game.
	OnUpdate func(dt time.Duration) error
}

// NewGame wraps stage.
func NewGame(stage *arbor.Stage, cfg RunConfig) *Game {
	tps := cfg.TPS
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return &Game{
		stage:    stage,
		renderer: NewRenderer(),
		cfg:      cfg,
		tick:     time.Second / time.Duration(tps),
	}
}

// Stage returns the wrapped stage.
func (g *Game) Stage() *arbor.Stage { return g.stage }

// Renderer returns the renderer used by Draw.
func (g *Game) Renderer() *Renderer { return g.renderer }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.OnUpdate != nil {
		if err := g.OnUpdate(g.tick); err != nil {
			return err
		}
	}
	g.input.poll(g.stage)
	g.stage.Update(g.tick)
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.Background.A > 0 {
		screen.Fill(toRGBA(g.cfg.Background))
	}
	g.renderer.SetTarget(screen)
	if err := g.stage.Render(g.renderer); err != nil && g.err == nil {
		g.err = err
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game. A resizable window resizes the stage.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Resizable {
		g.stage.SetSize(float64(outsideWidth), float64(outsideHeight))
		return outsideWidth, outsideHeight
	}
	w, h := g.stage.Size()
	return int(w), int(h)
}

// Run opens a window and drives stage until the window closes or a frame
// fails.
func Run(stage *arbor.Stage, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		sw, sh := stage.Size()
		w, h = int(sw), int(sh)
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if w > 0 && h > 0 {
		ebiten.SetWindowSize(w, h)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	g := NewGame(stage, cfg)
	defer g.renderer.Dispose()
	return ebiten.RunGame(g)
}

func toRGBA(c arbor.Color) color.RGBA {
	r, g, b, a := premultiply(c)
	return color.RGBA{uint8(r*255 + 0.5), uint8(g*255 + 0.5), uint8(b*255 + 0.5), uint8(a*255 + 0.5)}
}
