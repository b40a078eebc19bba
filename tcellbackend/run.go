package tcellbackend

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/arbor"
)

// DefaultFPS is the frame rate Run uses when RunConfig.FPS is zero.
const DefaultFPS = 60

// RunConfig configures Run. The zero value runs at DefaultFPS on a black
// background, with the mouse enabled and Ctrl-C quitting.
type RunConfig struct {
	FPS        int
	Background arbor.Color
	// DisableMouse leaves mouse reporting off.
	DisableMouse bool
	// KeepCtrlC delivers Ctrl-C to the stage instead of quitting.
	KeepCtrlC bool
	// SkipInit assumes screen is already initialized and leaves it
	// running when Run returns.
	SkipInit bool
}

// Run drives stage on screen until ctx is cancelled or the user presses
// Ctrl-C. The stage is resized to the screen and follows resizes. Frames
// are painted only when something changed.
func Run(ctx context.Context, stage *arbor.Stage, screen tcell.Screen, cfg RunConfig) error {
	if !cfg.SkipInit {
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
	}
	if !cfg.DisableMouse {
		screen.EnableMouse()
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	bg := cfg.Background
	if bg.A == 0 {
		bg = arbor.ColorBlack
	}

	renderer := NewRenderer(screen, bg)
	var input InputTranslator
	resize := func() {
		cols, rows := screen.Size()
		stage.SetSize(StageSize(cols, rows))
	}
	resize()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	clock := stage.Clock()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				resize()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC && !cfg.KeepCtrlC {
					return nil
				}
			}
			for _, e := range input.Translate(ev) {
				stage.QueueEvent(e)
			}
		case <-ticker.C:
			stage.Update(clock.Delta())
			if stage.NeedsRedraw() {
				if err := stage.Render(renderer); err != nil {
					return err
				}
			}
		}
	}
}
