package arbor

import (
	"io"
	"slices"
	"sync"
	"time"
)

// StageConfig holds the settings of a new Stage. The zero value is usable:
// a 0×0 stage with a transparent background.
type StageConfig struct {
	Width, Height float64
	// Color is the stage background. Transparent draws nothing.
	Color Color
	// Debug turns on per-frame timing logs and the extra tree checks.
	Debug bool
	// MaxRelayoutPasses bounds the layout passes run per frame when
	// allocation keeps queueing relayouts. Zero means
	// DefaultMaxRelayoutPasses.
	MaxRelayoutPasses int
	// Log receives debug output. Nil keeps the current writer (stderr by
	// default).
	Log io.Writer
	// TimeSource drives the stage's FrameClock. Nil uses WallClock.
	TimeSource TimeSource
}

// Stage is the root actor. It owns the frame clock, the event queue and
// the running timelines, and drives the layout and paint passes.
//
// Everything except Post and QueueEvent must be called from the goroutine
// driving the frames.
type Stage struct {
	Actor

	width, height float64
	debug         bool
	maxPasses     int
	clock         *FrameClock

	// Input
	pointers        map[int]*pointerState
	keyFocus        *Actor
	KeyFocusChanged Signal[*Actor]
	store           EntityStore

	// Frame state
	elapsed         time.Duration
	relayoutPending bool
	redrawPending   bool
	timelines       []*Timeline
	viewport        Box
	culled          int
	lastTree        *PaintNode

	// Filled from other goroutines.
	mu     sync.Mutex
	posted []func()
	events []Event
}

// NewStage creates a stage.
func NewStage(cfg StageConfig) *Stage {
	s := &Stage{
		width:     sanitizeSize(cfg.Width),
		height:    sanitizeSize(cfg.Height),
		debug:     cfg.Debug,
		maxPasses: cfg.MaxRelayoutPasses,
		clock:     NewFrameClock(cfg.TimeSource),
		pointers:  make(map[int]*pointerState),
	}
	if s.maxPasses <= 0 {
		s.maxPasses = DefaultMaxRelayoutPasses
	}
	initActor(&s.Actor, "stage")
	s.topLevel = true
	s.reactive = true
	s.stage = s
	if cfg.Color != (Color{}) {
		s.background = cfg.Color
		s.backgroundSet = true
	}
	if cfg.Debug {
		SetDebugMode(true, cfg.Log)
	} else if cfg.Log != nil {
		debugOut = cfg.Log
	}
	s.relayoutPending = true
	s.redrawPending = true
	return s
}

// Size returns the stage size.
func (s *Stage) Size() (w, h float64) { return s.width, s.height }

// SetSize resizes the stage; the next frame lays everything out again.
func (s *Stage) SetSize(w, h float64) {
	w, h = sanitizeSize(w), sanitizeSize(h)
	if w == s.width && h == s.height {
		return
	}
	s.width, s.height = w, h
	s.QueueRelayout()
}

// SetDebugMode toggles timing logs for this stage and the tree checks for
// all actors.
func (s *Stage) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// SetEntityStore sets the optional ECS bridge.
func (s *Stage) SetEntityStore(store EntityStore) { s.store = store }

// Clock returns the stage's frame clock.
func (s *Stage) Clock() *FrameClock { return s.clock }

// Elapsed returns the total time passed to Update.
func (s *Stage) Elapsed() time.Duration { return s.elapsed }

// NeedsRedraw reports whether anything changed since the last Paint.
func (s *Stage) NeedsRedraw() bool { return s.redrawPending || s.relayoutPending }

// LastPaintTree returns the tree built by the most recent Paint, or nil.
func (s *Stage) LastPaintTree() *PaintNode { return s.lastTree }

// --- Cross-goroutine hand-off ---

// Post schedules fn to run on the frame goroutine at the start of the next
// Update. Safe to call from any goroutine.
func (s *Stage) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// QueueEvent queues an input event for the next Update. Safe to call from
// any goroutine.
func (s *Stage) QueueEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *Stage) takeQueues() (posted []func(), events []Event) {
	s.mu.Lock()
	posted, s.posted = s.posted, nil
	events, s.events = s.events, nil
	s.mu.Unlock()
	return posted, events
}

// --- Timelines ---

// AddTimeline lets the stage advance t while it runs. Timelines started
// through Actor.AddTransition are added automatically.
func (s *Stage) AddTimeline(t *Timeline) {
	if t.stage == s {
		return
	}
	if t.stage != nil {
		t.stage.RemoveTimeline(t)
	}
	t.stage = s
	if t.state == TimelineRunning {
		s.scheduleTimeline(t)
	}
}

// RemoveTimeline stops advancing t. Its state is left alone.
func (s *Stage) RemoveTimeline(t *Timeline) {
	if t.stage != s {
		return
	}
	t.stage = nil
	if t.scheduled {
		t.scheduled = false
		if i := slices.Index(s.timelines, t); i >= 0 {
			s.timelines = slices.Delete(s.timelines, i, i+1)
		}
	}
}

// NumTimelines returns the number of running timelines on the stage.
func (s *Stage) NumTimelines() int { return len(s.timelines) }

func (s *Stage) scheduleTimeline(t *Timeline) {
	if t.scheduled {
		return
	}
	t.scheduled = true
	s.timelines = append(s.timelines, t)
}

// advanceTimelines ticks every running timeline once. Timelines started
// during the tick wait for the next one.
func (s *Stage) advanceTimelines(dt time.Duration) {
	n := len(s.timelines)
	for i := 0; i < n && i < len(s.timelines); i++ {
		t := s.timelines[i]
		if t.stage == s && t.state == TimelineRunning {
			t.Advance(dt)
		}
	}
	s.timelines = slices.DeleteFunc(s.timelines, func(t *Timeline) bool {
		if t.stage == s && t.state == TimelineRunning {
			return false
		}
		t.scheduled = false
		return true
	})
	if len(s.timelines) > 0 {
		s.redrawPending = true
	}
}

// --- Frame ---

// Update runs the non-drawing half of a frame: callbacks from Post, then
// queued events, then timelines advanced by dt, then layout until it
// settles. Layout is also settled before events so hit tests see current
// allocations.
func (s *Stage) Update(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	var st frameStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	posted, events := s.takeQueues()
	for _, fn := range posted {
		fn()
	}
	if s.debug {
		st.postTime = time.Since(t0)
		t0 = time.Now()
	}

	if len(events) > 0 {
		st.layoutPasses += s.settleLayout()
		for _, ev := range events {
			s.processEvent(ev)
		}
	}
	if s.debug {
		st.eventTime = time.Since(t0)
		t0 = time.Now()
	}

	s.elapsed += dt
	s.advanceTimelines(dt)
	if s.debug {
		st.timelineTime = time.Since(t0)
		t0 = time.Now()
	}

	st.layoutPasses += s.settleLayout()
	if s.debug {
		st.layoutTime = time.Since(t0)
	}
	s.debugLogUpdate(st)
}

// settleLayout runs allocation passes until no actor needs one, bounded
// by the configured pass limit. It returns the number of passes.
func (s *Stage) settleLayout() int {
	if !s.needsAllocation && !s.relayoutPending {
		return 0
	}
	layoutPassDepth++
	defer func() { layoutPassDepth-- }()
	box := Box{0, 0, s.width, s.height}
	passes := 0
	for passes < s.maxPasses && (s.needsAllocation || passes == 0) {
		s.relayoutPending = false
		s.Allocate(box, DelegateLayout)
		passes++
	}
	if s.needsAllocation {
		s.relayoutPending = true
		if globalDebug || s.debug {
			logf("warning: layout did not settle after %d passes", passes)
		}
	}
	return passes
}

// Paint settles layout and builds the paint tree for the current state.
// The returned tree is sealed.
func (s *Stage) Paint() *PaintNode {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	s.settleLayout()
	s.culled = 0
	tree := s.buildPaintTree()
	s.lastTree = tree
	s.redrawPending = false
	if s.debug {
		s.debugLogPaint(frameStats{paintTime: time.Since(t0), paintNodes: tree.Count()})
	}
	return tree
}

// Frame runs Update and Paint.
func (s *Stage) Frame(dt time.Duration) *PaintNode {
	s.Update(dt)
	return s.Paint()
}

// Tick runs a frame with the delta reported by the stage's clock.
func (s *Stage) Tick() *PaintNode {
	return s.Frame(s.clock.Delta())
}

// Renderer turns paint trees into pixels.
type Renderer interface {
	RenderPaintTree(root *PaintNode) error
}

// Render paints the stage and hands the tree to r.
func (s *Stage) Render(r Renderer) error {
	return r.RenderPaintTree(s.Paint())
}

// Destroy stops the stage's timelines and destroys every actor on it.
func (s *Stage) Destroy() {
	for _, t := range slices.Clone(s.timelines) {
		s.RemoveTimeline(t)
	}
	s.keyFocus = nil
	clear(s.pointers)
	s.Actor.Destroy()
}
