package arbor

import (
	"sync"
	"time"
)

// TimeSource supplies the current time to a FrameClock.
type TimeSource interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// WallClock reads the system's monotonic clock.
var WallClock TimeSource = wallClock{}

// ManualTimeSource is a TimeSource moved by hand, for tests and
// deterministic replays.
type ManualTimeSource struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualTimeSource starts at t.
func NewManualTimeSource(t time.Time) *ManualTimeSource {
	return &ManualTimeSource{now: t}
}

func (m *ManualTimeSource) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the time forward by d.
func (m *ManualTimeSource) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// DefaultMaxFrameDelta caps the delta a FrameClock reports, so a stall
// (a breakpoint, a suspended laptop) does not fast-forward every timeline.
const DefaultMaxFrameDelta = 250 * time.Millisecond

// FrameClock turns a TimeSource into per-frame deltas. While paused it
// reports zero deltas and the paused span is never counted.
type FrameClock struct {
	mu       sync.Mutex
	src      TimeSource
	last     time.Time
	started  bool
	paused   bool
	maxDelta time.Duration
	elapsed  time.Duration
	frames   uint64
}

// NewFrameClock creates a running clock. A nil source uses WallClock.
func NewFrameClock(src TimeSource) *FrameClock {
	if src == nil {
		src = WallClock
	}
	return &FrameClock{src: src, maxDelta: DefaultMaxFrameDelta}
}

// SetMaxDelta changes the cap on reported deltas. d <= 0 removes it.
func (c *FrameClock) SetMaxDelta(d time.Duration) {
	c.mu.Lock()
	c.maxDelta = d
	c.mu.Unlock()
}

// Delta returns the time since the previous call. The first call returns
// zero.
func (c *FrameClock) Delta() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.src.Now()
	c.frames++
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	d := now.Sub(c.last)
	c.last = now
	if c.paused || d < 0 {
		return 0
	}
	if c.maxDelta > 0 && d > c.maxDelta {
		d = c.maxDelta
	}
	c.elapsed += d
	return d
}

// Pause freezes the clock.
func (c *FrameClock) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume restarts the clock without counting the paused span.
func (c *FrameClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.last = c.src.Now()
}

// IsPaused reports whether the clock is paused.
func (c *FrameClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Elapsed returns the total of all reported deltas.
func (c *FrameClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Frames returns the number of Delta calls.
func (c *FrameClock) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
