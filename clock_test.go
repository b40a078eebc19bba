package arbor

import (
	"testing"
	"time"
)

func manualClock() (*ManualTimeSource, *FrameClock) {
	src := NewManualTimeSource(time.Unix(1000, 0))
	return src, NewFrameClock(src)
}

func TestFrameClockDeltas(t *testing.T) {
	src, c := manualClock()
	if d := c.Delta(); d != 0 {
		t.Errorf("first Delta = %v, want 0", d)
	}
	src.Advance(16 * ms)
	if d := c.Delta(); d != 16*ms {
		t.Errorf("Delta = %v, want 16ms", d)
	}
	src.Advance(time.Second)
	if d := c.Delta(); d != DefaultMaxFrameDelta {
		t.Errorf("stalled Delta = %v, want the cap %v", d, DefaultMaxFrameDelta)
	}
	if c.Elapsed() != 16*ms+DefaultMaxFrameDelta {
		t.Errorf("Elapsed = %v", c.Elapsed())
	}
	if c.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", c.Frames())
	}
}

func TestFrameClockNoCap(t *testing.T) {
	src, c := manualClock()
	c.SetMaxDelta(0)
	c.Delta()
	src.Advance(2 * time.Second)
	if d := c.Delta(); d != 2*time.Second {
		t.Errorf("Delta = %v, want 2s", d)
	}
}

func TestFrameClockPause(t *testing.T) {
	src, c := manualClock()
	c.Delta()
	c.Pause()
	if !c.IsPaused() {
		t.Fatal("IsPaused = false after Pause")
	}
	src.Advance(100 * ms)
	if d := c.Delta(); d != 0 {
		t.Errorf("paused Delta = %v, want 0", d)
	}
	src.Advance(100 * ms)
	c.Resume()
	c.Resume()
	src.Advance(10 * ms)
	if d := c.Delta(); d != 10*ms {
		t.Errorf("Delta after Resume = %v, want 10ms; the paused span must not count", d)
	}
	if c.Elapsed() != 10*ms {
		t.Errorf("Elapsed = %v, want 10ms", c.Elapsed())
	}
}

func TestFrameClockBackwardsTime(t *testing.T) {
	src := NewManualTimeSource(time.Unix(1000, 0))
	c := NewFrameClock(src)
	c.Delta()
	src.Advance(-time.Second)
	if d := c.Delta(); d != 0 {
		t.Errorf("Delta = %v; time going backwards reports zero", d)
	}
}

func TestNewFrameClockDefaultsToWallClock(t *testing.T) {
	c := NewFrameClock(nil)
	if c.src != WallClock {
		t.Error("nil source should use WallClock")
	}
	c.Delta()
	if d := c.Delta(); d < 0 || d > DefaultMaxFrameDelta {
		t.Errorf("wall Delta = %v", d)
	}
}
