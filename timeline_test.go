package arbor

import (
	"math"
	"testing"
	"time"
)

const ms = time.Millisecond

func TestTimelineRepeatScenario(t *testing.T) {
	s := NewStage(StageConfig{Width: 100, Height: 100})
	a := NewActor("a")
	s.AddChild(a)

	iv, err := NewInterval(0.0, 100.0)
	if err != nil {
		t.Fatal(err)
	}
	tl := NewTimeline(1000 * ms)
	tl.SetRepeatCount(2)
	var completed, stopped int
	var finished bool
	tl.OnCompleted(func(*Timeline) { completed++ })
	tl.OnStopped(func(_ *Timeline, f bool) { stopped++; finished = f })
	tr := NewTransition("x", iv, tl)
	tr.SetRemoveOnComplete(false)
	a.AddTransition("slide", tr)

	for range 3 {
		s.Update(1000 * ms)
	}
	if completed != 2 {
		t.Errorf("completed = %d, want 2", completed)
	}
	if stopped != 1 || !finished {
		t.Errorf("stopped = %d finished = %v, want 1 true", stopped, finished)
	}
	if tl.State() != TimelineStopped {
		t.Errorf("state = %v, want stopped", tl.State())
	}
	if got := a.Position().X; got != 100 {
		t.Errorf("x = %v, want 100", got)
	}
	if s.NumTimelines() != 0 {
		t.Errorf("NumTimelines = %d, want 0", s.NumTimelines())
	}
}

func TestTimelineAdvanceProgress(t *testing.T) {
	tl := NewTimeline(400 * ms)
	var frames int
	tl.OnNewFrame(func(*Timeline) { frames++ })

	tl.Advance(100 * ms)
	if frames != 0 {
		t.Fatal("stopped timeline should not advance")
	}
	tl.Start()
	tl.Advance(100 * ms)
	assertNear(t, "progress", tl.Progress(), 0.25)
	tl.Advance(200 * ms)
	assertNear(t, "progress", tl.Progress(), 0.75)
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	tl.Advance(500 * ms)
	if tl.State() != TimelineStopped || tl.CurrentRepeat() != 1 {
		t.Errorf("state = %v repeat = %d", tl.State(), tl.CurrentRepeat())
	}
	// A finished timeline starts over.
	tl.Start()
	if tl.Elapsed() != 0 || tl.CurrentRepeat() != 0 {
		t.Errorf("restart elapsed = %v repeat = %d", tl.Elapsed(), tl.CurrentRepeat())
	}
}

func TestTimelineDelay(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.SetDelay(50 * ms)
	var frames int
	tl.OnNewFrame(func(*Timeline) { frames++ })
	tl.Start()

	tl.Advance(30 * ms)
	if frames != 0 || tl.Elapsed() != 0 {
		t.Fatalf("frames = %d elapsed = %v during delay", frames, tl.Elapsed())
	}
	tl.Advance(40 * ms)
	if frames != 1 || tl.Elapsed() != 20*ms {
		t.Errorf("frames = %d elapsed = %v, want 1 and 20ms", frames, tl.Elapsed())
	}
}

func TestTimelineAutoReverse(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.SetRepeatCount(RepeatForever)
	tl.SetAutoReverse(true)
	tl.Start()

	tl.Advance(50 * ms)
	assertNear(t, "first play", tl.Progress(), 0.5)
	tl.Advance(50 * ms)
	if tl.CurrentDirection() != Backward {
		t.Fatalf("direction after first play = %v, want backward", tl.CurrentDirection())
	}
	tl.Advance(25 * ms)
	assertNear(t, "second play", tl.Progress(), 0.75)
	tl.Advance(75 * ms)
	if tl.CurrentDirection() != Forward {
		t.Errorf("direction after second play = %v, want forward", tl.CurrentDirection())
	}
	if tl.State() != TimelineRunning {
		t.Error("RepeatForever timeline stopped")
	}
}

func TestTimelineOverflowCarries(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.SetRepeatCount(3)
	tl.Start()
	tl.Advance(130 * ms)
	if tl.CurrentRepeat() != 1 || tl.Elapsed() != 30*ms {
		t.Errorf("repeat = %d elapsed = %v, want 1 and 30ms", tl.CurrentRepeat(), tl.Elapsed())
	}
	// At most one play completes per tick.
	tl.Advance(500 * ms)
	if tl.CurrentRepeat() != 2 || tl.Elapsed() != 100*ms {
		t.Errorf("repeat = %d elapsed = %v, want 2 and 100ms", tl.CurrentRepeat(), tl.Elapsed())
	}
}

func TestTimelineMarkers(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.AddMarker("start", 0)
	tl.AddMarker("mid", 50*ms)
	tl.AddMarkerAtProgress("late", 0.9)
	if !tl.HasMarker("mid") || len(tl.Markers()) != 3 {
		t.Fatalf("markers = %v", tl.Markers())
	}

	var hit []string
	tl.OnMarkerReached(func(_ *Timeline, m Marker) { hit = append(hit, m.Name) })
	tl.Start()
	tl.Advance(50 * ms)
	tl.Advance(10 * ms)
	tl.Advance(40 * ms)

	want := []string{"start", "mid", "late"}
	if len(hit) != len(want) {
		t.Fatalf("markers hit = %v, want %v", hit, want)
	}
	for i := range want {
		if hit[i] != want[i] {
			t.Errorf("markers hit = %v, want %v", hit, want)
		}
	}

	tl.RemoveMarker("mid")
	if tl.HasMarker("mid") {
		t.Error("RemoveMarker left the marker")
	}
}

func TestTimelineMarkersBackward(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.SetDirection(Backward)
	tl.AddMarker("a", 20*ms)
	tl.AddMarker("b", 80*ms)
	var hit []string
	tl.OnMarkerReached(func(_ *Timeline, m Marker) { hit = append(hit, m.Name) })
	tl.Start()
	tl.Advance(100 * ms)
	if len(hit) != 2 || hit[0] != "b" || hit[1] != "a" {
		t.Errorf("backward markers = %v, want [b a]", hit)
	}
}

func TestTimelineStopInsideHandler(t *testing.T) {
	tl := NewTimeline(100 * ms)
	var second, completed int
	tl.OnNewFrame(func(t *Timeline) { t.Stop() })
	tl.OnNewFrame(func(*Timeline) { second++ })
	tl.OnCompleted(func(*Timeline) { completed++ })
	tl.Start()
	tl.Advance(100 * ms)
	if second != 0 || completed != 0 {
		t.Errorf("handlers after Stop ran: second = %d completed = %d", second, completed)
	}
	if tl.State() != TimelineStopped || tl.Elapsed() != 0 {
		t.Errorf("Stop should rewind: state = %v elapsed = %v", tl.State(), tl.Elapsed())
	}
}

func TestTimelinePauseResume(t *testing.T) {
	tl := NewTimeline(100 * ms)
	var paused int
	tl.OnPaused(func(*Timeline) { paused++ })
	tl.Start()
	tl.Advance(40 * ms)
	tl.Pause()
	tl.Advance(40 * ms)
	if tl.Elapsed() != 40*ms || paused != 1 {
		t.Fatalf("elapsed = %v paused = %d", tl.Elapsed(), paused)
	}
	tl.Start()
	tl.Advance(10 * ms)
	if tl.Elapsed() != 50*ms {
		t.Errorf("resumed elapsed = %v, want 50ms", tl.Elapsed())
	}
}

func TestTimelineSeekClamps(t *testing.T) {
	tl := NewTimeline(100 * ms)
	tl.Seek(150 * ms)
	if tl.Elapsed() != 100*ms {
		t.Errorf("Seek past end = %v", tl.Elapsed())
	}
	tl.Skip(-300 * ms)
	if tl.Elapsed() != 0 {
		t.Errorf("Skip before start = %v", tl.Elapsed())
	}
}

func TestZeroDurationTimelineCompletes(t *testing.T) {
	tl := NewTimeline(0)
	var completed int
	tl.OnCompleted(func(*Timeline) { completed++ })
	tl.Start()
	tl.Advance(0)
	if completed != 1 || tl.State() != TimelineStopped {
		t.Errorf("completed = %d state = %v", completed, tl.State())
	}
	assertNear(t, "progress", tl.Progress(), 1)
}

func TestTimelineStartedMidTickWaits(t *testing.T) {
	s := NewStage(StageConfig{Width: 10, Height: 10})
	first := NewTimeline(100 * ms)
	second := NewTimeline(100 * ms)
	s.AddTimeline(first)
	s.AddTimeline(second)
	first.OnNewFrame(func(*Timeline) { second.Start() })
	first.Start()

	s.Update(10 * ms)
	if second.Elapsed() != 0 {
		t.Errorf("timeline started during the tick advanced by %v", second.Elapsed())
	}
	s.Update(10 * ms)
	if second.Elapsed() != 10*ms {
		t.Errorf("second tick elapsed = %v, want 10ms", second.Elapsed())
	}
}

func TestStageRemoveTimeline(t *testing.T) {
	s := NewStage(StageConfig{Width: 10, Height: 10})
	tl := NewTimeline(100 * ms)
	s.AddTimeline(tl)
	tl.Start()
	if s.NumTimelines() != 1 {
		t.Fatalf("NumTimelines = %d, want 1", s.NumTimelines())
	}
	s.RemoveTimeline(tl)
	s.Update(50 * ms)
	if tl.Elapsed() != 0 || s.NumTimelines() != 0 {
		t.Errorf("removed timeline advanced: %v", tl.Elapsed())
	}
	if tl.State() != TimelineRunning {
		t.Error("RemoveTimeline should not change the state")
	}
}

// --- Progress modes ---

func TestProgressModesHitEndpoints(t *testing.T) {
	for _, name := range []string{
		"linear", "ease-in-quad", "ease-out-cubic", "ease-in-out-sine",
		"ease-out-elastic", "ease-in-back", "ease-out-bounce", "ease",
		"ease-in-out", "steps(1, start)", "steps(1, end)",
	} {
		m, ok := ProgressModeByName(name)
		if !ok {
			t.Errorf("%q not registered", name)
			continue
		}
		if m.Apply(0) != 0 || m.Apply(1) != 1 {
			t.Errorf("%s: Apply(0) = %v Apply(1) = %v", name, m.Apply(0), m.Apply(1))
		}
	}
}

func TestProgressModeValues(t *testing.T) {
	tests := []struct {
		name string
		mode ProgressMode
		in   float64
		want float64
	}{
		{"zero value is linear", ProgressMode{}, 0.3, 0.3},
		{"linear", Linear, 0.7, 0.7},
		{"in-quad", EaseInQuad, 0.5, 0.25},
		{"out-quad", EaseOutQuad, 0.5, 0.75},
		{"steps end", Steps(4, StepEnd), 0.3, 0.25},
		{"steps start", Steps(4, StepStart), 0.3, 0.5},
		{"linear bezier", CubicBezier(0, 0, 1, 1), 0.4, 0.4},
		{"ease-in-out symmetric", EaseInOut, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Apply(tt.in); math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegisterProgressFunc(t *testing.T) {
	m := RegisterProgressFunc("square-test", func(t float64) float64 { return t * t })
	got, ok := ProgressModeByName("square-test")
	if !ok || got.Name() != m.Name() {
		t.Fatalf("lookup = %v, %v", got, ok)
	}
	assertNear(t, "square", got.Apply(0.5), 0.25)
}
