package arbor

import (
	"sort"
	"time"
)

// TimelineDirection is the direction progress moves in.
type TimelineDirection uint8

const (
	Forward  TimelineDirection = iota // progress goes from 0 to 1
	Backward                          // progress goes from 1 to 0
)

// TimelineState is the playback state of a Timeline.
type TimelineState uint8

const (
	TimelineStopped TimelineState = iota
	TimelineRunning
	TimelinePaused
)

func (s TimelineState) String() string {
	switch s {
	case TimelineStopped:
		return "stopped"
	case TimelineRunning:
		return "running"
	case TimelinePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatForever makes a timeline play until stopped.
const RepeatForever = -1

// Marker is a named position on a timeline.
type Marker struct {
	Name     string
	Position time.Duration
}

// Timeline is a clock that turns frame deltas into progress. A stage
// advances the timelines registered with it every Update; timelines that
// are not on a stage can be advanced by hand with Advance.
//
// Each Advance completes at most one play; time left over past the end
// carries into the next play, capped at one duration.
type Timeline struct {
	duration    time.Duration
	delay       time.Duration
	direction   TimelineDirection
	autoReverse bool
	repeatCount int
	mode        ProgressMode
	markers     []Marker // sorted by position

	state      TimelineState
	elapsed    time.Duration
	delayLeft  time.Duration
	plays      int
	curDir     TimelineDirection
	iterStart  bool
	finished   bool
	lastDelta  time.Duration
	generation uint64

	stage     *Stage
	scheduled bool

	started   handlerList[func(*Timeline)]
	newFrame  handlerList[func(*Timeline)]
	completed handlerList[func(*Timeline)]
	paused    handlerList[func(*Timeline)]
	stopped   handlerList[func(*Timeline, bool)]
	marker    handlerList[func(*Timeline, Marker)]
}

// NewTimeline creates a stopped timeline of the given duration that plays
// once, forward, with linear progress.
func NewTimeline(d time.Duration) *Timeline {
	if d < 0 {
		d = 0
	}
	return &Timeline{duration: d, iterStart: true}
}

// --- Configuration ---

func (t *Timeline) Duration() time.Duration { return t.duration }

// SetDuration changes the length of one play.
func (t *Timeline) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.duration = d
	if t.elapsed > d {
		t.elapsed = d
	}
}

func (t *Timeline) Delay() time.Duration { return t.delay }

// SetDelay sets a wait applied by Start before progress begins.
func (t *Timeline) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.delay = d
}

func (t *Timeline) Direction() TimelineDirection { return t.direction }

// SetDirection sets the direction of the first play.
func (t *Timeline) SetDirection(d TimelineDirection) {
	t.direction = d
	if t.state == TimelineStopped {
		t.curDir = d
	}
}

func (t *Timeline) AutoReverse() bool { return t.autoReverse }

// SetAutoReverse flips the direction after every play.
func (t *Timeline) SetAutoReverse(v bool) { t.autoReverse = v }

func (t *Timeline) RepeatCount() int { return t.repeatCount }

// SetRepeatCount sets the total number of plays. Values of 0 and 1 both
// play once; RepeatForever plays until stopped.
func (t *Timeline) SetRepeatCount(n int) {
	if n < RepeatForever {
		n = RepeatForever
	}
	t.repeatCount = n
}

func (t *Timeline) ProgressMode() ProgressMode { return t.mode }

// SetProgressMode sets the easing applied to linear progress.
func (t *Timeline) SetProgressMode(m ProgressMode) { t.mode = m }

// --- Markers ---

// AddMarker adds a named marker at a position within one play. Markers
// fire as playback passes them, in either direction.
func (t *Timeline) AddMarker(name string, at time.Duration) {
	t.RemoveMarker(name)
	if at < 0 {
		at = 0
	}
	if at > t.duration {
		at = t.duration
	}
	t.markers = append(t.markers, Marker{Name: name, Position: at})
	sort.SliceStable(t.markers, func(i, j int) bool { return t.markers[i].Position < t.markers[j].Position })
}

// AddMarkerAtProgress adds a marker at a fraction of the duration.
func (t *Timeline) AddMarkerAtProgress(name string, p float64) {
	t.AddMarker(name, time.Duration(float64(t.duration)*p))
}

// RemoveMarker deletes a marker by name.
func (t *Timeline) RemoveMarker(name string) {
	for i, m := range t.markers {
		if m.Name == name {
			t.markers = append(t.markers[:i:i], t.markers[i+1:]...)
			return
		}
	}
}

// HasMarker reports whether a marker exists.
func (t *Timeline) HasMarker(name string) bool {
	for _, m := range t.markers {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Markers returns the markers sorted by position.
func (t *Timeline) Markers() []Marker { return append([]Marker(nil), t.markers...) }

// --- Signals ---

// OnStarted runs fn whenever Start moves the timeline into the running state.
func (t *Timeline) OnStarted(fn func(*Timeline)) Handle { return t.started.add(fn) }

// OnNewFrame runs fn on every tick that advanced the timeline.
func (t *Timeline) OnNewFrame(fn func(*Timeline)) Handle { return t.newFrame.add(fn) }

// OnCompleted runs fn at the end of every play.
func (t *Timeline) OnCompleted(fn func(*Timeline)) Handle { return t.completed.add(fn) }

// OnPaused runs fn when Pause is called on a running timeline.
func (t *Timeline) OnPaused(fn func(*Timeline)) Handle { return t.paused.add(fn) }

// OnStopped runs fn when the timeline stops; finished is true when it ran
// out of plays and false when Stop was called.
func (t *Timeline) OnStopped(fn func(t *Timeline, finished bool)) Handle { return t.stopped.add(fn) }

// OnMarkerReached runs fn when playback passes a marker.
func (t *Timeline) OnMarkerReached(fn func(*Timeline, Marker)) Handle { return t.marker.add(fn) }

// --- State ---

func (t *Timeline) State() TimelineState { return t.state }

// IsPlaying reports whether the timeline is running.
func (t *Timeline) IsPlaying() bool { return t.state == TimelineRunning }

// Elapsed returns the time spent in the current play.
func (t *Timeline) Elapsed() time.Duration { return t.elapsed }

// Delta returns the time advanced by the last tick.
func (t *Timeline) Delta() time.Duration { return t.lastDelta }

// CurrentRepeat returns the number of completed plays.
func (t *Timeline) CurrentRepeat() int { return t.plays }

// CurrentDirection returns the direction of the current play, which differs
// from Direction on odd plays of an auto-reversing timeline.
func (t *Timeline) CurrentDirection() TimelineDirection { return t.curDir }

// LinearProgress returns the un-eased progress of the current play.
func (t *Timeline) LinearProgress() float64 {
	p := 1.0
	if t.duration > 0 {
		p = float64(t.elapsed) / float64(t.duration)
	}
	if t.curDir == Backward {
		p = 1 - p
	}
	return p
}

// Progress returns the eased progress of the current play.
func (t *Timeline) Progress() float64 {
	return t.mode.Apply(t.LinearProgress())
}

// --- Control ---

// Start runs the timeline. A paused timeline resumes; a finished one
// starts over.
func (t *Timeline) Start() {
	if t.state == TimelineRunning {
		return
	}
	if t.state == TimelineStopped {
		if t.finished {
			t.Rewind()
		}
		t.delayLeft = t.delay
	}
	t.finished = false
	t.state = TimelineRunning
	t.generation++
	if t.stage != nil {
		t.stage.scheduleTimeline(t)
	}
	t.emit(&t.started, t.generation)
}

// Pause stops time from advancing without rewinding.
func (t *Timeline) Pause() {
	if t.state != TimelineRunning {
		return
	}
	t.state = TimelinePaused
	t.generation++
	t.emit(&t.paused, t.generation)
}

// Stop halts and rewinds the timeline. Called from a handler during a tick
// it takes effect immediately: no further handlers of that tick run.
func (t *Timeline) Stop() {
	if t.state == TimelineStopped {
		return
	}
	t.state = TimelineStopped
	t.generation++
	gen := t.generation
	t.Rewind()
	for _, e := range t.stopped.entries {
		if t.generation != gen {
			return
		}
		e.fn(t, false)
	}
}

// Rewind moves back to the start of the first play.
func (t *Timeline) Rewind() {
	t.elapsed = 0
	t.plays = 0
	t.curDir = t.direction
	t.iterStart = true
	t.finished = false
	t.delayLeft = t.delay
}

// Skip moves the playhead by d within the current play without emitting
// signals. The result is clamped to the play.
func (t *Timeline) Skip(d time.Duration) {
	t.Seek(t.elapsed + d)
}

// Seek moves the playhead to pos within the current play without emitting
// signals.
func (t *Timeline) Seek(pos time.Duration) {
	t.elapsed = min(max(pos, 0), t.duration)
}

// Advance moves a running timeline forward by dt: markers passed fire,
// then the new-frame handlers, then completion handling if the play ended.
func (t *Timeline) Advance(dt time.Duration) {
	if t.state != TimelineRunning || dt < 0 {
		return
	}
	gen := t.generation
	if t.delayLeft > 0 {
		if dt < t.delayLeft {
			t.delayLeft -= dt
			return
		}
		dt -= t.delayLeft
		t.delayLeft = 0
	}
	t.lastDelta = dt

	prev := t.elapsed
	next := prev + dt
	ended := next >= t.duration
	overflow := time.Duration(0)
	if ended {
		overflow = next - t.duration
		next = t.duration
	}
	t.elapsed = next

	if !t.fireMarkers(prev, next, gen) {
		return
	}
	t.iterStart = false
	if !t.emit(&t.newFrame, gen) || !ended {
		return
	}

	t.plays++
	if !t.emit(&t.completed, gen) {
		return
	}

	plays := max(t.repeatCount, 1)
	if t.repeatCount != RepeatForever && t.plays >= plays {
		t.state = TimelineStopped
		t.finished = true
		t.generation++
		gen = t.generation
		for _, e := range t.stopped.entries {
			if t.generation != gen {
				return
			}
			e.fn(t, true)
		}
		return
	}

	if t.autoReverse {
		if t.curDir == Forward {
			t.curDir = Backward
		} else {
			t.curDir = Forward
		}
	}
	t.elapsed = min(overflow, t.duration)
	t.iterStart = true
}

// emit calls handlers while the timeline has not been stopped, paused or
// restarted since generation gen. It reports whether all handlers ran.
func (t *Timeline) emit(l *handlerList[func(*Timeline)], gen uint64) bool {
	for _, e := range l.entries {
		if t.generation != gen {
			return false
		}
		e.fn(t)
	}
	return t.generation == gen
}

// fireMarkers emits the markers between two playhead positions of the
// current play.
func (t *Timeline) fireMarkers(prev, next time.Duration, gen uint64) bool {
	if len(t.markers) == 0 || t.marker.len() == 0 {
		return true
	}
	lo, hi := prev, next
	if t.curDir == Backward {
		lo, hi = t.duration-next, t.duration-prev
	}
	hit := func(pos time.Duration) bool {
		if t.curDir == Backward {
			return pos >= lo && (pos < hi || (t.iterStart && pos == hi))
		}
		return (pos > lo || (t.iterStart && pos == lo)) && pos <= hi
	}
	visit := func(m Marker) bool {
		if !hit(m.Position) {
			return true
		}
		for _, e := range t.marker.entries {
			if t.generation != gen {
				return false
			}
			e.fn(t, m)
		}
		return t.generation == gen
	}
	if t.curDir == Backward {
		for i := len(t.markers) - 1; i >= 0; i-- {
			if !visit(t.markers[i]) {
				return false
			}
		}
		return true
	}
	for _, m := range t.markers {
		if !visit(m) {
			return false
		}
	}
	return true
}
