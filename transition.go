package arbor

import (
	"fmt"
	"time"
)

// Transition animates one named property of an Animatable target through
// an Interval, driven by a Timeline. The target is not owned.
//
// When the initial value of the interval is unset it is read from the
// target when the timeline starts. A transition that fails to compute a
// value, or whose target rejects the property, becomes inert: it records
// the error and pushes no further values, while the timeline and any other
// transition bound to it keep running.
type Transition struct {
	property         string
	interval         *Interval
	target           Animatable
	timeline         *Timeline
	removeOnComplete bool

	owner *Actor
	name  string

	err       error
	cancelled bool
	handles   [3]Handle
}

// NewTransition binds interval to property on a timeline. Several
// transitions may share a timeline. Set the target with SetAnimatable, or
// add the transition to an actor with Actor.AddTransition.
func NewTransition(property string, interval *Interval, tl *Timeline) *Transition {
	if interval == nil || tl == nil {
		panic("arbor: NewTransition needs an interval and a timeline")
	}
	tr := &Transition{
		property:         property,
		interval:         interval,
		timeline:         tl,
		removeOnComplete: true,
	}
	tr.handles[0] = tl.OnStarted(func(*Timeline) { tr.begin() })
	tr.handles[1] = tl.OnNewFrame(func(t *Timeline) { tr.push(t.Progress()) })
	tr.handles[2] = tl.OnStopped(func(_ *Timeline, finished bool) {
		if finished && tr.removeOnComplete {
			tr.detach()
		}
	})
	return tr
}

func (tr *Transition) Property() string       { return tr.property }
func (tr *Transition) Interval() *Interval    { return tr.interval }
func (tr *Transition) Timeline() *Timeline    { return tr.timeline }
func (tr *Transition) Animatable() Animatable { return tr.target }

// SetAnimatable sets the target receiving values.
func (tr *Transition) SetAnimatable(target Animatable) { tr.target = target }

// SetRemoveOnComplete controls whether the transition detaches itself from
// its actor once the timeline finishes. The default is true.
func (tr *Transition) SetRemoveOnComplete(v bool) { tr.removeOnComplete = v }

func (tr *Transition) RemoveOnComplete() bool { return tr.removeOnComplete }

// Err returns the error that made the transition inert, or nil.
func (tr *Transition) Err() error { return tr.err }

// IsInert reports whether the transition stopped pushing values because of
// an error.
func (tr *Transition) IsInert() bool { return tr.err != nil }

// IsCancelled reports whether Cancel was called.
func (tr *Transition) IsCancelled() bool { return tr.cancelled }

// Start starts the timeline.
func (tr *Transition) Start() { tr.timeline.Start() }

// Cancel stops the transition where it is, without applying the final
// value. The timeline is stopped too unless other transitions still use it.
func (tr *Transition) Cancel() {
	if tr.cancelled {
		return
	}
	tr.cancelled = true
	tl := tr.timeline
	tr.detach()
	if tl.newFrame.len() == 0 {
		tl.Stop()
	}
}

// begin fills a missing initial value from the target.
func (tr *Transition) begin() {
	if tr.err != nil || tr.cancelled || tr.target == nil {
		return
	}
	if tr.interval.Initial() != nil {
		return
	}
	cur, ok := tr.target.AnimatableProperty(tr.property)
	if !ok {
		tr.fail(fmt.Errorf("%q: %w", tr.property, ErrUnknownProperty))
		return
	}
	if err := tr.interval.SetInitial(cur); err != nil {
		tr.fail(err)
	}
}

func (tr *Transition) push(p float64) {
	if tr.err != nil || tr.cancelled || tr.target == nil {
		return
	}
	v, err := tr.interval.Compute(p)
	if err != nil {
		tr.fail(err)
		return
	}
	if !tr.target.SetAnimatableProperty(tr.property, v) {
		tr.fail(fmt.Errorf("%q rejected %T: %w", tr.property, v, ErrUnknownProperty))
	}
}

func (tr *Transition) fail(err error) {
	tr.err = err
	if globalDebug {
		logf("transition %q is inert: %v", tr.property, err)
	}
}

// detach disconnects from the timeline and the owning actor.
func (tr *Transition) detach() {
	for i := range tr.handles {
		tr.handles[i].Remove()
		tr.handles[i] = Handle{}
	}
	if a := tr.owner; a != nil {
		if a.transitions[tr.name] == tr {
			delete(a.transitions, tr.name)
		}
		tr.owner = nil
	}
}

// --- Actor integration ---

// AddTransition attaches tr under name and starts it. A transition already
// registered under the same name is cancelled and replaced. If tr has no
// target the actor becomes its target.
func (a *Actor) AddTransition(name string, tr *Transition) {
	if a.destroyed {
		return
	}
	if old := a.transitions[name]; old != nil && old != tr {
		old.Cancel()
	}
	if tr.owner != nil && tr.owner != a {
		tr.owner.RemoveTransition(tr.name)
	} else if tr.owner == a && tr.name != name && a.transitions[tr.name] == tr {
		delete(a.transitions, tr.name)
	}
	if a.transitions == nil {
		a.transitions = make(map[string]*Transition)
	}
	tr.owner = a
	tr.name = name
	if tr.target == nil {
		tr.target = a
	}
	a.transitions[name] = tr
	if a.stage != nil {
		a.stage.AddTimeline(tr.timeline)
	}
	tr.timeline.Start()
}

// RemoveTransition cancels the transition registered under name.
func (a *Actor) RemoveTransition(name string) {
	if tr := a.transitions[name]; tr != nil {
		tr.Cancel()
	}
}

// Transition returns the transition registered under name, or nil.
func (a *Actor) Transition(name string) *Transition { return a.transitions[name] }

// RemoveAllTransitions cancels every transition on the actor.
func (a *Actor) RemoveAllTransitions() { a.cancelTransitions() }

func (a *Actor) cancelTransitions() {
	for _, tr := range a.transitions {
		tr.Cancel()
	}
	a.transitions = nil
}

func (a *Actor) cancelSubtreeTransitions() {
	a.cancelTransitions()
	for c := a.firstChild; c != nil; c = c.nextSibling {
		c.cancelSubtreeTransitions()
	}
}

// scheduleTransitions registers the subtree's timelines with a stage.
func (a *Actor) scheduleTransitions(s *Stage) {
	for _, tr := range a.transitions {
		s.AddTimeline(tr.timeline)
	}
}

// Animate creates and starts a transition of prop from its current value
// to to. Numeric values are converted to the property's type.
func (a *Actor) Animate(prop string, to any, d time.Duration, mode ProgressMode) (*Transition, error) {
	cur, ok := a.AnimatableProperty(prop)
	if !ok {
		return nil, fmt.Errorf("%q: %w", prop, ErrUnknownProperty)
	}
	if f, isNum := toFloat(to); isNum {
		if _, curNum := cur.(float64); curNum {
			to = f
		}
	}
	iv, err := NewInterval(cur, to)
	if err != nil {
		return nil, fmt.Errorf("animate %q: %w", prop, err)
	}
	tl := NewTimeline(d)
	tl.SetProgressMode(mode)
	tr := NewTransition(prop, iv, tl)
	a.AddTransition(prop, tr)
	return tr, nil
}
