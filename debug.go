package arbor

import (
	"fmt"
	"io"
	"os"
	"time"
)

// globalDebug enables the extra tree checks below. It is switched on by any
// stage created with StageConfig.Debug, or by SetDebugMode.
var globalDebug bool

// debugOut receives debug diagnostics.
var debugOut io.Writer = os.Stderr

// SetDebugMode toggles the disposed-actor and tree-shape checks for every
// stage. w receives diagnostics; nil keeps the current writer.
func SetDebugMode(enabled bool, w io.Writer) {
	globalDebug = enabled
	if w != nil {
		debugOut = w
	}
}

// logf writes one prefixed diagnostic line.
func logf(format string, args ...any) {
	_, _ = fmt.Fprintf(debugOut, "[arbor] "+format+"\n", args...)
}

// frameStats holds per-frame timing. Only populated in debug mode.
type frameStats struct {
	postTime     time.Duration
	eventTime    time.Duration
	timelineTime time.Duration
	layoutTime   time.Duration
	layoutPasses int
	paintTime    time.Duration
	paintNodes   int
}

func (s *Stage) debugLogUpdate(st frameStats) {
	if !s.debug {
		return
	}
	total := st.postTime + st.eventTime + st.timelineTime + st.layoutTime
	logf("posted: %v | events: %v | timelines: %v | layout: %v (%d passes) | total: %v",
		st.postTime, st.eventTime, st.timelineTime, st.layoutTime, st.layoutPasses, total)
}

func (s *Stage) debugLogPaint(st frameStats) {
	if !s.debug {
		return
	}
	logf("paint: %v | nodes: %d", st.paintTime, st.paintNodes)
}

// debugCheckDestroyed panics with a descriptive message when a destroyed
// actor is used in a tree operation.
func debugCheckDestroyed(a *Actor, op string) {
	if a.destroyed {
		panic(fmt.Sprintf("arbor debug: %s on destroyed actor %q (ID was %d)", op, a.Name, a.ID))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(a *Actor) {
	depth := 0
	for p := a; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logf("warning: tree depth %d exceeds %d (actor %q)", depth, debugMaxTreeDepth, a.Name)
	}
}

// debugCheckChildCount warns if an actor has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(a *Actor) {
	if a.nChildren > debugMaxChildCount {
		logf("warning: actor %q has %d children (threshold %d)", a.Name, a.nChildren, debugMaxChildCount)
	}
}
