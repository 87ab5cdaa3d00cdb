// Package modes orchestrates a numerical method through the four run modes:
// a single evolution, a grid-convergence study, a parameter sweep, and
// loading a stored run for plotting.
//
// Every mode walks the same lifecycle
//
//	validating -> running -> reducing -> done
//
// with a direct jump to failed from any non-terminal phase. Configuration
// problems are always reported while validating, before a solver is touched.
package modes

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Phase is a lifecycle state of a run.
type Phase string

const (
	Validating Phase = "validating"
	Running    Phase = "running"
	Reducing   Phase = "reducing"
	Done       Phase = "done"
	Failed     Phase = "failed"
)

var next = map[Phase][]Phase{
	Validating: {Running, Failed},
	Running:    {Reducing, Failed},
	Reducing:   {Done, Failed},
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool { return p == Done || p == Failed }

// Transition is one recorded phase change.
type Transition struct {
	From Phase     `json:"from"`
	To   Phase     `json:"to"`
	At   time.Time `json:"at"`
}

// Lifecycle is embedded in every mode result.
type Lifecycle struct {
	Phase       Phase        `json:"phase"`
	Transitions []Transition `json:"transitions"`

	log *zap.Logger
}

func newLifecycle(log *zap.Logger) Lifecycle {
	l := Lifecycle{log: log}
	l.record("", Validating)
	return l
}

func (l *Lifecycle) record(from, to Phase) {
	l.Phase = to
	l.Transitions = append(l.Transitions, Transition{From: from, To: to, At: time.Now()})
	if l.log != nil {
		l.log.Debug("phase", zap.String("from", string(from)), zap.String("to", string(to)))
	}
}

func (l *Lifecycle) enter(to Phase) {
	for _, p := range next[l.Phase] {
		if p == to {
			l.record(l.Phase, to)
			return
		}
	}
	panic(fmt.Sprintf("modes: illegal transition %s -> %s", l.Phase, to))
}

// fail moves to Failed and passes err through.
func (l *Lifecycle) fail(err error) error {
	if !l.Phase.Terminal() {
		if l.log != nil {
			l.log.Warn("run failed", zap.String("phase", string(l.Phase)), zap.Error(err))
		}
		l.record(l.Phase, Failed)
	}
	return err
}
