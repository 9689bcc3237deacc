package cvgen

import "go.uber.org/zap"

// JobState is a stage of the generation state machine.
//
//	Idle -> Resolving -> Staging -> Compiling -> Finalizing -> CleaningUp -> Done
//
// Any stage may fail; a failing job still passes through CleaningUp before
// reaching Failed.
type JobState int

const (
	StateIdle JobState = iota
	StateResolving
	StateStaging
	StateCompiling
	StateFinalizing
	StateCleaningUp
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateResolving:  "resolving",
	StateStaging:    "staging",
	StateCompiling:  "compiling",
	StateFinalizing: "finalizing",
	StateCleaningUp: "cleaning_up",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s JobState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a job.
func (s JobState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition is one state change of one job.
type Transition struct {
	JobID string
	From  JobState
	To    JobState
}

// StateObserver receives transitions as they happen.
type StateObserver func(Transition)

// jobTracker drives one job's state and fans transitions out to observers.
type jobTracker struct {
	id        string
	state     JobState
	observers []StateObserver
	log       *zap.Logger
}

func newJobTracker(id string, observers []StateObserver, log *zap.Logger) *jobTracker {
	return &jobTracker{id: id, state: StateIdle, observers: observers, log: log}
}

func (t *jobTracker) enter(s JobState) {
	tr := Transition{JobID: t.id, From: t.state, To: s}
	t.state = s
	t.log.Debug("state", zap.Stringer("from", tr.From), zap.Stringer("state", tr.To))
	for _, fn := range t.observers {
		fn(tr)
	}
}
