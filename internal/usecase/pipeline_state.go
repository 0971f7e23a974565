package usecase

import "fmt"

// PipelineState is the stage a search run is in
type PipelineState string

const (
	StateIdle        PipelineState = "IDLE"
	StateFanning     PipelineState = "FANNING"
	StateNormalizing PipelineState = "NORMALIZING"
	StateFiltering   PipelineState = "FILTERING"
	StateSorting     PipelineState = "SORTING"
	StateDone        PipelineState = "DONE"
	StateFailed      PipelineState = "FAILED"
)

// IsTerminal reports whether the state ends a run
func (s PipelineState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// pipelineRun tracks the state of a single search. It is owned by one goroutine.
type pipelineRun struct {
	state   PipelineState
	history []PipelineState
}

func newPipelineRun() *pipelineRun {
	return &pipelineRun{state: StateIdle, history: []PipelineState{StateIdle}}
}

// advance moves the run from the expected state to the next one
func (r *pipelineRun) advance(from, to PipelineState) error {
	if r.state != from {
		return fmt.Errorf("invalid pipeline transition: expected %s, got %s", from, r.state)
	}
	if !isAllowedPipelineTransition(from, to) {
		return fmt.Errorf("disallowed pipeline transition: %s -> %s", from, to)
	}
	r.state = to
	r.history = append(r.history, to)
	return nil
}

// fail moves any non-terminal run to FAILED
func (r *pipelineRun) fail() {
	if r.state.IsTerminal() {
		return
	}
	r.state = StateFailed
	r.history = append(r.history, StateFailed)
}

func isAllowedPipelineTransition(from, to PipelineState) bool {
	switch from {
	case StateIdle:
		return to == StateFanning
	case StateFanning:
		return to == StateNormalizing
	case StateNormalizing:
		return to == StateFiltering
	case StateFiltering:
		return to == StateSorting
	case StateSorting:
		return to == StateDone
	default:
		return false
	}
}
