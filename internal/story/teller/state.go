package teller

import (
	"errors"
	"sync"

	"storyteller/internal/domain/story"
)

// ErrSubmissionPending rejects a submission made while another is in flight.
var ErrSubmissionPending = errors.New("a story is already being generated")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseFailed
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "failed"
	case PhaseReady:
		return "ready"
	}
	return "idle"
}

// Snapshot is a point-in-time view of the state. At most one of Result and
// Err is set, and neither is while loading.
type Snapshot struct {
	Phase  Phase
	Result *story.Result
	Err    error
}

// State holds the outcome of the latest submission.
type State struct {
	mu     sync.Mutex
	phase  Phase
	result *story.Result
	err    error
}

// Begin marks a submission as started and clears the previous outcome.
func (s *State) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseLoading {
		return ErrSubmissionPending
	}
	s.phase, s.result, s.err = PhaseLoading, nil, nil
	return nil
}

func (s *State) Succeed(res *story.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase, s.result, s.err = PhaseReady, res, nil
}

func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase, s.result, s.err = PhaseFailed, nil, err
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Phase: s.phase, Result: s.result, Err: s.err}
}
