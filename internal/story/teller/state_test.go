package teller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller/internal/domain/story"
)

func TestState(t *testing.T) {
	var s State
	assert.Equal(t, Snapshot{Phase: PhaseIdle}, s.Snapshot())

	require.NoError(t, s.Begin())
	assert.Equal(t, PhaseLoading, s.Snapshot().Phase)
	assert.ErrorIs(t, s.Begin(), ErrSubmissionPending)

	res := &story.Result{Title: "t", Text: "s", Moral: "m", ImageURL: "data:image/jpeg;base64,AA=="}
	s.Succeed(res)
	assert.Equal(t, Snapshot{Phase: PhaseReady, Result: res}, s.Snapshot())

	// A new submission clears the previous story.
	require.NoError(t, s.Begin())
	assert.Equal(t, Snapshot{Phase: PhaseLoading}, s.Snapshot())

	boom := errors.New("boom")
	s.Fail(boom)
	assert.Equal(t, Snapshot{Phase: PhaseFailed, Err: boom}, s.Snapshot())

	require.NoError(t, s.Begin())
	s.Succeed(res)
	snap := s.Snapshot()
	assert.Nil(t, snap.Err)
	assert.Same(t, res, snap.Result)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.Equal(t, "ready", PhaseReady.String())
}
