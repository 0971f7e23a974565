package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRun_HappyPath(t *testing.T) {
	run := newPipelineRun()

	steps := []PipelineState{StateFanning, StateNormalizing, StateFiltering, StateSorting, StateDone}
	from := StateIdle
	for _, to := range steps {
		require.NoError(t, run.advance(from, to))
		from = to
	}

	assert.Equal(t, StateDone, run.state)
	assert.True(t, run.state.IsTerminal())
	assert.Equal(t, []PipelineState{StateIdle, StateFanning, StateNormalizing, StateFiltering, StateSorting, StateDone}, run.history)
}

func TestPipelineRun_RejectsSkippedStages(t *testing.T) {
	run := newPipelineRun()

	assert.Error(t, run.advance(StateIdle, StateSorting))
	assert.Error(t, run.advance(StateFanning, StateNormalizing), "run is not in FANNING")
	assert.Equal(t, StateIdle, run.state)
}

func TestPipelineRun_Fail(t *testing.T) {
	run := newPipelineRun()
	require.NoError(t, run.advance(StateIdle, StateFanning))

	run.fail()
	assert.Equal(t, StateFailed, run.state)

	run.fail()
	assert.Equal(t, []PipelineState{StateIdle, StateFanning, StateFailed}, run.history)

	assert.Error(t, run.advance(StateFailed, StateIdle))
}

func TestPipelineState_IsTerminal(t *testing.T) {
	for _, s := range []PipelineState{StateIdle, StateFanning, StateNormalizing, StateFiltering, StateSorting} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}
