package transact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepLogRecordsForwardLifecycle(t *testing.T) {
	log := NewStepLog("tx-1")
	assert.Equal(t, "tx-1", log.TransactionID())

	require.NoError(t, log.Record("s-1", EventStarted))
	require.NoError(t, log.Record("s-1", EventSucceeded))

	assert.False(t, log.Unwinding())
	assert.Equal(t, []StepEvent{
		{StepID: "s-1", Type: EventStarted},
		{StepID: "s-1", Type: EventSucceeded},
	}, log.Events())
}

func TestStepLogFailureStartsUnwinding(t *testing.T) {
	log := NewStepLog("tx-1")
	require.NoError(t, log.Record("s-1", EventStarted))
	require.NoError(t, log.Record("s-1", EventFailed))

	assert.True(t, log.Unwinding())
}

func TestStepLogUndoOfSucceededStep(t *testing.T) {
	log := NewStepLog("tx-1")
	require.NoError(t, log.Record("s-1", EventStarted))
	require.NoError(t, log.Record("s-1", EventSucceeded))
	require.NoError(t, log.Record("s-1", EventUndoStarted))
	require.NoError(t, log.Record("s-1", EventUndoFinished))

	assert.True(t, log.Unwinding())
}

func TestStepLogUndoOfNeverStartedStep(t *testing.T) {
	// A forced rollback compensates steps that never ran forward.
	log := NewStepLog("tx-1")
	require.NoError(t, log.Record("s-1", EventUndoStarted))
	require.NoError(t, log.Record("s-1", EventUndoFailed))

	assert.True(t, log.Unwinding())
}

func TestStepLogRejectsIllegalTransitions(t *testing.T) {
	log := NewStepLog("tx-1")

	// Succeeding before starting.
	assert.Error(t, log.Record("s-1", EventSucceeded))

	// Starting twice.
	require.NoError(t, log.Record("s-2", EventStarted))
	assert.Error(t, log.Record("s-2", EventStarted))

	// Undoing a step whose undo already finished.
	require.NoError(t, log.Record("s-2", EventSucceeded))
	require.NoError(t, log.Record("s-2", EventUndoStarted))
	require.NoError(t, log.Record("s-2", EventUndoFinished))
	assert.Error(t, log.Record("s-2", EventUndoStarted))
}

func TestStepLogRejectedEventsAreNotAppended(t *testing.T) {
	log := NewStepLog("tx-1")
	require.Error(t, log.Record("s-1", EventSucceeded))
	assert.Empty(t, log.Events())
}

func TestStepEventTypeString(t *testing.T) {
	assert.Equal(t, "started", EventStarted.String())
	assert.Equal(t, "undo_failed", EventUndoFailed.String())
}
