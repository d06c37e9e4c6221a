package transact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStateValid(t *testing.T) {
	for _, state := range []TransactionState{StatePending, StateActive, StateCommitted, StateRolledBack, StateFailed} {
		assert.True(t, state.Valid(), "state %q should be valid", state)
	}
	assert.False(t, TransactionState("committed ").Valid())
	assert.False(t, TransactionState("COMMITTED").Valid())
	assert.False(t, TransactionState("").Valid())
}

func TestTransactionStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateActive.Terminal())
	assert.True(t, StateCommitted.Terminal())
	assert.True(t, StateRolledBack.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestTransactionStateUnmarshalRejectsUnknown(t *testing.T) {
	var state TransactionState
	require.NoError(t, json.Unmarshal([]byte(`"rolled_back"`), &state))
	assert.Equal(t, StateRolledBack, state)

	err := json.Unmarshal([]byte(`"exploded"`), &state)
	assert.Error(t, err, "unknown state values must not round-trip silently")
}

func TestTransactionWireShape(t *testing.T) {
	tx := Transaction{
		TransactionID: "tx-1",
		Steps: []TransactionStep{
			{
				StepID:             "s-1",
				AgentID:            "svc-a",
				Action:             "create",
				Data:               map[string]any{"id": float64(1)},
				CompensatingAction: "delete",
			},
		},
		State:          StatePending,
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TimeoutSeconds: 60,
	}

	raw, err := json.Marshal(tx)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"transactionId", "steps", "state", "createdAt", "timeoutSeconds"} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, "2025-01-02T03:04:05Z", doc["createdAt"])

	step := doc["steps"].([]any)[0].(map[string]any)
	for _, key := range []string{"stepId", "agentId", "action", "data", "compensatingAction"} {
		assert.Contains(t, step, key)
	}

	var back Transaction
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, tx, back)
}

func TestTransactionDeadline(t *testing.T) {
	tx := Transaction{
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TimeoutSeconds: 90,
	}
	assert.Equal(t, time.Date(2025, 1, 2, 3, 5, 35, 0, time.UTC), tx.Deadline())
}

func TestTransactionCloneIsDeep(t *testing.T) {
	tx := Transaction{
		TransactionID: "tx-1",
		Steps: []TransactionStep{
			{StepID: "s-1", Action: "create", Data: map[string]any{"id": 1}},
		},
		State: StatePending,
	}

	clone := tx.Clone()
	clone.Steps[0].Data["id"] = 2
	clone.Steps[0].Action = "mutated"
	clone.State = StateFailed

	assert.Equal(t, 1, tx.Steps[0].Data["id"])
	assert.Equal(t, "create", tx.Steps[0].Action)
	assert.Equal(t, StatePending, tx.State)
}

func TestStepCloneNilData(t *testing.T) {
	step := TransactionStep{StepID: "s-1", Action: "create"}
	clone := step.Clone()
	assert.NotNil(t, clone.Data, "cloned payload is always a usable map")
	assert.Empty(t, clone.Data)
}
