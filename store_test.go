package transact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransactions() []Transaction {
	return []Transaction{
		{
			TransactionID: "tx-1",
			Steps: []TransactionStep{
				{StepID: "s-1", AgentID: "svc-a", Action: "create", Data: map[string]any{"id": float64(1)}, CompensatingAction: "delete"},
			},
			State:          StateCommitted,
			CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			TimeoutSeconds: 60,
		},
		{
			TransactionID:  "tx-2",
			Steps:          []TransactionStep{},
			State:          StatePending,
			CreatedAt:      time.Date(2025, 1, 2, 4, 0, 0, 0, time.UTC),
			TimeoutSeconds: 120,
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	txs := sampleTransactions()
	require.NoError(t, store.Save(ctx, txs))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, txs, loaded)
}

func TestMemoryStoreEmptyLoad(t *testing.T) {
	loaded, err := NewMemoryStore().Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMemoryStoreDoesNotAliasCaller(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	txs := sampleTransactions()
	require.NoError(t, store.Save(ctx, txs))

	txs[0].State = StateFailed
	txs[0].Steps[0].Data["id"] = float64(99)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, loaded[0].State)
	assert.Equal(t, float64(1), loaded[0].Steps[0].Data["id"])
}

func TestMemoryStoreSaveReplacesSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleTransactions()))
	require.NoError(t, store.Save(ctx, []Transaction{}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
