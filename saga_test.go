package transact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorExecutesInRegistrationOrder(t *testing.T) {
	rec := &callRecorder{}
	manager := NewManager()
	require.NoError(t, manager.RegisterHandler("create_user", rec.ok()))
	require.NoError(t, manager.RegisterHandler("init_quota", rec.ok()))
	require.NoError(t, manager.RegisterHandler("send_email", rec.ok()))

	saga := NewSagaOrchestrator(manager)
	saga.Register("user_service", "create_user", map[string]any{"user_id": "u-001"}, "delete_user")
	saga.Register("quota_service", "init_quota", map[string]any{"user_id": "u-001"}, "reset_quota")
	saga.Register("email_service", "send_email", map[string]any{"user_id": "u-001"}, "cancel_email")
	assert.Equal(t, 3, saga.Len())

	result, err := saga.Execute(context.Background(), 60)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, result.State)
	assert.Len(t, result.CompletedSteps, 3)
	assert.Equal(t, []string{"create_user", "init_quota", "send_email"}, rec.calls)

	tx, ok := manager.GetTransaction(TxID(result.TransactionID))
	require.True(t, ok)
	assert.Equal(t, StateCommitted, tx.State)
	assert.Equal(t, result.CompletedSteps, tx.StepIDs())
}

func TestOrchestratorFailureCompensates(t *testing.T) {
	rec := &callRecorder{}
	manager := NewManager()
	require.NoError(t, manager.RegisterHandler("create_user", rec.ok()))
	require.NoError(t, manager.RegisterHandler("init_quota", rec.fail("quota exhausted")))
	require.NoError(t, manager.RegisterHandler("delete_user", rec.ok()))

	saga := NewSagaOrchestrator(manager)
	saga.Register("user_service", "create_user", nil, "delete_user")
	saga.Register("quota_service", "init_quota", nil, "reset_quota")

	result, err := saga.Execute(context.Background(), 60)
	require.NoError(t, err)

	assert.Equal(t, StateRolledBack, result.State)
	assert.Equal(t, "quota exhausted", result.Err)
	assert.Equal(t, []string{"create_user", "init_quota", "delete_user"}, rec.calls)
}

func TestOrchestratorEmptyExecute(t *testing.T) {
	saga := NewSagaOrchestrator(nil)

	result, err := saga.Execute(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, result.State)
	assert.Empty(t, result.CompletedSteps)
}

func TestOrchestratorDefaultManager(t *testing.T) {
	saga := NewSagaOrchestrator(nil)
	require.NotNil(t, saga.Manager())

	saga.Register("svc-a", "create", nil, "delete")
	result, err := saga.Execute(context.Background(), 0)
	require.NoError(t, err)

	// No handlers registered on the default Manager: a dry run.
	assert.Equal(t, StateCommitted, result.State)
	assert.Len(t, result.CompletedSteps, 1)

	tx, ok := saga.Manager().GetTransaction(TxID(result.TransactionID))
	require.True(t, ok)
	assert.Equal(t, DefaultTimeoutSeconds, tx.TimeoutSeconds)
}
