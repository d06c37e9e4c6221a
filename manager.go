package transact

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"github.com/fortressi/transact/set"
)

// DefaultTimeoutSeconds is the transaction timeout applied when Begin is
// given a non-positive value.
const DefaultTimeoutSeconds = 60

// TxID is an opaque handle to a transaction owned by a Manager. All mutation
// happens inside the Manager keyed by this handle; callers read state through
// snapshots returned by GetTransaction and GetAllTransactions, which always
// reflect the current registry entry.
type TxID string

// String implements the fmt.Stringer interface for TxID.
func (id TxID) String() string {
	return string(id)
}

// Manager creates, manages, and executes saga-style transactions.
//
// Steps execute synchronously in insertion order on the calling goroutine. On
// the first forward failure, every previously completed step is compensated
// in reverse order. A single mutex serializes all registry and transaction
// mutation; handlers run under it, so they must not call back into the
// Manager.
type Manager struct {
	mu       sync.Mutex
	handlers *HandlerRegistry
	registry *btree.Map[string, *Transaction]
	logs     map[string]*StepLog
	logger   *slog.Logger
	now      func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHandlers supplies a pre-populated handler registry. Without it the
// Manager starts with an empty registry and every commit is a dry run until
// handlers are registered.
func WithHandlers(reg *HandlerRegistry) ManagerOption {
	return func(m *Manager) {
		if reg != nil {
			m.handlers = reg
		}
	}
}

// WithLogger attaches a logger for step-level diagnostics. The default
// discards everything; in particular, compensation failures are only
// observable through an attached logger or the step log.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used for CreatedAt stamps and the
// commit-entry expiry check.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a new Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		handlers: NewHandlerRegistry(),
		registry: btree.NewMap[string, *Transaction](16),
		logs:     make(map[string]*StepLog),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterHandler adds an action handler to the Manager's registry.
func (m *Manager) RegisterHandler(action string, fn HandlerFunc) error {
	return m.handlers.Register(action, fn)
}

// Handlers returns the Manager's handler registry.
func (m *Manager) Handlers() *HandlerRegistry {
	return m.handlers
}

// Begin creates a new transaction in the pending state and returns its
// handle. A non-positive timeout falls back to DefaultTimeoutSeconds.
func (m *Manager) Begin(timeoutSeconds int) TxID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}

	id := uuid.New().String()
	tx := &Transaction{
		TransactionID:  id,
		Steps:          make([]TransactionStep, 0),
		State:          StatePending,
		CreatedAt:      m.now().UTC(),
		TimeoutSeconds: timeoutSeconds,
	}
	m.registry.Set(id, tx)
	m.logs[id] = NewStepLog(id)

	m.logger.Debug("transaction created",
		"transactionId", id, "timeoutSeconds", timeoutSeconds)
	return TxID(id)
}

// AddStep appends a step to a pending transaction and returns a snapshot of
// the created step. Transactions in any other state reject new steps with an
// InvalidStateError.
func (m *Manager) AddStep(id TxID, agentID, action string, data map[string]any, compensatingAction string) (TransactionStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.registry.Get(string(id))
	if !ok {
		return TransactionStep{}, notFound("add step", id)
	}
	if tx.State != StatePending {
		return TransactionStep{}, invalidState("add steps to", tx)
	}

	step := TransactionStep{
		StepID:             uuid.New().String(),
		AgentID:            agentID,
		Action:             action,
		Data:               cloneData(data),
		CompensatingAction: compensatingAction,
	}
	tx.Steps = append(tx.Steps, step)
	m.registry.Set(string(id), tx)

	return step.Clone(), nil
}

// Commit executes all steps of a pending transaction in order.
//
// The transaction transitions to active before execution begins. If its
// deadline has already passed it transitions straight to failed and no step
// runs, forward or compensating. Otherwise each step's forward handler runs
// in turn; on the first failure the completed prefix is compensated in
// reverse order and the transaction ends rolled_back. If every step succeeds
// the transaction ends committed.
func (m *Manager) Commit(ctx context.Context, id TxID) (TransactionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.registry.Get(string(id))
	if !ok {
		return TransactionResult{}, notFound("commit", id)
	}
	if tx.State != StatePending {
		return TransactionResult{}, invalidState("commit", tx)
	}

	tx.State = StateActive

	if m.now().After(tx.Deadline()) {
		tx.State = StateFailed
		m.logger.Debug("transaction expired before commit",
			"transactionId", tx.TransactionID, "timeoutSeconds", tx.TimeoutSeconds)
		return TransactionResult{
			TransactionID:  tx.TransactionID,
			State:          StateFailed,
			CompletedSteps: []string{},
			Err:            fmt.Sprintf("transaction expired before commit (timeout %ds exceeded)", tx.TimeoutSeconds),
		}, nil
	}

	stepLog := m.stepLogLocked(tx.TransactionID)
	completed := make([]string, 0, len(tx.Steps))

	for _, step := range tx.Steps {
		m.record(stepLog, step.StepID, EventStarted)
		if err := m.executeStep(ctx, step); err != nil {
			m.record(stepLog, step.StepID, EventFailed)
			m.logger.Debug("step failed",
				"transactionId", tx.TransactionID, "stepId", step.StepID,
				"action", step.Action, "error", err)

			compensated := m.compensate(ctx, tx, stepLog, completed)
			tx.State = StateRolledBack
			return TransactionResult{
				TransactionID:  tx.TransactionID,
				State:          StateRolledBack,
				CompletedSteps: compensated,
				FailedStep:     step.StepID,
				Err:            err.Error(),
			}, nil
		}
		m.record(stepLog, step.StepID, EventSucceeded)
		completed = append(completed, step.StepID)
	}

	tx.State = StateCommitted
	m.logger.Debug("transaction committed",
		"transactionId", tx.TransactionID, "steps", len(completed))
	return TransactionResult{
		TransactionID:  tx.TransactionID,
		State:          StateCommitted,
		CompletedSteps: completed,
	}, nil
}

// Rollback force-compensates every step of a transaction, in reverse
// insertion order, and moves it to rolled_back.
//
// There is deliberately no state guard: rollback is a forced transition from
// any state, including committed and failed, and it treats every step as
// completed whether or not its forward action ever ran. The result never
// carries FailedStep or Err.
func (m *Manager) Rollback(ctx context.Context, id TxID) (TransactionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.registry.Get(string(id))
	if !ok {
		return TransactionResult{}, notFound("rollback", id)
	}

	stepLog := m.stepLogLocked(tx.TransactionID)
	compensated := m.compensate(ctx, tx, stepLog, tx.StepIDs())
	tx.State = StateRolledBack

	m.logger.Debug("transaction rolled back",
		"transactionId", tx.TransactionID, "steps", len(compensated))
	return TransactionResult{
		TransactionID:  tx.TransactionID,
		State:          StateRolledBack,
		CompletedSteps: compensated,
	}, nil
}

// GetTransaction returns a snapshot of the transaction with the given ID.
func (m *Manager) GetTransaction(id TxID) (Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.registry.Get(string(id))
	if !ok {
		return Transaction{}, false
	}
	return tx.Clone(), true
}

// GetAllTransactions returns snapshots of every registered transaction,
// ordered by transaction ID.
func (m *Manager) GetAllTransactions() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]Transaction, 0, m.registry.Len())
	m.registry.Scan(func(_ string, tx *Transaction) bool {
		all = append(all, tx.Clone())
		return true
	})
	return all
}

// RegisterTransaction inserts or overwrites a transaction in the registry.
// It is used to rehydrate persisted state; structural validity of tx is the
// caller's responsibility (decoding already rejects unknown states).
func (m *Manager) RegisterTransaction(tx Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := tx.Clone()
	m.registry.Set(c.TransactionID, &c)
	if _, ok := m.logs[c.TransactionID]; !ok {
		m.logs[c.TransactionID] = NewStepLog(c.TransactionID)
	}
}

// StepLog returns the event trace recorded for a transaction.
func (m *Manager) StepLog(id TxID) (*StepLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stepLog, ok := m.logs[string(id)]
	return stepLog, ok
}

// executeStep invokes the registered handler for the step's action. A step
// whose action has no handler is a no-op; dry runs rely on this.
func (m *Manager) executeStep(ctx context.Context, step TransactionStep) error {
	handler, ok := m.handlers.Get(step.Action)
	if !ok {
		return nil
	}
	return handler(ctx, step.Action, step.Data)
}

// compensate runs compensating actions for the completed steps in reverse
// insertion order. Every processed step ID is reported, whether or not an
// undo handler was declared, found, or succeeded. Compensation is
// best-effort: a failing undo handler is recorded in the step log, logged,
// and then discarded. It is never retried and never surfaces in the result.
func (m *Manager) compensate(ctx context.Context, tx *Transaction, stepLog *StepLog, completedIDs []string) []string {
	done := set.New(completedIDs...)

	compensated := make([]string, 0, done.Len())
	for i := len(tx.Steps) - 1; i >= 0; i-- {
		step := tx.Steps[i]
		if !done.Contains(step.StepID) {
			continue
		}

		if step.CompensatingAction != "" {
			if handler, ok := m.handlers.Get(step.CompensatingAction); ok {
				m.record(stepLog, step.StepID, EventUndoStarted)
				if err := handler(ctx, step.CompensatingAction, step.Data); err != nil {
					m.record(stepLog, step.StepID, EventUndoFailed)
					m.logger.Debug("compensation failed",
						"transactionId", tx.TransactionID, "stepId", step.StepID,
						"action", step.CompensatingAction, "error", err)
				} else {
					m.record(stepLog, step.StepID, EventUndoFinished)
				}
			}
		}
		compensated = append(compensated, step.StepID)
	}
	return compensated
}

// stepLogLocked returns the step log for a transaction, creating one if the
// transaction was rehydrated without it. Callers must hold m.mu.
func (m *Manager) stepLogLocked(txID string) *StepLog {
	stepLog, ok := m.logs[txID]
	if !ok {
		stepLog = NewStepLog(txID)
		m.logs[txID] = stepLog
	}
	return stepLog
}

// record appends an event to the step log, dropping out-of-band transitions
// such as the undo events of a repeated forced rollback. The trace stays
// authoritative for the first pass over each step.
func (m *Manager) record(stepLog *StepLog, stepID string, eventType StepEventType) {
	if err := stepLog.Record(stepID, eventType); err != nil {
		m.logger.Debug("step log event dropped",
			"stepId", stepID, "event", eventType.String(), "error", err)
	}
}
