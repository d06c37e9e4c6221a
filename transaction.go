package transact

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransactionState is the lifecycle state of a Transaction. Only the five
// defined values are legal; UnmarshalJSON rejects anything else so decoded
// transactions cannot carry an unknown state.
type TransactionState string

const (
	StatePending    TransactionState = "pending"
	StateActive     TransactionState = "active"
	StateCommitted  TransactionState = "committed"
	StateRolledBack TransactionState = "rolled_back"
	StateFailed     TransactionState = "failed"
)

// Valid reports whether s is one of the defined states.
func (s TransactionState) Valid() bool {
	switch s {
	case StatePending, StateActive, StateCommitted, StateRolledBack, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether s permits no further forward progress. Rollback
// ignores this; it forces rolled_back from any state.
func (s TransactionState) Terminal() bool {
	switch s {
	case StateCommitted, StateRolledBack, StateFailed:
		return true
	}
	return false
}

// String implements the fmt.Stringer interface for TransactionState.
func (s TransactionState) String() string {
	return string(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface for TransactionState.
func (s *TransactionState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	state := TransactionState(str)
	if !state.Valid() {
		return fmt.Errorf("invalid transaction state: %q", str)
	}
	*s = state
	return nil
}

// TransactionStep is one unit of work within a transaction: a forward action
// plus an optional compensating action that undoes it during rollback. Steps
// are immutable once created; the engine treats Action, AgentID and Data as
// opaque.
type TransactionStep struct {
	StepID             string         `json:"stepId"`
	AgentID            string         `json:"agentId"`
	Action             string         `json:"action"`
	Data               map[string]any `json:"data"`
	CompensatingAction string         `json:"compensatingAction,omitempty"`
}

// Clone returns a copy of the step with its own Data map.
func (s TransactionStep) Clone() TransactionStep {
	c := s
	c.Data = cloneData(s.Data)
	return c
}

// Transaction is an ordered sequence of steps executed as a unit. Insertion
// order is commit order; compensation runs in the reverse of it.
type Transaction struct {
	TransactionID  string            `json:"transactionId"`
	Steps          []TransactionStep `json:"steps"`
	State          TransactionState  `json:"state"`
	CreatedAt      time.Time         `json:"createdAt"`
	TimeoutSeconds int               `json:"timeoutSeconds"`
}

// Deadline returns the instant after which a commit attempt is rejected as
// expired. It is evaluated once, at commit entry.
func (t *Transaction) Deadline() time.Time {
	return t.CreatedAt.Add(time.Duration(t.TimeoutSeconds) * time.Second)
}

// StepIDs returns the IDs of all steps in insertion order.
func (t *Transaction) StepIDs() []string {
	ids := make([]string, len(t.Steps))
	for i, step := range t.Steps {
		ids[i] = step.StepID
	}
	return ids
}

// Clone returns a deep copy of the transaction. The Manager hands out clones
// so that callers can never mutate the canonical registry entry.
func (t *Transaction) Clone() Transaction {
	c := *t
	c.Steps = make([]TransactionStep, len(t.Steps))
	for i, step := range t.Steps {
		c.Steps[i] = step.Clone()
	}
	return c
}

// TransactionResult is the immutable outcome snapshot returned by Commit and
// Rollback.
//
// CompletedSteps reports steps *processed* on the path taken: for a clean
// commit it lists every step in insertion order; for a failure-triggered or
// forced rollback it lists the compensated steps in reverse insertion order,
// whether or not an undo handler actually ran for them.
type TransactionResult struct {
	TransactionID  string           `json:"transactionId"`
	State          TransactionState `json:"state"`
	CompletedSteps []string         `json:"completedSteps"`
	FailedStep     string           `json:"failedStep,omitempty"`
	Err            string           `json:"error,omitempty"`
}

// cloneData copies a step payload one level deep. Values are opaque to the
// engine and are shared.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	c := make(map[string]any, len(data))
	for k, v := range data {
		c[k] = v
	}
	return c
}
