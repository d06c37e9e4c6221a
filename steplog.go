package transact

import (
	"fmt"
	"sync"
)

// StepEventType defines the lifecycle events recorded for a step during
// commit and rollback.
type StepEventType int

const (
	EventStarted StepEventType = iota
	EventSucceeded
	EventFailed
	EventUndoStarted
	EventUndoFinished
	EventUndoFailed
)

// String returns the string representation of the StepEventType.
func (e StepEventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventUndoStarted:
		return "undo_started"
	case EventUndoFinished:
		return "undo_finished"
	case EventUndoFailed:
		return "undo_failed"
	default:
		return fmt.Sprintf("unknown StepEventType: %d", e)
	}
}

// StepEvent is one entry in a transaction's step log.
type StepEvent struct {
	StepID string
	Type   StepEventType
}

// String implements the fmt.Stringer interface for StepEvent.
func (e StepEvent) String() string {
	return fmt.Sprintf("%s %s", e.StepID, e.Type)
}

// stepStatus is the per-step status derived from recorded events.
type stepStatus int

const (
	statusNeverStarted stepStatus = iota
	statusStarted
	statusSucceeded
	statusFailed
	statusUndoStarted
	statusUndoFinished
	statusUndoFailed
)

// next returns the status for a step after recording the given event.
// A forced rollback may undo a step that never ran, so undo_started is legal
// from never_started as well as from succeeded.
func (s stepStatus) next(eventType StepEventType) (stepStatus, error) {
	switch s {
	case statusNeverStarted:
		switch eventType {
		case EventStarted:
			return statusStarted, nil
		case EventUndoStarted:
			return statusUndoStarted, nil
		}
	case statusStarted:
		switch eventType {
		case EventSucceeded:
			return statusSucceeded, nil
		case EventFailed:
			return statusFailed, nil
		}
	case statusSucceeded:
		if eventType == EventUndoStarted {
			return statusUndoStarted, nil
		}
	case statusUndoStarted:
		switch eventType {
		case EventUndoFinished:
			return statusUndoFinished, nil
		case EventUndoFailed:
			return statusUndoFailed, nil
		}
	}

	return statusNeverStarted, fmt.Errorf(
		"illegal event type %s for current step status %d", eventType, s,
	)
}

// StepLog is the in-memory event trace for one transaction. The engine
// records forward and compensation events here as it runs; compensation
// failures that never surface in a TransactionResult remain visible in the
// log. It is not durable and holds no retry state.
type StepLog struct {
	mu         sync.Mutex
	txID       string
	unwinding  bool
	events     []StepEvent
	stepStatus map[string]stepStatus
}

// NewStepLog creates a new, empty StepLog for the given transaction ID.
func NewStepLog(txID string) *StepLog {
	return &StepLog{
		txID:       txID,
		events:     make([]StepEvent, 0),
		stepStatus: make(map[string]stepStatus),
	}
}

// TransactionID returns the ID of the transaction this log belongs to.
func (l *StepLog) TransactionID() string {
	return l.txID
}

// Record adds an event to the log. Events that are illegal for the step's
// current status are rejected.
func (l *StepLog) Record(stepID string, eventType StepEventType) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.stepStatus[stepID]
	next, err := current.next(eventType)
	if err != nil {
		return err
	}

	switch next {
	case statusFailed, statusUndoStarted:
		l.unwinding = true
	}

	l.stepStatus[stepID] = next
	l.events = append(l.events, StepEvent{StepID: stepID, Type: eventType})
	return nil
}

// Unwinding returns true once the transaction has begun compensating.
func (l *StepLog) Unwinding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unwinding
}

// Events returns a copy of the recorded events in order.
func (l *StepLog) Events() []StepEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]StepEvent, len(l.events))
	copy(events, l.events)
	return events
}
