package transact

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a transaction ID with no registry entry.
var ErrNotFound = errors.New("transaction not found")

// InvalidStateError reports an operation attempted on a transaction whose
// state does not permit it. Only pending transactions accept new steps or a
// commit.
type InvalidStateError struct {
	TransactionID string
	State         TransactionState
	Op            string
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf(
		"cannot %s transaction %q in state %q; only pending transactions can be modified or committed",
		e.Op, e.TransactionID, e.State,
	)
}

// invalidState wraps a transaction's current state in an InvalidStateError.
func invalidState(op string, tx *Transaction) error {
	return &InvalidStateError{
		TransactionID: tx.TransactionID,
		State:         tx.State,
		Op:            op,
	}
}

// notFound annotates ErrNotFound with the offending ID.
func notFound(op string, id TxID) error {
	return fmt.Errorf("%s: %w: %s", op, ErrNotFound, id)
}
