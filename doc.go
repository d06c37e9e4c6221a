// Package transact implements a saga-pattern transaction coordinator for
// multi-agent operations.
//
// A transaction is an ordered sequence of steps, each naming a forward
// action and an optional compensating action. Steps execute synchronously in
// order; when a forward action fails, every previously completed step is
// compensated in reverse order (saga-style rollback). This gives ACID-like
// semantics across autonomous services without a shared data store or
// two-phase commit.
//
// Overview
//
//  1. Register your action handlers:
//     - A handler is a func(ctx, action, data) error keyed by action name.
//     - Register handlers on a Manager with RegisterHandler, or supply a
//       pre-built HandlerRegistry via WithHandlers. With no handlers
//       registered, commits run as dry runs.
//  2. Build a transaction:
//     - Begin returns an opaque TxID handle to a pending transaction.
//     - AddStep appends forward/compensating action pairs in commit order.
//  3. Execute:
//     - Commit runs the steps and auto-compensates on the first failure.
//     - Rollback force-compensates every step, from any state.
//  4. Or use the SagaOrchestrator, which batches Register calls and drives
//     Begin, AddStep and Commit in one Execute.
//
// Persistence is available through the Store interface: FileStore keeps all
// transactions in one JSON document, and RegisterTransaction rehydrates a
// Manager from a loaded snapshot.
package transact
