package cli

import (
	"context"
	"log/slog"

	"github.com/fortressi/transact"
)

// loadManager opens the state file and rehydrates a Manager from it. The
// returned store is used to save the registry back after mutations.
func loadManager(ctx context.Context, statePath string, logger *slog.Logger) (*transact.Manager, *transact.FileStore, error) {
	store, err := transact.NewFileStore(statePath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open state file", err)
	}

	txs, err := store.Load(ctx)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load state file", err)
	}

	manager := transact.NewManager(transact.WithLogger(logger))
	for _, tx := range txs {
		manager.RegisterTransaction(tx)
	}

	logger.Debug("state loaded", "path", store.Path(), "transactions", len(txs))
	return manager, store, nil
}

// saveManager writes the Manager's full registry back to the store.
func saveManager(ctx context.Context, manager *transact.Manager, store *transact.FileStore) error {
	if err := store.Save(ctx, manager.GetAllTransactions()); err != nil {
		return WrapExitError(ExitCommandError, "failed to save state file", err)
	}
	return nil
}
