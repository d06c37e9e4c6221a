package transact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore provides a file-based implementation of Store that persists all
// transactions as a single JSON document (an array of transaction objects in
// the same wire shape the CLI prints).
type FileStore struct {
	path string
	mu   sync.Mutex // Protects file operations
}

// NewFileStore creates a new file-based store that saves transaction state
// to the given file, creating its parent directory if needed.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	return &FileStore{path: path}, nil
}

// Path returns the state file path.
func (f *FileStore) Path() string {
	return f.path
}

// Save persists the transactions to the state file.
func (f *FileStore) Save(ctx context.Context, txs []Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Load retrieves the transactions from the state file. A missing file is not
// an error; it loads as an empty set.
func (f *FileStore) Load(ctx context.Context) ([]Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	return txs, nil
}
