package metrics

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	globalStore *Store
	initOnce    sync.Once
	initErr     error
)

// Init initializes the global metrics store. An empty dbPath uses the
// default location under the user's home directory.
// It is safe to call multiple times; subsequent calls are no-ops.
func Init(dbPath string) error {
	initOnce.Do(func() {
		if dbPath == "" {
			globalStore, initErr = NewStore()
		} else {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				initErr = fmt.Errorf("failed to create stats directory: %w", err)
			} else {
				globalStore, initErr = NewStoreWithPath(dbPath)
			}
		}
		if initErr != nil {
			log.Printf("metrics: failed to initialize store: %v", initErr)
		}
	})
	return initErr
}

// RecordInvocation increments the invocation count for the given operation.
// If the store is not initialized, this is a no-op (logs a warning).
func RecordInvocation(op Operation) {
	if globalStore == nil {
		// Attempt lazy initialization at the default path
		if err := Init(""); err != nil {
			log.Printf("metrics: cannot record invocation, store not initialized: %v", err)
			return
		}
	}

	if err := globalStore.Increment(op); err != nil {
		log.Printf("metrics: failed to record invocation for %s: %v", op, err)
	}
}

// GetStats returns the cumulative invocation counts for all operations.
// Returns nil if the store is not initialized.
func GetStats() map[Operation]int64 {
	if globalStore == nil {
		return nil
	}

	stats, err := globalStore.GetAllTotals()
	if err != nil {
		log.Printf("metrics: failed to get stats: %v", err)
		return nil
	}

	return stats
}

// GetTotalForOperation returns the cumulative count for a specific operation.
// Returns 0 if the store is not initialized or on error.
func GetTotalForOperation(op Operation) int64 {
	if globalStore == nil {
		return 0
	}

	total, err := globalStore.GetTotalByOperation(op)
	if err != nil {
		log.Printf("metrics: failed to get total for %s: %v", op, err)
		return 0
	}

	return total
}

// Close closes the global metrics store.
// Should be called at application shutdown.
func Close() error {
	if globalStore != nil {
		return globalStore.Close()
	}
	return nil
}

// GetStore returns the global store instance.
// This is primarily for testing purposes.
func GetStore() *Store {
	return globalStore
}

// SetStoreForTesting sets the global store instance for testing purposes.
// This should only be used in tests.
func SetStoreForTesting(store *Store) {
	globalStore = store
}

// ResetForTesting resets the global state for testing purposes.
// This should only be used in tests.
func ResetForTesting() {
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = nil
	initOnce = sync.Once{}
	initErr = nil
}
