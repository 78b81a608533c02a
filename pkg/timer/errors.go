package timer

import "fmt"

// StorageWriteFailure wraps a failed write-through. The timer keeps running
// in memory; the next successful write reconciles storage.
type StorageWriteFailure struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *StorageWriteFailure) Error() string {
	return fmt.Sprintf("timer: write %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageWriteFailure) Unwrap() error {
	return e.Err
}
