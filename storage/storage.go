// Package storage provides persistence for fetched transcripts.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested transcript was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock").
	Op string
	// ID is the transcript key if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the interface for transcript persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a cached transcript for a video and language preference.
	Get(ctx context.Context, videoID, language string) (*Transcript, error)
	// Put saves a transcript, replacing any existing record with the same
	// video id and language.
	Put(ctx context.Context, t *Transcript) error
	// Delete removes a cached transcript.
	Delete(ctx context.Context, videoID, language string) error
	// List returns all cached transcripts.
	List(ctx context.Context) ([]*Transcript, error)

	// Close releases any resources held by the store.
	Close() error
}
