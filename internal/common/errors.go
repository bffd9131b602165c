// Package common defines shared constants and sentinel errors used across
// client and server layers of daybook. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrLocked is returned when another mutation of the same entity is in flight.
	// Callers are expected to retry after a short delay.
	ErrLocked = errors.New("entity is locked by a concurrent mutation")

	ErrInvalidID      = errors.New("invalid identifier")
	ErrInvalidPayload = errors.New("invalid payload")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// StorageError reports a failure of the local durable store. The operation
// that produced it was aborted.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s[%s]: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it already is a *StorageError.
func NewStorageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
