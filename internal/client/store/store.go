// Package store is the durable key/value persistence consumed by the
// repositories and the pending change ledger. Values are JSON documents.
package store

import "context"

// Store persists JSON-serializable values under string keys. Get reports
// whether the key exists; a missing key is not an error. All failures are
// returned as *common.StorageError.
type Store interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, key string) error
}

// Transactor is implemented by stores that can commit several writes as one
// unit. Every store call made with the ctx passed to fn joins the transaction.
type Transactor interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

// Atomically runs fn inside a transaction when s supports one, and plainly
// otherwise.
func Atomically(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if tx, ok := s.(Transactor); ok {
		return tx.Atomically(ctx, fn)
	}
	return fn(ctx)
}
