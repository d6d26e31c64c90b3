package repository

import "context"

// Backend is a keyed document store. Get returns nil, nil for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	// WithTransaction runs fn against a transactional view of the backend.
	// Writes made through that view become visible together when fn returns
	// nil and are discarded otherwise. Nested calls join the outer transaction.
	WithTransaction(ctx context.Context, fn func(Backend) error) error
	Ping(ctx context.Context) error
	Close() error
}
