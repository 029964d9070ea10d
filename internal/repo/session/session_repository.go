package session

import "context"

// Repository defines the interface for the persisted key/value session state.
type Repository interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Store writes all given values in a single transaction, replacing existing ones.
	Store(ctx context.Context, values map[string]string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
