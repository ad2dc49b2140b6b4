package repository

import "context"

// Saver persists a document of type T.
// Small interface used by background jobs like the persistence scheduler.
type Saver[T any] interface {
	Save(ctx context.Context, doc *T) error
}

// Repository abstracts persistence and watching of one JSON document.
// JSONFile implements this interface.
type Repository[T any] interface {
	Saver[T]
	Load(ctx context.Context) (*T, error)
	Exists() bool
	StartWatcher(ctx context.Context, onChange func()) error
}
