package cache

import "github.com/bassista/go_sam/internal/repository"

// NameReader is the read side of the name database used by views and lookups.
type NameReader interface {
	Name(id repository.AppID) string
	All() map[repository.AppID]string
	Len() int
}

// NameWriter is the write side, owned by whoever holds the games refresh guard.
type NameWriter interface {
	Replace(doc repository.CatalogDocument)
	LastUpdate() int64
}

// PersistableStore is the state API needed by the persistence scheduler.
// Revisions let a flush clear the dirty flag only if nothing changed meanwhile.
type PersistableStore interface {
	IsDirty() bool
	Snapshot() (repository.LibraryDocument, uint64, error)
	MarkPersisted(revision uint64, ts int64)
}
