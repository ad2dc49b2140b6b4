package cache

import (
	"sync"

	"github.com/bassista/go_sam/internal/repository"
)

// NameStore keeps the AppID->name map of the catalog.
// Replace swaps the whole map, so readers never observe a half-updated catalog.
type NameStore struct {
	mu         sync.RWMutex
	names      map[repository.AppID]string
	lastUpdate int64 // metadata.lastUpdate of the document the map was built from
}

// NewNameStore creates an empty store.
func NewNameStore() *NameStore {
	return &NameStore{names: map[repository.AppID]string{}}
}

// Name returns the display name of id, or "" when id is unknown.
func (s *NameStore) Name(id repository.AppID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[id]
}

// All returns a copy of the whole map.
func (s *NameStore) All() map[repository.AppID]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[repository.AppID]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

func (s *NameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// LastUpdate returns the timestamp (unix ms) of the document currently loaded.
func (s *NameStore) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Replace builds a fresh map from doc and swaps it in.
func (s *NameStore) Replace(doc repository.CatalogDocument) {
	names := doc.Names()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = names
	s.lastUpdate = doc.Metadata.LastUpdate
}

// OwnedSet is the set of apps owned by the current user.
type OwnedSet struct {
	mu  sync.RWMutex
	ids map[repository.AppID]struct{}
}

func NewOwnedSet() *OwnedSet {
	return &OwnedSet{ids: map[repository.AppID]struct{}{}}
}

// Contains reports whether id is owned.
func (o *OwnedSet) Contains(id repository.AppID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.ids[id]
	return ok
}

// Replace recomputes the set wholesale.
func (o *OwnedSet) Replace(ids []repository.AppID) {
	set := make(map[repository.AppID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	o.mu.Lock()
	o.ids = set
	o.mu.Unlock()
}

// Slice returns the owned ids sorted ascending.
func (o *OwnedSet) Slice() []repository.AppID {
	o.mu.RLock()
	out := make([]repository.AppID, 0, len(o.ids))
	for id := range o.ids {
		out = append(out, id)
	}
	o.mu.RUnlock()
	return repository.SortAppIDs(out)
}

func (o *OwnedSet) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.ids)
}
