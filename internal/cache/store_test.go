package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bassista/go_sam/internal/repository"
)

func catalogDoc() repository.CatalogDocument {
	return repository.CatalogDocument{
		Metadata: repository.Metadata{LastUpdate: 1000},
		Apps: []repository.AppEntry{
			{AppID: 100, Name: "Game A"},
			{AppID: 200, Name: "Game B"},
		},
	}
}

func TestNameStore_UnknownIDReturnsEmpty(t *testing.T) {
	s := NewNameStore()
	assert.Equal(t, "", s.Name(999))

	s.Replace(catalogDoc())
	assert.Equal(t, "", s.Name(999))
	assert.Equal(t, "Game A", s.Name(100))
	assert.Equal(t, int64(1000), s.LastUpdate())
	assert.Equal(t, 2, s.Len())
}

func TestNameStore_ReplaceIsWholesale(t *testing.T) {
	s := NewNameStore()
	s.Replace(catalogDoc())
	s.Replace(repository.CatalogDocument{
		Metadata: repository.Metadata{LastUpdate: 2000},
		Apps:     []repository.AppEntry{{AppID: 300, Name: "Game C"}},
	})

	assert.Equal(t, "", s.Name(100), "old entries must not survive a replace")
	assert.Equal(t, "Game C", s.Name(300))
	assert.Equal(t, int64(2000), s.LastUpdate())
}

func TestNameStore_AllReturnsCopy(t *testing.T) {
	s := NewNameStore()
	s.Replace(catalogDoc())

	all := s.All()
	all[100] = "mutated"
	delete(all, 200)

	assert.Equal(t, "Game A", s.Name(100))
	assert.Equal(t, "Game B", s.Name(200))
}

// Readers see either the old map or the new one, never a mix.
func TestNameStore_ConcurrentReplace(t *testing.T) {
	s := NewNameStore()
	docA := repository.CatalogDocument{}
	docB := repository.CatalogDocument{}
	for i := 1; i <= 50; i++ {
		docA.Apps = append(docA.Apps, repository.AppEntry{AppID: repository.AppID(i), Name: "A"})
		docB.Apps = append(docB.Apps, repository.AppEntry{AppID: repository.AppID(i), Name: "B"})
	}
	s.Replace(docA)

	var mixed atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Replace(docA)
			} else {
				s.Replace(docB)
			}
		}(i)
		go func() {
			defer wg.Done()
			all := s.All()
			first := all[1]
			for _, name := range all {
				if name != first {
					mixed.Store(true)
				}
			}
		}()
	}
	wg.Wait()
	assert.False(t, mixed.Load(), "reader observed a half-updated map")
}

func TestOwnedSet(t *testing.T) {
	o := NewOwnedSet()
	assert.False(t, o.Contains(100))

	o.Replace([]repository.AppID{300, 100})
	assert.True(t, o.Contains(100))
	assert.False(t, o.Contains(200))
	assert.Equal(t, []repository.AppID{100, 300}, o.Slice())
	assert.Equal(t, 2, o.Len())

	o.Replace(nil)
	assert.False(t, o.Contains(100))
	assert.Empty(t, o.Slice())
}
