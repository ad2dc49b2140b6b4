package icons

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/bassista/go_sam/internal/repository"
)

const iconExt = ".jpg"

// Store is the on-disk icon cache of one key space. The file name is derived
// from the key, so the presence of a file is the cache-hit test.
type Store struct {
	d    *diskv.Diskv
	base string
}

// NewStore creates (if needed) baseDir and returns a store rooted there.
// Writes go through a sibling temp directory and are renamed into place.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("icon cache dir is required")
	}
	base := filepath.Clean(baseDir)
	tmp := base + ".tmp"
	for _, dir := range []string{base, tmp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create icon dir: %w", err)
		}
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          base,
			TempDir:           tmp,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
		}),
		base: base,
	}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.base
}

// Has reports whether key was fetched successfully before.
func (s *Store) Has(key repository.IconKey) bool {
	return s.d.Has(key.String())
}

// Path returns where the icon for key lives (whether or not it exists).
func (s *Store) Path(key repository.IconKey) string {
	pk := keyToPathTransform(key.String())
	parts := append([]string{s.base}, pk.Path...)
	return filepath.Join(append(parts, pk.FileName)...)
}

// CachedPath returns Path(key) when the icon exists, "" otherwise.
func (s *Store) CachedPath(key repository.IconKey) string {
	if !s.Has(key) {
		return ""
	}
	return s.Path(key)
}

// Write stores data under key atomically.
func (s *Store) Write(key repository.IconKey, data []byte) error {
	if len(data) == 0 {
		return errors.New("refusing to cache an empty icon")
	}
	return s.d.Write(key.String(), data)
}

// Erase invalidates key. Erasing a missing icon is not an error.
func (s *Store) Erase(key repository.IconKey) error {
	if !s.Has(key) {
		return nil
	}
	return s.d.Erase(key.String())
}

// Keys lists every cached key.
func (s *Store) Keys(ctx context.Context) []repository.IconKey {
	var keys []repository.IconKey
	for raw := range s.d.Keys(ctx.Done()) {
		k, ok := parseKey(raw)
		if ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// keyToPathTransform maps "100" to 100.jpg and "100/ACH_X" to 100/ACH_X.jpg,
// escaping the achievement part so it is always a single path element.
func keyToPathTransform(key string) *diskv.PathKey {
	app, ach, found := strings.Cut(key, "/")
	if !found {
		return &diskv.PathKey{FileName: app + iconExt}
	}
	return &diskv.PathKey{Path: []string{app}, FileName: url.PathEscape(ach) + iconExt}
}

func pathToKeyTransform(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, iconExt)
	if len(pk.Path) == 0 {
		return name
	}
	ach, err := url.PathUnescape(name)
	if err != nil {
		ach = name
	}
	return strings.Join(pk.Path, "/") + "/" + ach
}

func parseKey(raw string) (repository.IconKey, bool) {
	app, ach, _ := strings.Cut(raw, "/")
	id, err := repository.ParseAppID(app)
	if err != nil {
		return repository.IconKey{}, false
	}
	return repository.IconKey{App: id, Achievement: ach}, true
}
