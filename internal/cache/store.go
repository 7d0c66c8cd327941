package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nao1215/webgrep/internal/resource"
)

// FileName is the cache file name under the storage root.
const FileName = "cache.json"

// Store is the disk-backed mapping {rootURL: {relativePath: type}}.
// It is the only state shared across otherwise-independent root-URL
// traversals within one process.
type Store struct {
	// entries maps root URL to the relative paths materialized under it
	// and the type each path was classified as.
	entries map[string]map[string]resource.Type
}

// New creates an empty, writable store.
func New() *Store {
	return &Store{entries: make(map[string]map[string]resource.Type)}
}

// Load reads a persisted store from path. On any read or parse failure
// it returns an empty, writable store: a corrupt cache means a cold
// start, not a failed process. Entries with unknown type names are
// dropped on load.
func Load(path string) *Store {
	s := New()

	data, err := os.ReadFile(path) //nolint:gosec // Cache path derives from the storage root
	if err != nil {
		return s
	}

	var raw map[string]map[string]resource.Type
	if err := json.Unmarshal(data, &raw); err != nil {
		return s
	}

	for rootURL, paths := range raw {
		for relPath, typ := range paths {
			if !typ.Valid() {
				continue
			}
			s.Register(rootURL, relPath, typ)
		}
	}

	return s
}

// Register records that relPath was materialized under rootURL with the
// given type. It is idempotent: re-registering the same pair is a no-op,
// and an existing path is never overwritten with a different type.
func (s *Store) Register(rootURL, relPath string, typ resource.Type) {
	paths, ok := s.entries[rootURL]
	if !ok {
		paths = make(map[string]resource.Type)
		s.entries[rootURL] = paths
	}
	if _, exists := paths[relPath]; exists {
		return
	}
	paths[relPath] = typ
}

// Lookup returns the recorded type for relPath under rootURL.
// The second return value reports whether the entry exists.
func (s *Store) Lookup(rootURL, relPath string) (resource.Type, bool) {
	typ, ok := s.entries[rootURL][relPath]
	return typ, ok
}

// Paths returns the relative paths registered under rootURL, sorted.
func (s *Store) Paths(rootURL string) []string {
	paths := make([]string, 0, len(s.entries[rootURL]))
	for p := range s.entries[rootURL] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the total number of registered entries across all roots.
func (s *Store) Len() int {
	n := 0
	for _, paths := range s.entries {
		n += len(paths)
	}
	return n
}

// Save serializes the full mapping to path. Called once at orderly
// shutdown, and only when the caller requested persistence.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}
