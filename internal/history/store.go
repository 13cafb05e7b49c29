// Package history holds the versioned secret log persisted in the backing
// env file. Keys have the form <name>__secret_v<unix seconds>.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/semmy-space/keyver/internal/envfile"
	"github.com/semmy-space/keyver/internal/versioning"
)

// Backend is the persistence capability the store reads from and writes to.
type Backend interface {
	ReadAllPairs(path string) (map[string]string, error)
	WritePair(path, key, value string) error
}

// Store is the authoritative, append-only version log of secrets.
type Store struct {
	path    string
	backend Backend
	now     func() time.Time
	entries map[string]string
}

// Option configures a Store.
type Option func(*Store)

// WithBackend overrides the dotenv persistence backend.
func WithBackend(b Backend) Option {
	return func(s *Store) { s.backend = b }
}

// WithClock overrides the clock used to stamp new versions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store for the backing file at path. Call Load before use.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		backend: envfile.File{},
		now:     time.Now,
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads every persisted pair into memory, replacing the in-memory log.
func (s *Store) Load() (map[string]string, error) {
	pairs, err := s.backend.ReadAllPairs(s.path)
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		pairs = make(map[string]string)
	}
	s.entries = pairs
	return s.Snapshot(), nil
}

// Snapshot returns a copy of the full history.
func (s *Store) Snapshot() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of versions held.
func (s *Store) Len() int {
	return len(s.entries)
}

// ContainsLogicalName reports whether any version exists for name.
func (s *Store) ContainsLogicalName(name string) bool {
	for k := range s.entries {
		if versioning.LogicalName(k) == name {
			return true
		}
	}
	return false
}

// LatestVersion returns the newest version key and value for name.
// ok is false when name has no history yet; that is not an error.
func (s *Store) LatestVersion(name string) (key, value string, ok bool) {
	key, ok = versioning.Latest(s.keys(), name)
	if !ok {
		return "", "", false
	}
	return key, s.entries[key], true
}

// Versions returns every version key of name, oldest first.
func (s *Store) Versions(name string) []string {
	var out []string
	for k := range s.entries {
		if versioning.LogicalName(k) == name {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// LogicalNames returns the distinct logical names present, sorted.
func (s *Store) LogicalNames() []string {
	seen := make(map[string]struct{})
	for k := range s.entries {
		seen[versioning.LogicalName(k)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Value returns the value stored under a version key.
func (s *Store) Value(key string) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Append stamps a new version of name with the current time, persists it and
// records it in memory. Two appends for the same name within one second
// share a key; the later value wins.
func (s *Store) Append(name string, value any) (string, error) {
	if err := versioning.ValidateName(name); err != nil {
		return "", err
	}
	str, err := versioning.Stringify(value)
	if err != nil {
		return "", err
	}

	key := versioning.Key(name, s.now())
	if err := s.backend.WritePair(s.path, key, str); err != nil {
		return "", fmt.Errorf("append %s: %w", name, err)
	}
	s.entries[key] = str
	return key, nil
}

// ReconcileWithBacking merges the persisted pairs with the in-memory log,
// preferring in-memory values on collision, and writes every merged pair back.
func (s *Store) ReconcileWithBacking() (map[string]string, error) {
	persisted, err := s.backend.ReadAllPairs(s.path)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(persisted)+len(s.entries))
	for k, v := range persisted {
		merged[k] = v
	}
	for k, v := range s.entries {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.backend.WritePair(s.path, k, merged[k]); err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", k, err)
		}
	}

	s.entries = merged
	return s.Snapshot(), nil
}

func (s *Store) keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
