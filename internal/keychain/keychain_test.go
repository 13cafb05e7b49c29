package keychain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/keyver/internal/envfile"
	kerrors "github.com/semmy-space/keyver/internal/errors"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/versioning"
)

// memBackend is an in-memory persistence capability.
type memBackend struct {
	files  map[string]map[string]string
	writes int
}

func newMemBackend(path string, pairs map[string]string) *memBackend {
	if pairs == nil {
		pairs = map[string]string{}
	}
	return &memBackend{files: map[string]map[string]string{path: pairs}}
}

func (m *memBackend) ReadAllPairs(path string) (map[string]string, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, kerrors.ErrPersistence
	}
	out := make(map[string]string, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out, nil
}

func (m *memBackend) WritePair(path, key, value string) error {
	f, ok := m.files[path]
	if !ok {
		return kerrors.ErrPersistence
	}
	f[key] = value
	m.writes++
	return nil
}

// ticking returns a clock advancing one second per call.
func ticking(start int64) func() time.Time {
	cur := start - 1
	return func() time.Time {
		cur++
		return time.Unix(cur, 0)
	}
}

func openMem(t *testing.T, pairs map[string]string, opts ...Option) (*Session, *memBackend) {
	t.Helper()
	b := newMemBackend(".env", pairs)
	opts = append([]Option{WithBackend(b), WithClock(ticking(1000))}, opts...)
	s, err := Open(".env", opts...)
	require.NoError(t, err)
	return s, b
}

// derive rebuilds the keychain from a history snapshot independently of Session.
func derive(h map[string]string) map[string]string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	out := map[string]string{}
	for _, k := range keys {
		name := versioning.LogicalName(k)
		latest, _ := versioning.Latest(keys, name)
		out[name] = h[latest]
	}
	return out
}

func TestOpenDerivesLatest(t *testing.T) {
	s, _ := openMem(t, map[string]string{
		"db_pass__secret_v1000": "a",
		"db_pass__secret_v2000": "b",
	})

	assert.Equal(t, map[string]string{"db_pass": "b"}, s.Keychain())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, errors.Is(err, kerrors.ErrPersistence))
}

func TestNewSecretOnEmptyHistory(t *testing.T) {
	s, _ := openMem(t, nil)

	tr, err := s.NewSecret("api_key", "x")
	require.NoError(t, err)
	assert.Equal(t, Created, tr)

	assert.Equal(t, map[string]string{"api_key": "x"}, s.Keychain())
	assert.Equal(t, map[string]string{"api_key__secret_v1000": "x"}, s.History())
}

func TestNewSecretIdempotent(t *testing.T) {
	s, b := openMem(t, nil)

	_, err := s.NewSecret("api_key", "x")
	require.NoError(t, err)
	tr, err := s.NewSecret("api_key", "x")
	require.NoError(t, err)

	assert.Equal(t, Unchanged, tr)
	assert.Len(t, s.Store().Versions("api_key"), 1)
	assert.Equal(t, 1, b.writes)
}

func TestNewSecretUpdateRefreshesKeychain(t *testing.T) {
	s, _ := openMem(t, nil)

	_, err := s.NewSecret("api_key", "v1")
	require.NoError(t, err)
	tr, err := s.NewSecret("api_key", "v2")
	require.NoError(t, err)

	assert.Equal(t, Updated, tr)
	assert.Len(t, s.Store().Versions("api_key"), 2)

	// No explicit re-derivation needed
	v, err := s.Get("api_key")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	// And a full rebuild agrees
	assert.Equal(t, derive(s.History()), s.Keychain())
}

func TestNewSecretComparesAgainstHistoryNotFirstValue(t *testing.T) {
	s, _ := openMem(t, nil)

	for _, v := range []string{"a", "b", "a"} {
		_, err := s.NewSecret("k", v)
		require.NoError(t, err)
	}

	assert.Len(t, s.Store().Versions("k"), 3)
	v, _ := s.Get("k")
	assert.Equal(t, "a", v)
}

func TestNewSecretValidation(t *testing.T) {
	s, b := openMem(t, nil)

	_, err := s.NewSecret("bad__secret_vname", "x")
	assert.ErrorIs(t, err, kerrors.ErrValidation)

	_, err = s.NewSecret("ok", struct{ A int }{1})
	assert.ErrorIs(t, err, kerrors.ErrValidation)

	_, err = s.NewSecret("ok", nil)
	assert.ErrorIs(t, err, kerrors.ErrValidation)

	assert.Empty(t, s.Keychain())
	assert.Zero(t, b.writes)
}

func TestNewSecretStringifies(t *testing.T) {
	s, _ := openMem(t, nil)

	_, err := s.NewSecret("port", 5432)
	require.NoError(t, err)
	tr, err := s.NewSecret("port", "5432")
	require.NoError(t, err)

	assert.Equal(t, Unchanged, tr)
}

func TestFreshnessInvariantAcrossOperations(t *testing.T) {
	s, _ := openMem(t, map[string]string{
		"a__secret_v0500": "old",
		"b__secret_v0600": "keep",
	})

	ops := []struct {
		name  string
		value string
	}{
		{"a", "new"}, {"c", "1"}, {"c", "2"}, {"a", "new"}, {"b", "changed"},
	}
	for _, op := range ops {
		_, err := s.NewSecret(op.name, op.value)
		require.NoError(t, err)
		assert.Equal(t, derive(s.History()), s.Keychain())
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := openMem(t, nil)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, kerrors.ErrSecretNotFound)
}

func TestCopiesAreIndependent(t *testing.T) {
	s, _ := openMem(t, map[string]string{"a__secret_v1": "1"})

	kc := s.Keychain()
	kc["a"] = "mutated"
	h := s.History()
	h["a__secret_v1"] = "mutated"

	v, _ := s.Get("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, "1", s.History()["a__secret_v1"])
}

func TestReconcile(t *testing.T) {
	s, b := openMem(t, map[string]string{"a__secret_v0100": "1"})

	// External writer adds a newer version.
	b.files[".env"]["a__secret_v9999"] = "external"

	require.NoError(t, s.Reconcile())

	v, _ := s.Get("a")
	assert.Equal(t, "external", v)
}

func TestConfirmationsAreLogged(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	s, _ := openMem(t, nil, WithLogger(logging.Logger{Out: &out, Err: &out}))

	_, err := s.NewSecret("db_pass", "x")
	require.NoError(t, err)
	_, err = s.NewSecret("db_pass", "x")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Secret db_pass created")
	assert.Contains(t, out.String(), "already exists and the value is the most recent")
}

func TestEnvFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# secrets\n"), 0600))

	s, err := Open(path, WithClock(ticking(1700000000)))
	require.NoError(t, err)
	_, err = s.NewSecret("db_pass", "a")
	require.NoError(t, err)
	_, err = s.NewSecret("db_pass", "b")
	require.NoError(t, err)

	pairs, err := envfile.ReadAllPairs(path)
	require.NoError(t, err)
	assert.Equal(t, s.History(), pairs)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"db_pass": "b"}, reopened.Keychain())
}

func TestNewSecretRejectsNamesTheEnvFileCannotHold(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	s, err := Open(path, WithClock(ticking(1700000000)))
	require.NoError(t, err)
	_, err = s.NewSecret("ok_name", "v")
	require.NoError(t, err)

	for _, name := range []string{"my-key", "x/y", "a:b"} {
		_, err := s.NewSecret(name, "v")
		assert.ErrorIs(t, err, kerrors.ErrValidation, name)
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ok_name": "v"}, reopened.Keychain())
}

func TestReopenedKeychainMatchesStoredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	values := map[string]string{
		"quoted":    `"q"`,
		"trailing":  `ends"`,
		"multiline": "a\nb",
		"dollar":    "$HOME",
		"backslash": `dir\`,
		"hash":      "x # y",
	}

	s, err := Open(path, WithClock(ticking(1700000000)))
	require.NoError(t, err)
	for name, v := range values {
		_, err := s.NewSecret(name, v)
		require.NoError(t, err)
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, values, reopened.Keychain())
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "unchanged", Unchanged.String())
}

func TestAttachRemoteValidatesOnce(t *testing.T) {
	s, _ := openMem(t, map[string]string{"a__secret_v1": "1"})
	r := &fakeRemote{valid: true}

	require.NoError(t, s.AttachRemote(context.Background(), r))
	_, err := s.ExportKeychain(context.Background(), ExportOptions{})
	require.NoError(t, err)
	_, err = s.ExportHistory(context.Background(), ExportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, r.validations)
}
