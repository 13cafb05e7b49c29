package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadFromJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	content := `{
  // comments are allowed
  host: "ghe.example.com",
  repo: "acme/api",
  omit: "api_key,db_pass",
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "ghe.example.com", cfg.Host)
	assert.Equal(t, "acme/api", cfg.Repo)
	assert.Equal(t, "api_key,db_pass", cfg.Omit)
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json5")
	cfg := &Config{Host: "github", Repo: "acme/api", EnvFile: "secrets.env"}

	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSetUnset(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, cfg.Set("repo", "acme/api"))
	v, err := cfg.Get("repo")
	require.NoError(t, err)
	assert.Equal(t, "acme/api", v)

	require.NoError(t, cfg.Unset("repo"))
	assert.Empty(t, cfg.Repo)

	_, err = cfg.Get("nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("nope", "x"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"host", "repo", "env_file", "omit", "client_id", "default_output"}, Keys())
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("acme/api")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "api", repo)

	for _, bad := range []string{"", "acme", "/api", "acme/", "a/b/c"} {
		_, _, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}
