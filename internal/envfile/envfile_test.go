package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/semmy-space/keyver/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadAllPairs(t *testing.T) {
	path := writeFile(t, "# header comment\n\nA=1\nB=two\n  # indented comment\nC=\"quoted value\"\n")

	pairs, err := ReadAllPairs(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "two", "C": "quoted value"}, pairs)
}

func TestReadAllPairsValueKeepsEquals(t *testing.T) {
	path := writeFile(t, "URL=\"postgres://u:p@h/db?x=1\"\n")

	pairs, err := ReadAllPairs(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db?x=1", pairs["URL"])
}

func TestReadAllPairsMissingFile(t *testing.T) {
	_, err := ReadAllPairs(filepath.Join(t.TempDir(), "nope.env"))
	assert.ErrorIs(t, err, kerrors.ErrPersistence)
}

func TestWritePairAppendsAndReplaces(t *testing.T) {
	path := writeFile(t, "# keep me\nA=1\n")

	require.NoError(t, WritePair(path, "B", "new"))
	require.NoError(t, WritePair(path, "A", "changed"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# keep me\nA='changed'\nB='new'\n", string(data))
}

func TestWritePairCollapsesDuplicates(t *testing.T) {
	path := writeFile(t, "A=1\nB=2\nA=3\n")

	require.NoError(t, WritePair(path, "A", "x"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A='x'\nB=2\n", string(data))
}

func TestWritePairRoundTrip(t *testing.T) {
	values := map[string]string{
		"db_pass__secret_v1700000000": "s3cr3t",
		"quote__secret_v1":            `he said "hi"`,
		"newline__secret_v1":          "line1\nline2",
		"padded__secret_v1":           "007",
		"number__secret_v1":           "42",
		"empty__secret_v1":            "",
		"hash__secret_v1":             "a # not a comment",
	}

	path := writeFile(t, "")
	for k, v := range values {
		require.NoError(t, WritePair(path, k, v))
	}

	got, err := ReadAllPairs(path)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestWritePairValuesReadBackIdentical(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "double quoted", value: `"q"`},
		{name: "ends with double quote", value: `ends"`},
		{name: "single quotes", value: `it's 'quoted'`},
		{name: "both quotes", value: `a'b "c"`},
		{name: "newline", value: "line1\nline2"},
		{name: "newline and quote", value: "say \"hi\"\nbye'"},
		{name: "carriage return", value: "a\r\nb"},
		{name: "dollar", value: "$HOME"},
		{name: "braced variable", value: "${HOME}"},
		{name: "dollar with newline", value: "x\n$HOME"},
		{name: "backslash", value: `C:\dir\file`},
		{name: "trailing backslash", value: `dir\`},
		{name: "escaped n literal", value: `a\nb`},
		{name: "backslash and quote", value: "a\\'b"},
		{name: "hash", value: "a # not a comment"},
		{name: "leading hash", value: "#x"},
		{name: "json", value: `{"k": [1, 2]}`},
		{name: "padded number", value: "007"},
		{name: "spaces", value: "  padded  "},
		{name: "equals", value: "a=b=c"},
		{name: "empty", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "# header\nOTHER=1\n")
			require.NoError(t, WritePair(path, "k__secret_v1", tt.value))

			got, err := ReadAllPairs(path)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"OTHER": "1", "k__secret_v1": tt.value}, got)

			// Rewriting the same key must not disturb the other lines
			require.NoError(t, WritePair(path, "k__secret_v1", tt.value))
			got, err = ReadAllPairs(path)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got["k__secret_v1"])
			assert.Len(t, got, 2)
		})
	}
}

func TestWritePairKeepsModeAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte("# keep\nA=1\n"), 0640))
	require.NoError(t, os.Chmod(path, 0640))

	require.NoError(t, WritePair(path, "B", "2"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# keep\nA=1\nB='2'\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "secrets.env", entries[0].Name())
}

func TestWritePairMissingFile(t *testing.T) {
	err := WritePair(filepath.Join(t.TempDir(), "nope.env"), "A", "1")
	assert.ErrorIs(t, err, kerrors.ErrPersistence)
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	created, err := Create(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Create(path)
	require.NoError(t, err)
	assert.False(t, created)

	pairs, err := ReadAllPairs(path)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
