// Package envfile reads and writes the KEY=VALUE backing file that holds the
// secret history.
package envfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	kerrors "github.com/semmy-space/keyver/internal/errors"
)

// File is the persistence capability backed by a dotenv file on disk.
type File struct{}

// ReadAllPairs parses every KEY=VALUE pair in path.
// Blank lines and lines starting with '#' are ignored.
func (File) ReadAllPairs(path string) (map[string]string, error) {
	return ReadAllPairs(path)
}

// WritePair sets key to value in path, keeping every other line intact.
func (File) WritePair(path, key, value string) error {
	return WritePair(path, key, value)
}

// ReadAllPairs parses every KEY=VALUE pair in path.
func ReadAllPairs(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", kerrors.ErrPersistence, path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrPersistence, err)
	}
	defer f.Close()

	pairs, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", kerrors.ErrPersistence, path, err)
	}
	return pairs, nil
}

// WritePair rewrites the line holding key, or appends one when key is new.
// Comments, blank lines and other pairs are preserved.
func WritePair(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", kerrors.ErrPersistence, path)
		}
		return fmt.Errorf("%w: %v", kerrors.ErrPersistence, err)
	}

	line, err := renderLine(key, value)
	if err != nil {
		return err
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, l := range lines {
		if lineKey(l) != key {
			out = append(out, l)
			continue
		}
		// Collapse duplicates onto the first occurrence.
		if !replaced {
			out = append(out, line)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, line)
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(out, "\n"))
	buf.WriteByte('\n')

	return replaceFile(path, buf.Bytes())
}

// replaceFile writes data to a temp file beside path and renames it over path,
// so a crash never leaves a truncated history behind. The original mode is kept.
func replaceFile(path string, data []byte) error {
	mode := fs.FileMode(0600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", kerrors.ErrPersistence, path, err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", kerrors.ErrPersistence, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", kerrors.ErrPersistence, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", kerrors.ErrPersistence, path, err)
	}
	return nil
}

// Create makes an empty backing file at path unless one already exists.
func Create(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: create %s: %v", kerrors.ErrPersistence, path, err)
	}
	return true, f.Close()
}

// renderLine formats a single pair so that godotenv parses it back to exactly
// value. The line never spans more than one physical line.
func renderLine(key, value string) (string, error) {
	var candidates []string
	if !strings.ContainsAny(value, "'\n\r") {
		// Single quotes keep $ and backslashes literal
		candidates = append(candidates, key+"='"+value+"'")
	}
	candidates = append(candidates, key+`="`+escapeDoubleQuoted(value)+`"`)
	if !strings.ContainsAny(value, "\n\r") {
		candidates = append(candidates, key+"="+value)
	}

	for _, line := range candidates {
		if parsed, err := godotenv.Unmarshal(line); err == nil && len(parsed) == 1 {
			if got, ok := parsed[key]; ok && got == value {
				return line, nil
			}
		}
	}
	return "", fmt.Errorf("%w: value of %s cannot be stored in a dotenv file", kerrors.ErrValidation, key)
}

var doubleQuoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"$", `\$`,
	"\n", `\n`,
	"\r", `\r`,
)

func escapeDoubleQuoted(value string) string {
	return doubleQuoteEscaper.Replace(value)
}

// lineKey returns the key of a KEY=VALUE line, or "" for comments and blanks.
func lineKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}
