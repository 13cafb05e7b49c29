package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
)

// warningShown checks if the file-store warning has already been shown.
// Uses a marker file in the data directory to avoid repeating on every command.
func warningShown() bool {
	return fileExists(warningMarkerPath())
}

func markWarningShown() {
	_ = os.MkdirAll(filepath.Dir(warningMarkerPath()), 0700)
	_ = os.WriteFile(warningMarkerPath(), []byte("1"), 0600)
}

func warningMarkerPath() string {
	return filepath.Join(xdg.DataHome, ServiceName, ".file-store-warning-shown")
}

// quietMode returns true if the user has suppressed warnings via KEYVER_QUIET.
func quietMode() bool {
	v := os.Getenv("KEYVER_QUIET")
	return v == "1" || v == "true"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// warnOnce prints a message to stderr, but only until markWarningsDone runs.
func warnOnce(msg string) {
	if quietMode() || warningShown() {
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

func markWarningsDone() {
	if !warningShown() {
		markWarningShown()
	}
}

// NewStore creates a Store instance using platform-appropriate backend.
// Tries OS keyring first, falls back to encrypted file if unavailable.
// WSL and headless environments go straight to the file store.
func NewStore() (Store, error) {
	password := os.Getenv(PasswordEnv)

	if IsWSL() || IsHeadless() {
		warnOnce("Detected WSL/headless environment, using encrypted file storage")
		store, err := NewFileStore(password)
		if err != nil {
			return nil, err
		}
		markWarningsDone()
		return store, nil
	}

	store, err := NewKeyringStore()
	if err != nil {
		warnOnce(fmt.Sprintf("Keyring unavailable (%v), falling back to encrypted file", err))
		fstore, ferr := NewFileStore(password)
		if ferr != nil {
			return nil, ferr
		}
		markWarningsDone()
		return fstore, nil
	}

	return store, nil
}

// IsWSL returns true if running under Windows Subsystem for Linux.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true on Linux when no X11 or Wayland display is set.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
