package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the XDG subdirectories used by keyver
const AppName = "keyver"

// ConfigDir returns the XDG-compliant config directory for keyver
// Typically ~/.config/keyver/ on Linux
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}

// DataDir returns the XDG-compliant data directory for keyver
// Typically ~/.local/share/keyver/ on Linux (credential file fallback, locks)
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
