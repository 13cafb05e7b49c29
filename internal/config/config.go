package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// DefaultEnvFile is the backing file used when none is configured.
const DefaultEnvFile = ".env"

// Config holds the CLI configuration
type Config struct {
	Host          string `json:"host"`
	Repo          string `json:"repo,omitempty"`
	EnvFile       string `json:"env_file,omitempty"`
	Omit          string `json:"omit,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
	DefaultOutput string `json:"default_output,omitempty"`
}

// Load reads config from XDG path, returns defaults if file doesn't exist
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path, returns defaults if the file doesn't exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Empty means "not set"; resolved in cli.AfterApply
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to the XDG config path
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// JSON is valid JSON5
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Keys returns the config key names in declaration order
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, jsonKey(t.Field(i)))
	}
	return keys
}

// Get retrieves a config value by key name
func (c *Config) Get(key string) (string, error) {
	field, ok := c.field(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return field.String(), nil
}

// Set sets a config value by key name without saving
func (c *Config) Set(key, value string) error {
	field, ok := c.field(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	field.SetString(value)
	return nil
}

// Unset resets a config value to its zero value without saving
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

func (c *Config) field(key string) (reflect.Value, bool) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		if jsonKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func jsonKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}

// GetHostConfig returns the endpoints for the configured host
func (c *Config) GetHostConfig() (HostConfig, error) {
	return GetHost(c.Host)
}

// OwnerRepo splits the configured "owner/name" repository
func (c *Config) OwnerRepo() (owner, repo string, err error) {
	return ParseRepo(c.Repo)
}

// ParseRepo splits an "owner/name" repository reference
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return owner, repo, nil
}
