package secrets

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
)

// KeyringStore implements the Store interface using the OS keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the platform keyring.
// Returns an error if the keyring is unavailable on this platform.
func NewKeyringStore() (*KeyringStore, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true, // macOS: don't prompt every access
		FileDir:                  filepath.Join(xdg.DataHome, ServiceName, "keyring"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return newKeyringStore(ring), nil
}

func newKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func (s *KeyringStore) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring get failed: %w", err)
	}
	return string(item.Data), nil
}

func (s *KeyringStore) Set(key, value string) error {
	item := keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       ServiceName + " " + key,
		Description: "keyver credential",
	}
	if err := s.ring.Set(item); err != nil {
		return fmt.Errorf("keyring set failed: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

func (s *KeyringStore) List() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("keyring list failed: %w", err)
	}
	return keys, nil
}
