package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// FileStore implements the Store interface using an AES-256-GCM encrypted file.
// This is a fallback for environments where OS keyring is unavailable (WSL, headless, Docker).
// Read-modify-write cycles hold an advisory lock on a sibling .lock file.
type FileStore struct {
	path string
	key  []byte
}

// DefaultFilePath is where the encrypted credential file lives
func DefaultFilePath() string {
	return filepath.Join(xdg.DataHome, ServiceName, "credentials.enc")
}

// NewFileStore creates a file-backed credential store at DefaultFilePath.
// If password is empty, uses a machine-specific default (less secure, prints warning).
func NewFileStore(password string) (*FileStore, error) {
	if password == "" {
		warnOnce("WARNING: Using machine-specific encryption key. For better security, set a password via " + PasswordEnv + ".")
	}
	return NewFileStoreAt(DefaultFilePath(), password)
}

// NewFileStoreAt creates a file-backed credential store at path
func NewFileStoreAt(path, password string) (*FileStore, error) {
	if password == "" {
		password = machineID()
	}
	// TODO: derive with scrypt from x/crypto instead of a bare sha256
	hash := sha256.Sum256([]byte(password))

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	return &FileStore{path: path, key: hash[:]}, nil
}

func machineID() string {
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME") // Windows fallback
	}
	return fmt.Sprintf("%s@%s", username, hostname)
}

// Path returns the encrypted file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// encrypt seals plaintext with a random nonce prepended to the ciphertext.
func (s *FileStore) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *FileStore) decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// readStore decrypts and parses the credential file.
// Returns an empty map if the file doesn't exist.
func (s *FileStore) readStore() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if len(data) == 0 {
		return make(map[string]string), nil
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var store map[string]string
	if err := json.Unmarshal(plaintext, &store); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if store == nil {
		store = make(map[string]string)
	}
	return store, nil
}

func (s *FileStore) writeStore(store map[string]string) error {
	plaintext, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	ciphertext, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// update runs fn over the decoded map under the file lock and writes the result
func (s *FileStore) update(fn func(map[string]string) error) error {
	unlock, err := Lock(context.Background(), s.path+".lock")
	if err != nil {
		return err
	}
	defer unlock()

	store, err := s.readStore()
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		return err
	}
	return s.writeStore(store)
}

func (s *FileStore) Get(key string) (string, error) {
	store, err := s.readStore()
	if err != nil {
		return "", err
	}

	value, ok := store[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Set(key, value string) error {
	return s.update(func(store map[string]string) error {
		store[key] = value
		return nil
	})
}

func (s *FileStore) Delete(key string) error {
	return s.update(func(store map[string]string) error {
		if _, ok := store[key]; !ok {
			return ErrNotFound
		}
		delete(store, key)
		return nil
	})
}

func (s *FileStore) List() ([]string, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	return keys, nil
}
