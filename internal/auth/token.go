package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/secrets"
)

// TokenEnvVars are consulted in order before the credential store
var TokenEnvVars = []string{"KEYVER_TOKEN", "GITHUB_TOKEN"}

// TokenSource implements oauth2.TokenSource over the credential store.
// Writes hold a per-host file lock so two logins cannot interleave.
type TokenSource struct {
	store    secrets.Store
	host     string // bare hostname, e.g. github.com
	lockPath string
	oauth    *oauth2.Config // nil when no client_id is configured
}

// NewTokenSource creates a token source for the configured host
func NewTokenSource(cfg *config.Config, store secrets.Store) (*TokenSource, error) {
	host, err := cfg.GetHostConfig()
	if err != nil {
		return nil, err
	}
	name := hostName(host)

	ts := newTokenSource(name, store, filepath.Join(config.DataDir(), fmt.Sprintf("token-%s.lock", name)))
	if cfg.ClientID != "" {
		ts.oauth = newOAuth2Config(cfg.ClientID, host)
	}
	return ts, nil
}

func newTokenSource(host string, store secrets.Store, lockPath string) *TokenSource {
	return &TokenSource{store: store, host: host, lockPath: lockPath}
}

func hostName(h config.HostConfig) string {
	u, err := url.Parse(h.WebBase)
	if err != nil || u.Host == "" {
		return h.WebBase
	}
	return u.Host
}

// Host returns the hostname tokens are stored under
func (ts *TokenSource) Host() string {
	return ts.host
}

// StoreKey is the credential store key for this host's token
func (ts *TokenSource) StoreKey() string {
	return "github_token_" + ts.host
}

// EnvToken returns the first non-empty token env var and its name
func EnvToken() (name, token string) {
	for _, name := range TokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return name, v
		}
	}
	return "", ""
}

// Source describes where Token would come from: an env var name,
// "store", or "" when no token is available.
func (ts *TokenSource) Source() string {
	if name, _ := EnvToken(); name != "" {
		return name
	}
	if _, err := ts.store.Get(ts.StoreKey()); err == nil {
		return "store"
	}
	return ""
}

// Token implements oauth2.TokenSource.
// An expired stored token is refreshed when a refresh token and client_id are available.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	if _, tok := EnvToken(); tok != "" {
		return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
	}

	tok, err := ts.stored()
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}

	if tok.RefreshToken == "" || ts.oauth == nil {
		return nil, &output.CLIError{
			Message:  "Stored token for " + ts.host + " has expired",
			ExitCode: output.ExitAuth,
			Hint:     "Run: keyver auth login",
		}
	}

	fresh, err := ts.oauth.TokenSource(context.Background(), tok).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode == "invalid_grant" {
			return nil, &output.CLIError{
				Message:  "Refresh token expired or revoked",
				ExitCode: output.ExitAuth,
				Hint:     "Run: keyver auth login",
			}
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if err := ts.SaveToken(fresh); err != nil {
		// Non-fatal - the fresh token is still usable for this run
		fmt.Fprintf(os.Stderr, "Warning: failed to store refreshed token: %v\n", err)
	}
	return fresh, nil
}

func (ts *TokenSource) stored() (*oauth2.Token, error) {
	raw, err := ts.store.Get(ts.StoreKey())
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return nil, &output.CLIError{
				Message:  "Not logged in to " + ts.host,
				ExitCode: output.ExitAuth,
				Hint:     "Run: keyver auth login, or set KEYVER_TOKEN",
			}
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	return &tok, nil
}

// SaveToken stores the token from a successful login
func (ts *TokenSource) SaveToken(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("refusing to store an empty token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), secrets.LockTimeout)
	defer cancel()
	unlock, err := secrets.Lock(ctx, ts.lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}
	if err := ts.store.Set(ts.StoreKey(), string(data)); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token (used by logout).
// Clearing a host with no stored token is not an error.
func (ts *TokenSource) ClearToken() error {
	ctx, cancel := context.WithTimeout(context.Background(), secrets.LockTimeout)
	defer cancel()
	unlock, err := secrets.Lock(ctx, ts.lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ts.store.Delete(ts.StoreKey()); err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if err := os.Remove(ts.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete lock file: %w", err)
	}
	return nil
}

// Expiry reports when the stored token expires; zero means never
func (ts *TokenSource) Expiry() (time.Time, error) {
	tok, err := ts.stored()
	if err != nil {
		return time.Time{}, err
	}
	return tok.Expiry, nil
}
