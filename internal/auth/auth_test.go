package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/secrets"
)

func clearTokenEnv(t *testing.T) {
	for _, name := range TokenEnvVars {
		t.Setenv(name, "")
	}
}

func newTestTokenSource(t *testing.T) (*TokenSource, secrets.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStoreAt(filepath.Join(dir, "creds.enc"), "pw")
	require.NoError(t, err)
	return newTokenSource("github.com", store, filepath.Join(dir, "token.lock")), store
}

func TestTokenNotLoggedIn(t *testing.T) {
	clearTokenEnv(t)
	ts, _ := newTestTokenSource(t)

	_, err := ts.Token()
	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitAuth, cliErr.ExitCode)
	assert.Equal(t, "", ts.Source())
}

func TestSaveTokenThenToken(t *testing.T) {
	clearTokenEnv(t)
	ts, store := newTestTokenSource(t)

	require.NoError(t, ts.SaveToken(&oauth2.Token{AccessToken: "gho_stored"}))

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "gho_stored", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "store", ts.Source())

	raw, err := store.Get("github_token_github.com")
	require.NoError(t, err)
	var saved oauth2.Token
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, "gho_stored", saved.AccessToken)
}

func TestEnvTokenTakesPrecedence(t *testing.T) {
	clearTokenEnv(t)
	ts, _ := newTestTokenSource(t)
	require.NoError(t, ts.SaveToken(&oauth2.Token{AccessToken: "gho_stored"}))

	t.Setenv("GITHUB_TOKEN", "from-github-env")
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-github-env", tok.AccessToken)
	assert.Equal(t, "GITHUB_TOKEN", ts.Source())

	t.Setenv("KEYVER_TOKEN", "from-keyver-env")
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-keyver-env", tok.AccessToken)
}

func TestExpiredTokenWithoutRefresh(t *testing.T) {
	clearTokenEnv(t)
	ts, _ := newTestTokenSource(t)
	require.NoError(t, ts.SaveToken(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}))

	_, err := ts.Token()
	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Contains(t, cliErr.Message, "expired")
}

func TestClearToken(t *testing.T) {
	clearTokenEnv(t)
	ts, _ := newTestTokenSource(t)
	require.NoError(t, ts.SaveToken(&oauth2.Token{AccessToken: "x"}))

	require.NoError(t, ts.ClearToken())
	assert.Equal(t, "", ts.Source())

	// idempotent
	require.NoError(t, ts.ClearToken())
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	ts, _ := newTestTokenSource(t)
	assert.Error(t, ts.SaveToken(&oauth2.Token{}))
}

func TestNewTokenSourceHostKey(t *testing.T) {
	ts, err := NewTokenSource(&config.Config{Host: "ghe.example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ghe.example.com", ts.Host())
	assert.Equal(t, "github_token_ghe.example.com", ts.StoreKey())
}

func TestDeviceLoginRequiresClientID(t *testing.T) {
	_, err := DeviceLogin(t.Context(), &config.Config{}, DeviceLoginOptions{Out: &strings.Builder{}})
	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitConfigError, cliErr.ExitCode)
}

func TestDeviceLogin(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/login/device/code":
			assert.Equal(t, "repo", r.PostForm.Get("scope"))
			fmt.Fprint(w, `{"device_code":"dc","user_code":"ABCD-1234","verification_uri":"https://example.test/device","expires_in":60,"interval":1}`)
		case "/login/oauth/access_token":
			assert.Equal(t, "dc", r.PostForm.Get("device_code"))
			polls++
			if polls == 1 {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"authorization_pending"}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"gho_device","token_type":"bearer","scope":"repo"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out strings.Builder
	tok, err := DeviceLogin(t.Context(), &config.Config{Host: srv.URL, ClientID: "cid"}, DeviceLoginOptions{Out: &out})
	require.NoError(t, err)
	assert.Equal(t, "gho_device", tok.AccessToken)
	assert.Contains(t, out.String(), "ABCD-1234")
	assert.Contains(t, out.String(), "https://example.test/device")
	assert.Equal(t, 2, polls)
}

func TestPastedTokenLoginFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("  ghp_pasted  \n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	defer r.Close()

	var prompt strings.Builder
	tok, err := PastedTokenLogin(r, &prompt)
	require.NoError(t, err)
	assert.Equal(t, "ghp_pasted", tok.AccessToken)
	assert.Contains(t, prompt.String(), "personal access token")
}

func TestReadLineWithoutNewline(t *testing.T) {
	line, err := readLine(strings.NewReader("value"))
	require.NoError(t, err)
	assert.Equal(t, "value", line)

	_, err = readLine(strings.NewReader(""))
	assert.Error(t, err)
}
