package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/semmy-space/keyver/internal/config"
)

// SecretsClient manages the Actions secrets of one repository
type SecretsClient struct {
	client *Client
	owner  string
	repo   string
}

// NewSecretsClient creates a SecretsClient for the configured repository.
// No request is made until a method is called.
func NewSecretsClient(cfg *config.Config, tokenSource oauth2.TokenSource, opts ...ClientOption) (*SecretsClient, error) {
	owner, repo, err := cfg.OwnerRepo()
	if err != nil {
		return nil, err
	}

	client, err := NewClient(cfg, tokenSource, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &SecretsClient{client: client, owner: owner, repo: repo}, nil
}

// Repo returns the "owner/name" this client targets
func (sc *SecretsClient) Repo() string {
	return sc.owner + "/" + sc.repo
}

func (sc *SecretsClient) secretsPath() string {
	return fmt.Sprintf("/repos/%s/%s/actions/secrets", url.PathEscape(sc.owner), url.PathEscape(sc.repo))
}

// ValidateCredentials reports whether the token is accepted by GET /user.
// A rejected token is not an error; transport failures are.
func (sc *SecretsClient) ValidateCredentials(ctx context.Context) (bool, error) {
	_, err := sc.CurrentUser(ctx)
	if err == nil {
		return true, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return false, nil
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return false, nil
	}
	return false, err
}

// CurrentUser fetches the authenticated user
func (sc *SecretsClient) CurrentUser(ctx context.Context) (*User, error) {
	return sc.client.CurrentUser(ctx)
}

// FetchPublicKey fetches the repository key used to seal secret values
func (sc *SecretsClient) FetchPublicKey(ctx context.Context) (*PublicKey, error) {
	resp, err := sc.client.Do(ctx, http.MethodGet, sc.secretsPath()+"/public-key", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	var key PublicKey
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &key, nil
}

// UpsertSecret creates or updates a secret. The plaintext value is sealed
// with the repository public key before it leaves the process.
func (sc *SecretsClient) UpsertSecret(ctx context.Context, name, value string) error {
	key, err := sc.FetchPublicKey(ctx)
	if err != nil {
		return err
	}

	sealed, err := Seal(key.Key, value)
	if err != nil {
		return err
	}

	body, err := json.Marshal(UpsertSecretRequest{EncryptedValue: sealed, KeyID: key.KeyID})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := sc.client.Do(ctx, http.MethodPut, sc.secretsPath()+"/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// 201 on create, 204 on update
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return parseErrorResponse(resp)
	}
	return nil
}

// listPage fetches one page of secret metadata
func (sc *SecretsClient) listPage(ctx context.Context, page, perPage int) ([]SecretMetadata, error) {
	path := fmt.Sprintf("%s?per_page=%d&page=%d", sc.secretsPath(), perPage, page)
	resp, err := sc.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	var listResp SecretListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return listResp.Secrets, nil
}

// ListSecrets returns the metadata of every repository secret
func (sc *SecretsClient) ListSecrets(ctx context.Context) ([]SecretMetadata, error) {
	iterator := NewPageIterator(func(page, perPage int) ([]SecretMetadata, error) {
		return sc.listPage(ctx, page, perPage)
	}, 100)

	secrets, err := iterator.FetchAll()
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	return secrets, nil
}

// DeleteSecret removes a secret from the repository
func (sc *SecretsClient) DeleteSecret(ctx context.Context, name string) error {
	resp, err := sc.client.Do(ctx, http.MethodDelete, sc.secretsPath()+"/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return parseErrorResponse(resp)
	}
	return nil
}
