package github

import (
	"fmt"
	"net/http"
	"time"

	kerrors "github.com/semmy-space/keyver/internal/errors"
)

// PublicKey is the response from GET /repos/{owner}/{repo}/actions/secrets/public-key
type PublicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"` // Base64 Curve25519 public key
}

// SecretMetadata describes a repository secret. GitHub never returns values.
type SecretMetadata struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretListResponse is the response from GET /repos/{owner}/{repo}/actions/secrets
type SecretListResponse struct {
	TotalCount int              `json:"total_count"`
	Secrets    []SecretMetadata `json:"secrets"`
}

// UpsertSecretRequest is the request body for PUT /repos/{owner}/{repo}/actions/secrets/{name}
type UpsertSecretRequest struct {
	EncryptedValue string `json:"encrypted_value"`
	KeyID          string `json:"key_id"`
}

// User is the subset of GET /user used to confirm credentials
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// APIError represents a non-success response from the GitHub API
type APIError struct {
	StatusCode       int    `json:"-"`
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// Is makes every APIError match ErrRemoteTransport
func (e *APIError) Is(target error) bool {
	return target == kerrors.ErrRemoteTransport
}

// Unauthorized reports whether the credentials were rejected
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
