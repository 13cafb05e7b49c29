package github

import (
	"context"

	"github.com/semmy-space/keyver/internal/keychain"
)

// SecretsService defines the remote sync capability for repository secrets.
type SecretsService interface {
	// Credential and key operations
	ValidateCredentials(ctx context.Context) (bool, error)
	FetchPublicKey(ctx context.Context) (*PublicKey, error)

	// Secret operations
	UpsertSecret(ctx context.Context, name, value string) error
	ListSecrets(ctx context.Context) ([]SecretMetadata, error)
	DeleteSecret(ctx context.Context, name string) error
}

// Compile-time interface compliance checks
var (
	_ SecretsService  = (*SecretsClient)(nil)
	_ keychain.Remote = (*SecretsClient)(nil)
)
