package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/semmy-space/keyver/internal/auth"
	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/github"
	"github.com/semmy-space/keyver/internal/keychain"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/secrets"
)

// ServiceProvider lazily creates and caches the credential store, the
// token source and the repository secrets client.
type ServiceProvider struct {
	cfg      *config.Config
	log      logging.Logger
	newStore func() (secrets.Store, error)

	storeOnce sync.Once
	store     secrets.Store
	storeErr  error

	tokensOnce sync.Once
	tokens     *auth.TokenSource
	tokensErr  error

	remoteOnce sync.Once
	remote     *github.SecretsClient
	remoteErr  error
}

// NewServiceProvider creates a ServiceProvider with the given config.
func NewServiceProvider(cfg *config.Config, log logging.Logger, newStore func() (secrets.Store, error)) *ServiceProvider {
	if newStore == nil {
		newStore = secrets.NewStore
	}
	return &ServiceProvider{cfg: cfg, log: log, newStore: newStore}
}

// Store returns the credential store, opening it on first call.
func (sp *ServiceProvider) Store() (secrets.Store, error) {
	sp.storeOnce.Do(func() {
		sp.store, sp.storeErr = sp.newStore()
		if sp.storeErr != nil {
			sp.storeErr = &output.CLIError{
				ExitCode: output.ExitGeneral,
				Message:  fmt.Sprintf("Failed to initialize secrets store: %v", sp.storeErr),
			}
		}
	})
	return sp.store, sp.storeErr
}

// Tokens returns the token source for the configured host.
func (sp *ServiceProvider) Tokens() (*auth.TokenSource, error) {
	sp.tokensOnce.Do(func() {
		store, err := sp.Store()
		if err != nil {
			sp.tokensErr = err
			return
		}
		sp.tokens, sp.tokensErr = auth.NewTokenSource(sp.cfg, store)
		if sp.tokensErr != nil {
			sp.tokensErr = &output.CLIError{
				ExitCode: output.ExitConfigError,
				Message:  fmt.Sprintf("Invalid host: %v", sp.tokensErr),
			}
		}
	})
	return sp.tokens, sp.tokensErr
}

// Remote returns the secrets client for the configured repository.
func (sp *ServiceProvider) Remote() (*github.SecretsClient, error) {
	sp.remoteOnce.Do(func() {
		if sp.cfg.Repo == "" {
			sp.remoteErr = &output.CLIError{
				ExitCode: output.ExitConfigError,
				Message:  "No repository configured",
				Hint:     "Pass --repo owner/name or run: keyver config set repo owner/name",
			}
			return
		}

		tokens, err := sp.Tokens()
		if err != nil {
			sp.remoteErr = err
			return
		}

		sp.remote, sp.remoteErr = github.NewSecretsClient(sp.cfg, tokens)
		if sp.remoteErr != nil {
			sp.remoteErr = &output.CLIError{
				ExitCode: output.ExitConfigError,
				Message:  fmt.Sprintf("Failed to create GitHub client: %v", sp.remoteErr),
			}
		}
	})
	return sp.remote, sp.remoteErr
}

// Session opens the env file as a keychain session.
func (sp *ServiceProvider) Session(opts ...keychain.Option) (*keychain.Session, error) {
	opts = append([]keychain.Option{keychain.WithLogger(sp.log)}, opts...)
	sess, err := keychain.Open(sp.cfg.EnvFile, opts...)
	if err != nil {
		return nil, toCLIError(err)
	}
	return sess, nil
}

// AttachedSession opens a session and attaches the repository remote.
func (sp *ServiceProvider) AttachedSession(ctx context.Context, opts ...keychain.Option) (*keychain.Session, error) {
	remote, err := sp.Remote()
	if err != nil {
		return nil, err
	}
	sess, err := sp.Session(opts...)
	if err != nil {
		return nil, err
	}

	sp.log.Infof("Validating credentials for %s", remote.Repo())
	if err := sess.AttachRemote(ctx, remote); err != nil {
		return nil, toCLIError(err)
	}
	return sess, nil
}
