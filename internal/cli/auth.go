package cli

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/semmy-space/keyver/internal/auth"
	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/github"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
)

// AuthLoginCmd implements the auth login command
type AuthLoginCmd struct {
	WithToken bool `help:"Read a personal access token from stdin instead of the device flow" name:"with-token"`
	NoBrowser bool `help:"Print the verification URL without opening a browser" name:"no-browser"`
}

func (cmd *AuthLoginCmd) Run(cfg *config.Config, sp *ServiceProvider, streams *IO, log logging.Logger) error {
	tokens, err := sp.Tokens()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var token *oauth2.Token

	if cmd.WithToken || cfg.ClientID == "" {
		if !cmd.WithToken {
			log.Infof("No client_id configured; falling back to a personal access token")
		}
		token, err = auth.PastedTokenLogin(streams.In, streams.Err)
	} else {
		token, err = auth.DeviceLogin(ctx, cfg, auth.DeviceLoginOptions{
			Out:         streams.Err,
			OpenBrowser: !cmd.NoBrowser,
		})
	}
	if err != nil {
		if cliErr := asCLIError(err); cliErr != nil {
			return cliErr
		}
		return &output.CLIError{
			Message:  fmt.Sprintf("Login failed: %v", err),
			ExitCode: output.ExitAuth,
		}
	}

	user, err := verifyToken(ctx, cfg, token)
	if err != nil {
		return err
	}

	if err := tokens.SaveToken(token); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to save token: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}

	log.Successf("Logged in to %s as %s", tokens.Host(), user.Login)
	if name, _ := auth.EnvToken(); name != "" {
		log.Warnf("%s is set and takes precedence over the stored token", name)
	}
	return nil
}

// verifyToken confirms the token against GET /user before it is stored
func verifyToken(ctx context.Context, cfg *config.Config, token *oauth2.Token) (*github.User, error) {
	client, err := github.NewClient(cfg, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, toCLIError(err)
	}
	user, err := client.CurrentUser(ctx)
	if err != nil {
		cliErr := toCLIError(err).(*output.CLIError)
		cliErr.Message = "Token was rejected: " + cliErr.Message
		return nil, cliErr
	}
	return user, nil
}

// AuthLogoutCmd implements the auth logout command
type AuthLogoutCmd struct{}

func (cmd *AuthLogoutCmd) Run(sp *ServiceProvider, globals *Globals, log logging.Logger) error {
	tokens, err := sp.Tokens()
	if err != nil {
		return err
	}

	if globals.DryRun {
		log.Successf("[dry-run] Would remove the stored token for %s", tokens.Host())
		return nil
	}

	if err := tokens.ClearToken(); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to clear token: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}

	log.Successf("Logged out of %s", tokens.Host())
	if name, _ := auth.EnvToken(); name != "" {
		log.Warnf("%s is still set and will be used", name)
	}
	return nil
}

// AuthStatusCmd implements the auth status command
type AuthStatusCmd struct {
	Check bool `help:"Validate the token against the API" short:"c"`
}

type authStatus struct {
	Host    string `json:"host"`
	Source  string `json:"source"`
	User    string `json:"user,omitempty"`
	Valid   string `json:"valid"`
	Expires string `json:"expires,omitempty"`
	Repo    string `json:"repo,omitempty"`
}

func (cmd *AuthStatusCmd) Run(cfg *config.Config, sp *ServiceProvider, fp *FormatterProvider) error {
	tokens, err := sp.Tokens()
	if err != nil {
		return err
	}

	status := authStatus{
		Host:   tokens.Host(),
		Source: tokens.Source(),
		Valid:  "unknown",
		Repo:   cfg.Repo,
	}
	if status.Source == "" {
		status.Source = "none"
		status.Valid = "no"
		return fp.Formatter.Print(status)
	}

	if status.Source == "store" {
		if exp, err := tokens.Expiry(); err == nil && !exp.IsZero() {
			status.Expires = exp.UTC().Format(time.RFC3339)
		}
	}

	if cmd.Check {
		token, err := tokens.Token()
		if err != nil {
			status.Valid = "no"
		} else if user, err := verifyToken(context.Background(), cfg, token); err != nil {
			status.Valid = "no"
		} else {
			status.Valid = "yes"
			status.User = user.Login
		}
	}

	return fp.Formatter.Print(status)
}

func asCLIError(err error) *output.CLIError {
	if cliErr, ok := toCLIError(err).(*output.CLIError); ok && cliErr.ExitCode != output.ExitGeneral {
		return cliErr
	}
	return nil
}
