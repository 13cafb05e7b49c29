package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/pkg/browser"
)

// newOAuth2Config creates an oauth2.Config for the GitHub device flow.
// GitHub OAuth apps have no secret in this flow, so the client id goes in the form body.
func newOAuth2Config(clientID string, host config.HostConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: host.DeviceAuthURL,
			TokenURL:      host.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
		Scopes: DefaultScopes,
	}
}

// DeviceLoginOptions controls the device flow prompts
type DeviceLoginOptions struct {
	Out         io.Writer // instructions; defaults to stderr
	OpenBrowser bool
}

// DeviceLogin runs the OAuth device authorization flow: it prints a
// one-time code, opens the verification page, and polls until the user
// approves or the code expires.
func DeviceLogin(ctx context.Context, cfg *config.Config, opts DeviceLoginOptions) (*oauth2.Token, error) {
	if cfg.ClientID == "" {
		return nil, &output.CLIError{
			Message:  "An OAuth app client ID is required for device login",
			ExitCode: output.ExitConfigError,
			Hint:     "Run: keyver config set client_id <id>, or use: keyver auth login --with-token",
		}
	}

	host, err := cfg.GetHostConfig()
	if err != nil {
		return nil, err
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	oauthCfg := newOAuth2Config(cfg.ClientID, host)
	da, err := oauthCfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}

	fmt.Fprintf(out, "First copy your one-time code: %s\n", da.UserCode)
	fmt.Fprintf(out, "Then visit: %s\n\n", da.VerificationURI)

	if opts.OpenBrowser {
		if err := browser.Open(da.VerificationURI); err != nil {
			fmt.Fprintf(out, "Failed to open browser: %v\n", err)
		}
	}

	tok, err := oauthCfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device login failed: %w", err)
	}
	return tok, nil
}

// ReadSecret prompts on w and reads one line from f. Input is not echoed
// when f is a terminal.
func ReadSecret(f *os.File, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)

	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(b), nil
	}

	return readLine(f)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PastedTokenLogin reads a personal access token from f
func PastedTokenLogin(f *os.File, w io.Writer) (*oauth2.Token, error) {
	raw, err := ReadSecret(f, w, "Paste a personal access token: ")
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, output.NewCLIError(output.ExitUsage, "no token provided")
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}
