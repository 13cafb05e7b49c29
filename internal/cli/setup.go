package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"

	"github.com/semmy-space/keyver/internal/auth"
	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/envfile"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
)

// SetupCmd implements the interactive setup wizard
type SetupCmd struct{}

func (cmd *SetupCmd) Run(globals *Globals, sp *ServiceProvider, streams *IO, log logging.Logger) error {
	reader := bufio.NewReader(streams.In)
	w := streams.Err

	cfg, err := loadFileConfig(globals)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  keyver setup\n  ============\n\n")

	// Step 1: repository
	fmt.Fprintf(w, "  Step 1: Which repository receives exported secrets?\n\n")
	repo := promptDefault(reader, w, "  Repository (owner/name)", firstNonEmpty(globals.Repo, cfg.Repo))
	if _, _, err := config.ParseRepo(repo); err != nil {
		return &output.CLIError{Message: err.Error(), ExitCode: output.ExitUsage}
	}

	// Step 2: host
	fmt.Fprintf(w, "\n  Step 2: GitHub host (%s, or a GitHub Enterprise hostname)\n\n", strings.Join(config.ValidHosts(), ", "))
	host := promptDefault(reader, w, "  Host", firstNonEmpty(globals.Host, cfg.Host, config.DefaultHost))
	if _, err := config.GetHost(host); err != nil {
		return &output.CLIError{Message: err.Error(), ExitCode: output.ExitUsage}
	}

	// Step 3: env file
	fmt.Fprintf(w, "\n  Step 3: Env file holding the secret history\n\n")
	envFile := promptDefault(reader, w, "  Env file", firstNonEmpty(cfg.EnvFile, config.DefaultEnvFile))

	cfg.Repo = repo
	cfg.Host = host
	cfg.EnvFile = envFile
	if err := cfg.SaveTo(globals.ConfigPath()); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to save config: %v", err),
			ExitCode: output.ExitConfigError,
		}
	}
	if _, err := envfile.Create(envFile); err != nil {
		return toCLIError(err)
	}

	// Step 4: login
	fmt.Fprintf(w, "\n  Step 4: Authenticate\n\n")
	loggedIn := false
	if answer := promptDefault(reader, w, "  Log in now? [Y/n]", "y"); strings.HasPrefix(strings.ToLower(answer), "y") {
		if err := setupLogin(cfg, sp, reader, w, log); err != nil {
			return err
		}
		loggedIn = true
	}

	fmt.Fprintf(w, "\n  Setup complete!\n\n")
	fmt.Fprintf(w, "    Repository: %s\n", repo)
	fmt.Fprintf(w, "    Host:       %s\n", host)
	fmt.Fprintf(w, "    Env file:   %s\n", envFile)
	fmt.Fprintf(w, "    Config:     %s\n\n", globals.ConfigPath())
	if !loggedIn {
		fmt.Fprintf(w, "  Log in later with: keyver auth login\n\n")
	}
	fmt.Fprintf(w, "  Try it out:\n\n")
	fmt.Fprintf(w, "    keyver set DB_PASSWORD\n")
	fmt.Fprintf(w, "    keyver export --dry-run\n\n")
	return nil
}

// setupLogin stores a pasted token, or runs the device flow when a client id is configured
func setupLogin(cfg *config.Config, sp *ServiceProvider, reader *bufio.Reader, w io.Writer, log logging.Logger) error {
	if cfg.Host != "" {
		sp.cfg.Host = cfg.Host
	}
	tokens, err := sp.Tokens()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var tok *oauth2.Token

	if cfg.ClientID != "" {
		tok, err = auth.DeviceLogin(ctx, cfg, auth.DeviceLoginOptions{Out: w, OpenBrowser: true})
		if err != nil {
			return &output.CLIError{Message: fmt.Sprintf("Login failed: %v", err), ExitCode: output.ExitAuth}
		}
	} else {
		raw := promptDefault(reader, w, "  Personal access token", "")
		if raw == "" {
			return output.NewCLIError(output.ExitUsage, "no token provided")
		}
		tok = &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	}

	user, err := verifyToken(ctx, cfg, tok)
	if err != nil {
		return err
	}
	if err := tokens.SaveToken(tok); err != nil {
		return &output.CLIError{Message: fmt.Sprintf("Failed to save token: %v", err), ExitCode: output.ExitGeneral}
	}
	log.Successf("Logged in to %s as %s", tokens.Host(), user.Login)
	return nil
}

// promptDefault prints a prompt and reads a line of input, returning def for an empty answer
func promptDefault(reader *bufio.Reader, w io.Writer, text, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", text, def)
	} else {
		fmt.Fprintf(w, "%s: ", text)
	}
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
