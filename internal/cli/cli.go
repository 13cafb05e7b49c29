// Package cli defines the keyver command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/secrets"
)

// FormatterProvider wraps the formatter interface for Kong binding
type FormatterProvider struct {
	Formatter output.Formatter
}

// CLI is the root command structure
type CLI struct {
	Globals

	Init      InitCmd      `cmd:"" help:"Create the env file if it does not exist"`
	Set       SetCmd       `cmd:"" help:"Record a new version of a secret"`
	Get       GetCmd       `cmd:"" help:"Print the current value of a secret"`
	List      ListCmd      `cmd:"" help:"List secrets with their current values"`
	History   HistoryCmd   `cmd:"" help:"List every stored version"`
	Reconcile ReconcileCmd `cmd:"" help:"Merge external edits of the env file"`
	Export    ExportCmd    `cmd:"" help:"Push secrets to the repository's Actions secrets"`
	Remote    RemoteCmd    `cmd:"" help:"Inspect repository secrets"`
	Auth      AuthCmd      `cmd:"" help:"Authentication commands"`
	Config    ConfigCmd    `cmd:"" help:"Configuration commands"`
	Setup     SetupCmd     `cmd:"" help:"Interactive first-run setup"`
	Schema    SchemaCmd    `cmd:"" help:"Print the command tree as JSON"`

	Completion kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
	Version    VersionCmd                   `cmd:"" help:"Show version information"`

	// Streams and the credential store factory; tests replace them.
	Stdin    *os.File                       `kong:"-"`
	Stdout   io.Writer                      `kong:"-"`
	Stderr   io.Writer                      `kong:"-"`
	NewStore func() (secrets.Store, error) `kong:"-"`
}

// AfterApply runs once flags are applied. It loads config, resolves
// the effective settings, and binds dependencies for Run methods.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.NewStore == nil {
		c.NewStore = secrets.NewStore
	}

	cfg, err := config.LoadFrom(c.ConfigPath())
	if err != nil {
		return &output.CLIError{
			Message:  err.Error(),
			ExitCode: output.ExitConfigError,
			Hint:     "Check " + c.ConfigPath(),
		}
	}
	c.Globals.resolve(cfg)

	log := logging.New(c.Verbose, c.Debug)
	log.Out = c.Stderr
	log.Err = c.Stderr

	formatter := &FormatterProvider{
		Formatter: output.NewWithWriters(c.Output, c.Stdout, c.Stderr),
	}

	ctx.Bind(cfg)
	ctx.Bind(formatter)
	ctx.Bind(&c.Globals)
	ctx.Bind(log)
	ctx.Bind(&IO{In: c.Stdin, Out: c.Stdout, Err: c.Stderr})
	ctx.Bind(NewServiceProvider(cfg, log, c.NewStore))
	return nil
}

// IO carries the command streams
type IO struct {
	In  *os.File
	Out io.Writer
	Err io.Writer
}

// ExportCmd holds export subcommands
type ExportCmd struct {
	Keychain ExportKeychainCmd `cmd:"" default:"withargs" help:"Push the current value of each secret (default)"`
	History  ExportHistoryCmd  `cmd:"" help:"Push every stored version under its version key"`
}

// RemoteCmd holds repository secret subcommands
type RemoteCmd struct {
	List   RemoteListCmd   `cmd:"" help:"List secret names stored in the repository"`
	Delete RemoteDeleteCmd `cmd:"" help:"Delete a repository secret"`
}

// AuthCmd holds authentication subcommands
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Log in to GitHub"`
	Logout AuthLogoutCmd `cmd:"" help:"Remove the stored token"`
	Status AuthStatusCmd `cmd:"" help:"Show the active credentials"`
}

// ConfigCmd holds configuration subcommands
type ConfigCmd struct {
	Get   ConfigGetCmd        `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd        `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd      `cmd:"" help:"Remove a configuration value"`
	List  ConfigListConfigCmd `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd       `cmd:"" help:"Show config file path"`
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context, streams *IO) error {
	fmt.Fprintf(streams.Out, "keyver version %s\n", ctx.Model.Vars()["version"])
	return nil
}
