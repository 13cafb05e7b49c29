package cli

import (
	"github.com/semmy-space/keyver/internal/config"
)

// Globals holds global flags available to all commands.
// Empty values fall back to the config file, then to defaults.
type Globals struct {
	EnvFile string `help:"Env file holding the secret history" name:"env-file" short:"f" env:"KEYVER_ENV_FILE" type:"path"`
	Repo    string `help:"Target repository (owner/name)" env:"KEYVER_REPO"`
	Host    string `help:"GitHub host: github, a GHES hostname, or an API URL" env:"KEYVER_HOST"`
	Output  string `help:"Output format" default:"" enum:"json,plain,rich,auto," short:"o" env:"KEYVER_OUTPUT"`
	Verbose bool   `help:"Verbose output" short:"v" env:"KEYVER_VERBOSE"`
	Debug   bool   `help:"Debug output (implies --verbose)" env:"KEYVER_DEBUG"`
	DryRun  bool   `help:"Preview operation without executing" name:"dry-run" env:"KEYVER_DRY_RUN"`
	Config  string `help:"Config file path" name:"config" env:"KEYVER_CONFIG" type:"path"`
}

// ConfigPath returns the config file in effect
func (g *Globals) ConfigPath() string {
	if g.Config != "" {
		return g.Config
	}
	return config.ConfigPath()
}

// resolve fills unset globals from cfg and writes flag overrides back into
// cfg, so both describe the effective settings.
func (g *Globals) resolve(cfg *config.Config) {
	if g.EnvFile == "" {
		g.EnvFile = cfg.EnvFile
	}
	if g.EnvFile == "" {
		g.EnvFile = config.DefaultEnvFile
	}
	cfg.EnvFile = g.EnvFile

	if g.Repo != "" {
		cfg.Repo = g.Repo
	}
	if g.Host != "" {
		cfg.Host = g.Host
	}
	if cfg.Host == "" {
		cfg.Host = config.DefaultHost
	}

	if g.Output == "" {
		g.Output = cfg.DefaultOutput
	}
	if g.Output == "" {
		g.Output = "auto"
	}
}
