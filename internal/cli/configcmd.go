package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/keychain"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/versioning"
)

// loadFileConfig reads the config file itself, without flag or env overrides,
// so that writes never persist a one-off --repo or --host.
func loadFileConfig(globals *Globals) (*config.Config, error) {
	cfg, err := config.LoadFrom(globals.ConfigPath())
	if err != nil {
		return nil, &output.CLIError{Message: err.Error(), ExitCode: output.ExitConfigError}
	}
	return cfg, nil
}

func unknownKey(key string) error {
	return &output.CLIError{
		Message:  fmt.Sprintf("Unknown config key: %s", key),
		ExitCode: output.ExitUsage,
		Hint:     "Valid keys: " + strings.Join(config.Keys(), ", "),
	}
}

// ConfigGetCmd implements config get command
type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key to get (e.g., repo, host)"`
}

func (cmd *ConfigGetCmd) Run(globals *Globals, streams *IO) error {
	cfg, err := loadFileConfig(globals)
	if err != nil {
		return err
	}

	value, err := cfg.Get(cmd.Key)
	if err != nil {
		return unknownKey(cmd.Key)
	}

	fmt.Fprintln(streams.Out, value)
	return nil
}

// ConfigSetCmd implements config set command
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key to set"`
	Value string `arg:"" help:"Value to set"`
}

func (cmd *ConfigSetCmd) Run(globals *Globals, log logging.Logger) error {
	cfg, err := loadFileConfig(globals)
	if err != nil {
		return err
	}
	if _, err := cfg.Get(cmd.Key); err != nil {
		return unknownKey(cmd.Key)
	}

	if err := validateConfigValue(cmd.Key, cmd.Value); err != nil {
		return &output.CLIError{Message: err.Error(), ExitCode: output.ExitUsage}
	}

	if globals.DryRun {
		log.Successf("[dry-run] Would set %s = %s", cmd.Key, cmd.Value)
		return nil
	}

	if err := cfg.Set(cmd.Key, cmd.Value); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to set config: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}
	if err := cfg.SaveTo(globals.ConfigPath()); err != nil {
		return &output.CLIError{Message: err.Error(), ExitCode: output.ExitConfigError}
	}

	log.Successf("Set %s = %s", cmd.Key, cmd.Value)
	return nil
}

// validateConfigValue rejects values that would only fail later
func validateConfigValue(key, value string) error {
	switch key {
	case "host":
		if _, err := config.GetHost(value); err != nil {
			return fmt.Errorf("invalid host %q. Presets: %s, or a GHES hostname", value, strings.Join(config.ValidHosts(), ", "))
		}
	case "repo":
		if _, _, err := config.ParseRepo(value); err != nil {
			return err
		}
	case "default_output":
		if !slices.Contains(output.Modes, value) {
			return fmt.Errorf("invalid output %q. Valid: %s", value, strings.Join(output.Modes, ", "))
		}
	case "omit":
		for _, name := range keychain.ParseOmitList(value).Names() {
			if err := versioning.ValidateName(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ConfigUnsetCmd implements config unset command
type ConfigUnsetCmd struct {
	Key string `arg:"" help:"Config key to remove"`
}

func (cmd *ConfigUnsetCmd) Run(globals *Globals, log logging.Logger) error {
	cfg, err := loadFileConfig(globals)
	if err != nil {
		return err
	}
	if _, err := cfg.Get(cmd.Key); err != nil {
		return unknownKey(cmd.Key)
	}

	if err := cfg.Unset(cmd.Key); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to unset config: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}
	if err := cfg.SaveTo(globals.ConfigPath()); err != nil {
		return &output.CLIError{Message: err.Error(), ExitCode: output.ExitConfigError}
	}

	log.Successf("Unset %s", cmd.Key)
	return nil
}

// ConfigListConfigCmd implements config list command
type ConfigListConfigCmd struct{}

func (cmd *ConfigListConfigCmd) Run(globals *Globals, fp *FormatterProvider) error {
	cfg, err := loadFileConfig(globals)
	if err != nil {
		return err
	}

	type ConfigItem struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}

	items := make([]ConfigItem, 0, len(config.Keys()))
	for _, key := range config.Keys() {
		value, _ := cfg.Get(key)
		items = append(items, ConfigItem{Key: key, Value: value})
	}

	return fp.Formatter.PrintList(items, []output.Column{
		{Name: "Key", Key: "Key"},
		{Name: "Value", Key: "Value"},
	})
}

// ConfigPathCmd implements config path command
type ConfigPathCmd struct{}

func (cmd *ConfigPathCmd) Run(globals *Globals, streams *IO) error {
	path := globals.ConfigPath()
	fmt.Fprintln(streams.Out, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(streams.Err, "(file does not exist yet - will be created on first write)\n")
	} else {
		fmt.Fprintf(streams.Err, "(file exists)\n")
	}
	return nil
}
