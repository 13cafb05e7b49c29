package cli

import (
	"fmt"
	"time"

	"github.com/semmy-space/keyver/internal/auth"
	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/envfile"
	kerrors "github.com/semmy-space/keyver/internal/errors"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
	"github.com/semmy-space/keyver/internal/versioning"
)

// InitCmd creates the env file
type InitCmd struct{}

func (cmd *InitCmd) Run(cfg *config.Config, globals *Globals, log logging.Logger) error {
	if globals.DryRun {
		log.Successf("[dry-run] Would create %s", cfg.EnvFile)
		return nil
	}

	created, err := envfile.Create(cfg.EnvFile)
	if err != nil {
		return toCLIError(err)
	}
	if created {
		log.Successf("Created %s", cfg.EnvFile)
	} else {
		log.Successf("%s already exists", cfg.EnvFile)
	}
	return nil
}

// SetCmd records a new version of a secret
type SetCmd struct {
	Name  string  `arg:"" help:"Logical secret name" predictor:"secret"`
	Value *string `arg:"" optional:"" help:"Secret value (prompted without echo when omitted)"`
}

func (cmd *SetCmd) Run(sp *ServiceProvider, globals *Globals, streams *IO, log logging.Logger) error {
	if err := versioning.ValidateName(cmd.Name); err != nil {
		return toCLIError(err)
	}

	var value string
	if cmd.Value != nil {
		value = *cmd.Value
	} else {
		v, err := auth.ReadSecret(streams.In, streams.Err, fmt.Sprintf("Value for %s: ", cmd.Name))
		if err != nil {
			return output.NewCLIError(output.ExitUsage, err.Error())
		}
		value = v
	}

	sess, err := sp.Session()
	if err != nil {
		return err
	}

	if globals.DryRun {
		if current, err := sess.Get(cmd.Name); err == nil && current == value {
			log.Successf("[dry-run] Secret %s is unchanged", cmd.Name)
		} else {
			log.Successf("[dry-run] Would record a new version of %s", cmd.Name)
		}
		return nil
	}

	if _, err := sess.NewSecret(cmd.Name, value); err != nil {
		return toCLIError(err)
	}
	return nil
}

// GetCmd prints the current value of a secret
type GetCmd struct {
	Name string `arg:"" help:"Logical secret name" predictor:"secret"`
}

func (cmd *GetCmd) Run(sp *ServiceProvider, globals *Globals, fp *FormatterProvider, streams *IO) error {
	sess, err := sp.Session()
	if err != nil {
		return err
	}

	value, err := sess.Get(cmd.Name)
	if err != nil {
		return toCLIError(err)
	}

	if globals.Output == "json" {
		return fp.Formatter.Print(map[string]string{"name": cmd.Name, "value": value})
	}
	// Raw value so it can be piped
	fmt.Fprintln(streams.Out, value)
	return nil
}

type secretRow struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Versions int    `json:"versions"`
	Updated  string `json:"updated"`
}

// ListCmd lists secrets with their current values
type ListCmd struct {
	Reveal bool `help:"Show values instead of masking them" short:"r"`
}

func (cmd *ListCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	sess, err := sp.Session()
	if err != nil {
		return err
	}

	keychain := sess.Keychain()
	store := sess.Store()

	rows := make([]secretRow, 0, len(keychain))
	for _, name := range sess.Names() {
		versions := store.Versions(name)
		row := secretRow{
			Name:     name,
			Value:    revealOrMask(keychain[name], cmd.Reveal),
			Versions: len(versions),
		}
		if key, _, ok := store.LatestVersion(name); ok {
			row.Updated = formatVersionTime(key)
		}
		rows = append(rows, row)
	}

	return fp.Formatter.PrintList(rows, []output.Column{
		{Name: "Name", Key: "Name"},
		{Name: "Value", Key: "Value", Width: 40},
		{Name: "Versions", Key: "Versions"},
		{Name: "Updated", Key: "Updated"},
	})
}

type versionRow struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Created string `json:"created"`
	Value   string `json:"value"`
	Current bool   `json:"current"`
}

// HistoryCmd lists stored versions, oldest first
type HistoryCmd struct {
	Name   string `arg:"" optional:"" help:"Only show versions of this secret" predictor:"secret"`
	Reveal bool   `help:"Show values instead of masking them" short:"r"`
}

func (cmd *HistoryCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	sess, err := sp.Session()
	if err != nil {
		return err
	}
	store := sess.Store()

	names := store.LogicalNames()
	if cmd.Name != "" {
		if !store.ContainsLogicalName(cmd.Name) {
			return toCLIError(fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, cmd.Name))
		}
		names = []string{cmd.Name}
	}

	var rows []versionRow
	for _, name := range names {
		latest, _, _ := store.LatestVersion(name)
		for _, key := range store.Versions(name) {
			value, _ := store.Value(key)
			rows = append(rows, versionRow{
				Key:     key,
				Name:    name,
				Created: formatVersionTime(key),
				Value:   revealOrMask(value, cmd.Reveal),
				Current: key == latest,
			})
		}
	}

	return fp.Formatter.PrintList(rows, []output.Column{
		{Name: "Key", Key: "Key"},
		{Name: "Created", Key: "Created"},
		{Name: "Value", Key: "Value", Width: 40},
		{Name: "Current", Key: "Current"},
	})
}

// ReconcileCmd merges external edits of the env file into the history
type ReconcileCmd struct{}

func (cmd *ReconcileCmd) Run(sp *ServiceProvider, globals *Globals, log logging.Logger) error {
	sess, err := sp.Session()
	if err != nil {
		return err
	}
	if globals.DryRun {
		log.Successf("[dry-run] Would rewrite %d versions to %s", sess.Store().Len(), sess.Store().Path())
		return nil
	}
	return toCLIError(sess.Reconcile())
}

func revealOrMask(value string, reveal bool) string {
	if reveal {
		return value
	}
	return maskSecret(value)
}

// maskSecret masks sensitive values, showing only last 4 characters
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// formatVersionTime renders the timestamp embedded in a version key,
// or "-" for an unversioned entry.
func formatVersionTime(key string) string {
	ts, ok := versioning.Timestamp(key)
	if !ok {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}
