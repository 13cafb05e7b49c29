package cli

import (
	"context"
	"fmt"

	"github.com/semmy-space/keyver/internal/config"
	"github.com/semmy-space/keyver/internal/keychain"
	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
)

// ExportFlags are shared by both export subcommands
type ExportFlags struct {
	Omit []string `help:"Logical names to leave out, in addition to the configured omit list" short:"x" sep:"," predictor:"secret"`
}

func (f ExportFlags) omitList(cfg *config.Config) keychain.OmitList {
	list := keychain.ParseOmitList(cfg.Omit)
	for _, name := range f.Omit {
		list.Add(name)
	}
	return list
}

// ExportKeychainCmd pushes the current value of each secret
type ExportKeychainCmd struct {
	ExportFlags `embed:""`
}

func (cmd *ExportKeychainCmd) Run(cfg *config.Config, sp *ServiceProvider, globals *Globals, fp *FormatterProvider, log logging.Logger) error {
	return runExport(cfg, sp, globals, fp, log, cmd.omitList(cfg), (*keychain.Session).ExportKeychain)
}

// ExportHistoryCmd pushes every stored version under its version key
type ExportHistoryCmd struct {
	ExportFlags `embed:""`
}

func (cmd *ExportHistoryCmd) Run(cfg *config.Config, sp *ServiceProvider, globals *Globals, fp *FormatterProvider, log logging.Logger) error {
	return runExport(cfg, sp, globals, fp, log, cmd.omitList(cfg), (*keychain.Session).ExportHistory)
}

type exportFunc func(*keychain.Session, context.Context, keychain.ExportOptions) (keychain.ExportResult, error)

type exportRow struct {
	Secret string `json:"secret"`
	Status string `json:"status"`
}

func runExport(cfg *config.Config, sp *ServiceProvider, globals *Globals, fp *FormatterProvider, log logging.Logger, omit keychain.OmitList, export exportFunc) error {
	ctx := context.Background()

	sess, err := sp.AttachedSession(ctx, keychain.WithOmitList(omit))
	if err != nil {
		return err
	}

	res, err := export(sess, ctx, keychain.ExportOptions{DryRun: globals.DryRun})
	if err != nil {
		cliErr := toCLIError(err).(*output.CLIError)
		cliErr.Message = fmt.Sprintf("Export to %s stopped after %d secrets: %s", cfg.Repo, len(res.Names), cliErr.Message)
		return cliErr
	}

	if res.Status == keychain.Skipped {
		return toCLIError(res.Reason)
	}

	status := "exported"
	if globals.DryRun {
		status = "would export"
	}
	rows := make([]exportRow, 0, len(res.Names)+len(res.Omitted))
	for _, name := range res.Names {
		rows = append(rows, exportRow{Secret: name, Status: status})
	}
	for _, name := range res.Omitted {
		rows = append(rows, exportRow{Secret: name, Status: "omitted"})
	}

	log.Infof("%d exported, %d omitted", len(res.Names), len(res.Omitted))
	return fp.Formatter.PrintList(rows, []output.Column{
		{Name: "Secret", Key: "Secret"},
		{Name: "Status", Key: "Status"},
	})
}
