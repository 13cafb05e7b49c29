package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/keyver/internal/cli"
	"github.com/semmy-space/keyver/internal/output"
)

var (
	version = "dev"
)

func main() {
	cliInstance := &cli.CLI{}
	parser := kong.Must(cliInstance,
		kong.Name("keyver"),
		kong.Description("Versioned secrets in a .env file, exported to GitHub Actions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	// Answers shell completion requests and exits; no-op otherwise
	kongplete.Complete(parser,
		kongplete.WithPredictor("secret", cli.SecretPredictor()),
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		var cliErr *output.CLIError
		if errors.As(err, &cliErr) {
			os.Exit(output.ReportError(output.New("plain"), err))
		}
		parser.FatalIfErrorf(err)
	}

	if err := ctx.Run(); err != nil {
		formatter := output.New("plain")
		if cliInstance.Output == "json" {
			formatter = output.New("json")
		}
		os.Exit(output.ReportError(formatter, err))
	}
}
