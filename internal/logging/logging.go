// Package logging prints leveled, colored messages for keyver commands.
//
// Verbosity is driven by the global --verbose and --debug flags:
//
//	log := logging.New(verbose, debug)
//	log.Infof("loaded %d versions", n)   // --verbose or --debug
//	log.Debugf("key %s", key)             // --debug only
//	log.Successf("Secret %s created", n)  // always
//
// Set NO_COLOR to drop ANSI colors.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled messages for one command.
type Logger struct {
	Verbose bool
	Debug   bool

	// Out receives info, debug and success lines. Err receives warnings and errors.
	Out io.Writer
	Err io.Writer
}

// New returns a logger writing to stdout and stderr.
func New(verbose, debug bool) Logger {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
	return Logger{
		Verbose: verbose || debug,
		Debug:   debug,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
}

// Discard returns a logger that prints nothing.
func Discard() Logger {
	return Logger{Out: io.Discard, Err: io.Discard}
}

// Infof prints to Out when verbose.
func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose {
		fmt.Fprintf(l.out(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

// Debugf prints to Out in debug mode only.
func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.out(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

// Successf prints a user-facing confirmation regardless of verbosity.
func (l Logger) Successf(msg string, args ...any) {
	fmt.Fprintf(l.out(), color.GreenString("✓ ")+msg+"\n", args...)
}

// Warnf prints a warning to Err.
func (l Logger) Warnf(msg string, args ...any) {
	fmt.Fprintf(l.err(), color.YellowString("[warn] ")+msg+"\n", args...)
}

// Errorf prints an error to Err.
func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(l.err(), color.RedString("[error] ")+msg+"\n", args...)
}

func (l Logger) out() io.Writer {
	if l.Out == nil {
		return os.Stdout
	}
	return l.Out
}

func (l Logger) err() io.Writer {
	if l.Err == nil {
		return os.Stderr
	}
	return l.Err
}
