package keychain

import (
	"context"
	"sort"

	kerrors "github.com/semmy-space/keyver/internal/errors"
	"github.com/semmy-space/keyver/internal/versioning"
)

// ExportStatus tells whether an export reached the remote.
type ExportStatus int

const (
	// Skipped means the credential gate was closed; nothing was sent.
	Skipped ExportStatus = iota
	// Exported means every selected secret was handed to the remote (or
	// would have been, in a dry run).
	Exported
)

func (s ExportStatus) String() string {
	if s == Exported {
		return "exported"
	}
	return "skipped"
}

// ExportOptions tune an export run.
type ExportOptions struct {
	// DryRun lists the secrets that would be pushed without calling the remote.
	DryRun bool
}

// ExportResult reports the outcome of an export.
type ExportResult struct {
	Status ExportStatus
	// Reason is set when Status is Skipped (ErrNoRemote or ErrRemoteAuth).
	Reason error
	// Names are the remote secret names pushed, in order.
	Names   []string
	Omitted []string
}

// ExportKeychain pushes the current value of every non-omitted logical name.
// The first remote failure aborts the run; secrets already pushed stay pushed.
func (s *Session) ExportKeychain(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	items := make(map[string]string, len(s.keychain))
	for name, v := range s.keychain {
		items[name] = v
	}
	return s.export(ctx, items, opts)
}

// ExportHistory pushes every stored version under its version key, skipping
// versions whose logical name is omitted. Remote names are version keys, so
// prefer ExportKeychain when stable names matter.
func (s *Session) ExportHistory(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	return s.export(ctx, s.store.Snapshot(), opts)
}

func (s *Session) export(ctx context.Context, items map[string]string, opts ExportOptions) (ExportResult, error) {
	if s.remote == nil {
		s.log.Warnf("No remote attached; skipping export")
		return ExportResult{Status: Skipped, Reason: kerrors.ErrNoRemote}, nil
	}
	if !s.remoteValid {
		s.log.Warnf("Remote credentials are invalid; skipping export")
		return ExportResult{Status: Skipped, Reason: kerrors.ErrRemoteAuth}, nil
	}

	names := make([]string, 0, len(items))
	for n := range items {
		names = append(names, n)
	}
	sort.Strings(names)

	res := ExportResult{Status: Exported}
	for _, name := range names {
		if s.omit.Contains(versioning.LogicalName(name)) {
			res.Omitted = append(res.Omitted, name)
			s.log.Debugf("Omitting %s", name)
			continue
		}
		if opts.DryRun {
			res.Names = append(res.Names, name)
			s.log.Successf("Would export secret %s", name)
			continue
		}
		if err := s.remote.UpsertSecret(ctx, name, items[name]); err != nil {
			return res, err
		}
		res.Names = append(res.Names, name)
		s.log.Successf("Secret %s exported", name)
	}
	return res, nil
}
