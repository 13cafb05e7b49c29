// Package errors provides the sentinel errors shared by keyver's packages.
//
// Callers match them with errors.Is rather than comparing strings. Wrap a
// sentinel to add context:
//
//	return fmt.Errorf("read %s: %w", path, kerrors.ErrPersistence)
//
// The CLI layer maps each sentinel to an exit code (see internal/cli).
package errors
