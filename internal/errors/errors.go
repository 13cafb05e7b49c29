package errors

import "errors"

// Local errors are returned immediately to the caller.
var (
	// ErrPersistence indicates the backing env file is missing or unreadable.
	ErrPersistence = errors.New("backing file is missing or unreadable")

	// ErrValidation indicates a secret name or value was rejected.
	ErrValidation = errors.New("invalid secret")

	// ErrSecretNotFound indicates no history exists for a logical name.
	ErrSecretNotFound = errors.New("secret not found")
)

// Remote errors come from the sync capability.
var (
	// ErrRemoteAuth indicates the remote rejected the credentials. Exports are
	// skipped rather than failed when this is the case.
	ErrRemoteAuth = errors.New("remote credentials are invalid")

	// ErrRemoteTransport indicates the remote answered with a non-success status.
	ErrRemoteTransport = errors.New("remote request failed")

	// ErrNoRemote indicates no remote has been attached to the session.
	ErrNoRemote = errors.New("no remote attached")
)
