package cli

import (
	"errors"
	"net/http"
	"net/url"

	kerrors "github.com/semmy-space/keyver/internal/errors"
	"github.com/semmy-space/keyver/internal/github"
	"github.com/semmy-space/keyver/internal/output"
)

// toCLIError maps engine and remote errors onto exit codes.
// Errors that already carry an exit code pass through unchanged.
func toCLIError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unauthorized():
			return output.NewCLIError(output.ExitAuth, err.Error()).WithHint("Run: keyver auth login")
		case apiErr.StatusCode == http.StatusNotFound:
			return output.NewCLIError(output.ExitNotFound, err.Error())
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return output.NewCLIError(output.ExitRateLimit, err.Error())
		}
		return output.NewCLIError(output.ExitAPIError, err.Error())
	}

	switch {
	case errors.Is(err, kerrors.ErrValidation):
		return output.NewCLIError(output.ExitUsage, err.Error())
	case errors.Is(err, kerrors.ErrPersistence):
		return output.NewCLIError(output.ExitConfigError, err.Error()).
			WithHint("Run: keyver init, or pass --env-file")
	case errors.Is(err, kerrors.ErrSecretNotFound):
		return output.NewCLIError(output.ExitNotFound, err.Error())
	case errors.Is(err, kerrors.ErrRemoteAuth), errors.Is(err, kerrors.ErrNoRemote):
		return output.NewCLIError(output.ExitAuth, err.Error()).WithHint("Run: keyver auth login")
	case errors.Is(err, kerrors.ErrRemoteTransport):
		return output.NewCLIError(output.ExitAPIError, err.Error())
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return output.NewCLIError(output.ExitTimeout, err.Error())
		}
		return output.NewCLIError(output.ExitNetworkError, err.Error())
	}
	return output.NewCLIError(output.ExitGeneral, err.Error())
}
