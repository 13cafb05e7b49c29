package cli

import (
	"context"
	"time"

	"github.com/semmy-space/keyver/internal/logging"
	"github.com/semmy-space/keyver/internal/output"
)

// RemoteListCmd lists secret names stored in the repository.
// GitHub never returns secret values.
type RemoteListCmd struct{}

func (cmd *RemoteListCmd) Run(sp *ServiceProvider, fp *FormatterProvider) error {
	remote, err := sp.Remote()
	if err != nil {
		return err
	}

	secrets, err := remote.ListSecrets(context.Background())
	if err != nil {
		return toCLIError(err)
	}

	type row struct {
		Name    string `json:"name"`
		Created string `json:"created_at"`
		Updated string `json:"updated_at"`
	}
	rows := make([]row, 0, len(secrets))
	for _, s := range secrets {
		rows = append(rows, row{
			Name:    s.Name,
			Created: s.CreatedAt.UTC().Format(time.RFC3339),
			Updated: s.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return fp.Formatter.PrintList(rows, []output.Column{
		{Name: "Name", Key: "Name"},
		{Name: "Created", Key: "Created"},
		{Name: "Updated", Key: "Updated"},
	})
}

// RemoteDeleteCmd deletes a repository secret
type RemoteDeleteCmd struct {
	Name string `arg:"" help:"Repository secret name"`
}

func (cmd *RemoteDeleteCmd) Run(sp *ServiceProvider, globals *Globals, log logging.Logger) error {
	remote, err := sp.Remote()
	if err != nil {
		return err
	}

	if globals.DryRun {
		log.Successf("[dry-run] Would delete secret %s from %s", cmd.Name, remote.Repo())
		return nil
	}

	if err := remote.DeleteSecret(context.Background(), cmd.Name); err != nil {
		return toCLIError(err)
	}
	log.Successf("Secret %s deleted from %s", cmd.Name, remote.Repo())
	return nil
}
