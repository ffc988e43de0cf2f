package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// InitResult is the init command output
type InitResult struct {
	Path     string   `json:"path"`
	Created  bool     `json:"created"`
	SHA      string   `json:"sha"`
	Stations []string `json:"stations"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the station index if missing, then resync it",
		Long: `Create the station index in a fresh repository.

Normal mutations never create the index; they fail with missing_manifest
until init has been run once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd)

			c, shutdown, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer shutdown()

			result, created, err := c.Manifests.Init(cmd.Context())
			if err != nil {
				return p.failure(err)
			}

			out := &InitResult{
				Path:     c.Manifests.Path(),
				Created:  created,
				SHA:      result.Hash,
				Stations: result.Stations,
			}
			return p.result(out, func(w io.Writer) {
				if created {
					fmt.Fprintf(w, "created %s\n", out.Path)
				}
				fmt.Fprintf(w, "%s lists %d stations (sha %s)\n", out.Path, len(out.Stations), out.SHA)
			})
		},
	}
}
