package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewResyncCommand creates the resync command.
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Rewrite the station index to match the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd)

			c, shutdown, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer shutdown()

			resp, err := c.Dispatcher.Resync(cmd.Context())
			if err != nil {
				return p.failure(err)
			}

			return p.result(resp, func(w io.Writer) {
				fmt.Fprintf(w, "index lists %d stations (sha %s)\n", len(resp.Manifest.Stations), resp.Manifest.SHA)
				for _, id := range resp.Manifest.Stations {
					fmt.Fprintf(w, "  %s\n", id)
				}
			})
		},
	}
}
