package cli

import (
	"github.com/spf13/cobra"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <station-id>",
		Short: "Print a stored station record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd)

			c, shutdown, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer shutdown()

			station, _, err := c.StationRepo.Read(cmd.Context(), models.NormalizeID(args[0]))
			if err != nil {
				return p.failure(err)
			}

			// The stored form is printed in either format
			data, err := models.EncodeStation(station)
			if err != nil {
				return p.failure(err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
