package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// NewBackfillNamesCommand creates the backfill-names command.
func NewBackfillNamesCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill-names",
		Short: "Prefix station names with their call letters",
		Long: `Rewrite every station whose stationName lacks its call letters as
"CALL - Name", then resync the index once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd)

			c, shutdown, err := setup(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer shutdown()

			result, err := c.Backfill.Run(cmd.Context(), dryRun)
			if err != nil && result == nil {
				return p.failure(err)
			}

			printErr := p.result(result, func(w io.Writer) {
				verb := "updated"
				if result.DryRun {
					verb = "would update"
				}
				fmt.Fprintf(w, "scanned %d stations, %s %d, skipped %d\n", result.Scanned, verb, len(result.Updated), result.Skipped)
				for _, id := range result.Updated {
					fmt.Fprintf(w, "  %s\n", id)
				}

				failed := make([]string, 0, len(result.Failed))
				for id := range result.Failed {
					failed = append(failed, id)
				}
				sort.Strings(failed)
				for _, id := range failed {
					fmt.Fprintf(w, "  failed %s: %s\n", id, result.Failed[id])
				}
			})
			if err != nil {
				return WrapExitError(ExitFailure, "backfill incomplete", err)
			}
			if printErr != nil {
				return printErr
			}
			if len(result.Failed) > 0 {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d stations failed", len(result.Failed))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")

	return cmd
}
