package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	File string
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply one station action request",
		Long: `Apply one create, update or delete request, exactly as the HTTP
endpoint would. The request body is read from --file, or stdin when
--file is "-".

Example request:
  {"action": "update", "stationId": "kexp", "stationData": {"name": "KEXP"}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "-", "request file, or - for stdin")

	return cmd
}

func runApply(cmd *cobra.Command, rootOpts *RootOptions, opts *ApplyOptions) error {
	req, err := readActionRequest(cmd.InOrStdin(), opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read request", err)
	}

	p := newPrinter(rootOpts, cmd)

	c, shutdown, err := setup(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer shutdown()

	resp, err := c.Dispatcher.Dispatch(cmd.Context(), req)
	if err != nil {
		return p.failure(err)
	}

	return p.result(resp, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s %s\n", resp.Message, resp.Action, resp.StationID)
		if resp.SHA != "" {
			fmt.Fprintf(w, "  blob sha:     %s\n", resp.SHA)
		}
		if resp.Manifest != nil {
			fmt.Fprintf(w, "  manifest sha: %s (%d stations)\n", resp.Manifest.SHA, len(resp.Manifest.Stations))
		}
		if resp.Rebuild != nil {
			switch {
			case resp.Rebuild.Error != "":
				fmt.Fprintf(w, "  rebuild:      failed (%s)\n", resp.Rebuild.Error)
			case resp.Rebuild.Triggered:
				fmt.Fprintln(w, "  rebuild:      triggered")
			default:
				fmt.Fprintln(w, "  rebuild:      skipped")
			}
		}
	})
}

func readActionRequest(stdin io.Reader, path string) (*models.ActionRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	req := &models.ActionRequest{}
	if err := json.NewDecoder(r).Decode(req); err != nil {
		return nil, fmt.Errorf("invalid JSON request: %w", err)
	}
	return req, nil
}
