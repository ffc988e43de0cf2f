package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stationprofiles/station-sync/cmd/station-sync/container"
	"github.com/stationprofiles/station-sync/cmd/station-sync/repository"
	"github.com/stationprofiles/station-sync/common/bootstrap"
	"github.com/stationprofiles/station-sync/common/config"
	"github.com/stationprofiles/station-sync/common/db"
	"github.com/stationprofiles/station-sync/common/logger"
)

// ServiceName identifies the service in logs and health output
const ServiceName = "station-sync"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	Format  string // "json" | "text"

	// extra bootstrap options, used by tests to inject a store
	bootstrapOpts []bootstrap.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the station-sync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   ServiceName,
		Short: "Station profile sync service",
		Long: `Keeps radio station profiles and their index in a GitHub repository
consistent, and triggers a site rebuild after every change.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return loadEnvFile(opts.EnvFile, cmd.Flags().Changed("env-file"))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading configuration")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewResyncCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewBackfillNamesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadEnvFile loads path without overriding variables already set.
// A missing default file is not an error; a missing explicit one is.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return WrapExitError(ExitCommandError, "failed to load env file", err)
	}
	return nil
}

// setup bootstraps components and the service container for one command.
// CLI commands log to stderr so stdout stays parseable.
func setup(ctx context.Context, opts *RootOptions, extra ...bootstrap.Option) (*container.Container, func(), error) {
	cfg, err := config.Load(ServiceName)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	bootOpts := []bootstrap.Option{
		bootstrap.WithCustomConfig(cfg),
		bootstrap.WithCustomLogger(logger.NewWithWriter(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogFormat)),
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.NewChangeRepository(database).EnsureSchema(ctx)
		}),
	}
	bootOpts = append(bootOpts, extra...)
	bootOpts = append(bootOpts, opts.bootstrapOpts...)

	components, err := bootstrap.Setup(ctx, ServiceName, bootOpts...)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to bootstrap", err)
	}

	c, err := container.NewContainer(ctx, components)
	if err != nil {
		components.Shutdown(ctx)
		return nil, nil, WrapExitError(ExitCommandError, "failed to initialize services", err)
	}

	return c, func() { components.Shutdown(context.Background()) }, nil
}
