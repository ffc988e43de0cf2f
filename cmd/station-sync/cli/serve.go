package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/stationprofiles/station-sync/cmd/station-sync/container"
	"github.com/stationprofiles/station-sync/cmd/station-sync/handlers"
	stationmw "github.com/stationprofiles/station-sync/cmd/station-sync/middleware"
	"github.com/stationprofiles/station-sync/cmd/station-sync/routes"
	"github.com/stationprofiles/station-sync/common/server"
)

// bodyLimit leaves room for logos submitted inline as data URIs
const bodyLimit = "10M"

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP sync service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, shutdown, err := setup(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer shutdown()

			if c.ChangeHub != nil {
				feedCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				startChangeFeed(feedCtx, c)
			}

			e := NewEcho(c)
			cfg := c.Components.Config
			return server.New(ServiceName, cfg.Service.Port, e, c.Components.Logger).Start(ctx)
		},
	}
}

// startChangeFeed runs the WebSocket hub and its Redis subscriber until ctx ends
func startChangeFeed(ctx context.Context, c *container.Container) {
	log := c.Components.Logger
	go c.ChangeHub.Run(ctx)
	go func() {
		if err := c.ChangeSubscriber.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("change subscriber failed", "error", err)
		}
	}()
}

// NewEcho builds the HTTP router with middleware and all routes
func NewEcho(c *container.Container) *echo.Echo {
	e := setupEcho(c)
	setupMiddleware(e)
	registerRoutes(e, c)
	return e
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho(c *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(c.Components.Logger)
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(stationmw.PropagateRequestID())
	e.Use(stationmw.StationCORS())
	e.Use(middleware.BodyLimit(bodyLimit))
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, c *container.Container) {
	routes.RegisterHealthRoutes(e, c)
	routes.RegisterStationRoutes(e, c)
}
