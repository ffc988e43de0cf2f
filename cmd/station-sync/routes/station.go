package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/stationprofiles/station-sync/cmd/station-sync/container"
	"github.com/stationprofiles/station-sync/cmd/station-sync/handlers"
	"github.com/stationprofiles/station-sync/common/middleware"
)

// NetlifyFunctionPath is the endpoint the admin UI and editor already call
const NetlifyFunctionPath = "/.netlify/functions/update-station"

// RegisterStationRoutes registers all station routes
func RegisterStationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewStationHandler(c.Dispatcher, c.Components.Logger)

	var mutations []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		mutations = append(mutations, middleware.ClientRateLimitMiddleware(
			c.RateLimiter,
			c.Components.Config.Redis.RateLimitPerMinute,
		))
	}

	// Drop-in replacement for the serverless function
	e.POST(NetlifyFunctionPath, h.HandleAction, mutations...)
	e.OPTIONS(NetlifyFunctionPath, h.Preflight)

	stations := e.Group("/api/v1/stations")
	{
		stations.POST("/actions", h.HandleAction, mutations...) // POST /api/v1/stations/actions
		stations.POST("/resync", h.Resync, mutations...)        // POST /api/v1/stations/resync
		stations.GET("/:id/history", h.GetHistory)              // GET /api/v1/stations/krvb/history
		stations.OPTIONS("/actions", h.Preflight)

		if c.ChangeHub != nil {
			stations.GET("/changes", c.ChangeHub.HandleWebSocket) // GET /api/v1/stations/changes?station=krvb
		}
	}
}

// RegisterHealthRoutes registers the liveness endpoint
func RegisterHealthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewHealthHandler(c.Components, c.RateLimiter)
	e.GET("/health", h.Health)
}
