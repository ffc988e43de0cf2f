package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stationprofiles/station-sync/common/bootstrap"
	"github.com/stationprofiles/station-sync/common/metrics"
	"github.com/stationprofiles/station-sync/common/ratelimit"
)

// HealthHandler reports liveness and the state of optional backing services
type HealthHandler struct {
	components *bootstrap.Components
	limiter    *ratelimit.RateLimiter // nil when mutations are not rate limited
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(components *bootstrap.Components, limiter *ratelimit.RateLimiter) *HealthHandler {
	return &HealthHandler{
		components: components,
		limiter:    limiter,
	}
}

// Health checks the service
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.components.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "degraded",
			"service": h.components.Config.Service.Name,
			"error":   err.Error(),
		})
	}

	body := map[string]interface{}{
		"status":  "ok",
		"service": h.components.Config.Service.Name,
		"backend": h.components.Config.Store.Backend,
		"system":  metrics.GetSystemInfo(),
	}

	// Mutation budget left for the caller in the current window
	if h.limiter != nil {
		used, err := h.limiter.GetCurrentCount(ctx, ratelimit.ClientKey(c.RealIP()))
		if err == nil {
			body["rate_limit"] = map[string]int64{
				"limit":          ratelimit.LimitOrDefault(h.components.Config.Redis.RateLimitPerMinute),
				"used":           used,
				"window_seconds": ratelimit.DefaultWindowSeconds,
			}
		}
	}

	return c.JSON(http.StatusOK, body)
}
