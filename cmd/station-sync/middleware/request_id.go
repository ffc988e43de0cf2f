package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/stationprofiles/station-sync/common/clients"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the echo context key for the request id
	RequestIDKey ContextKey = "request_id"
)

// PropagateRequestID copies the request id chosen by echo's RequestID
// middleware into the request context, where the service layer and outbound
// HTTP clients pick it up.
//
// Usage:
//
//	e.Use(middleware.RequestID())
//	e.Use(stationmw.PropagateRequestID())
func PropagateRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Request().Header.Get(echo.HeaderXRequestID)
			}

			if requestID != "" {
				c.Set(string(RequestIDKey), requestID)
				req := c.Request()
				c.SetRequest(req.WithContext(clients.WithRequestID(req.Context(), requestID)))
			}

			return next(c)
		}
	}
}

// GetRequestID retrieves the request id from the echo context
// Returns empty string if not set
func GetRequestID(c echo.Context) string {
	requestID, _ := c.Get(string(RequestIDKey)).(string)
	return requestID
}
