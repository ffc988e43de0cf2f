package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/cmd/station-sync/service"
	"github.com/stationprofiles/station-sync/common/logger"
)

// ErrorHandler renders echo's routing and middleware errors in the
// station response envelope.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		code := service.CodeInternal
		message := http.StatusText(status)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = http.StatusText(status)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		}

		switch status {
		case http.StatusMethodNotAllowed:
			code = service.CodeMethodNotAllowed
			message = "Method not allowed"
		case http.StatusNotFound:
			code = service.CodeNotFound
		case http.StatusTooManyRequests:
			code = service.CodeRateLimited
		case http.StatusRequestEntityTooLarge, http.StatusBadRequest:
			code = service.CodeValidation
		default:
			if status < http.StatusInternalServerError {
				code = service.CodeValidation
			} else {
				log.Error("unhandled error", "path", c.Path(), "error", err)
			}
		}

		resp := models.ErrorResponse(code, message)
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			log.Warn("failed to write error response", "error", err)
		}
	}
}
