package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/stationprofiles/station-sync/cmd/station-sync/middleware"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/cmd/station-sync/service"
	"github.com/stationprofiles/station-sync/common/logger"
)

// StationHandler handles station mutation requests from the admin UI and editor
type StationHandler struct {
	dispatcher *service.Dispatcher
	log        *logger.Logger
}

// NewStationHandler creates a new station handler
func NewStationHandler(dispatcher *service.Dispatcher, log *logger.Logger) *StationHandler {
	return &StationHandler{
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleAction creates, updates or deletes one station
// POST /.netlify/functions/update-station
// POST /api/v1/stations/actions
func (h *StationHandler) HandleAction(c echo.Context) error {
	var req models.ActionRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return h.fail(c, &service.ValidationError{Message: "Invalid JSON body: " + err.Error()})
	}

	resp, err := h.dispatcher.Dispatch(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Resync rebuilds the station index from the collection
// POST /api/v1/stations/resync
func (h *StationHandler) Resync(c echo.Context) error {
	resp, err := h.dispatcher.Resync(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetHistory lists recorded changes for a station, newest first
// GET /api/v1/stations/:id/history?limit=20
func (h *StationHandler) GetHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return h.fail(c, &service.ValidationError{Message: "limit must be a positive integer"})
		}
		limit = n
	}

	changes, err := h.dispatcher.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"stationId": models.NormalizeID(c.Param("id")),
		"changes":   changes,
	})
}

// Preflight answers CORS preflight requests
// OPTIONS /.netlify/functions/update-station
func (h *StationHandler) Preflight(c echo.Context) error {
	header := c.Response().Header()
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	header.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)
	header.Set(echo.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	return c.NoContent(http.StatusOK)
}

func (h *StationHandler) fail(c echo.Context, err error) error {
	status, resp := service.ErrorResponse(err)
	resp.RequestID = middleware.GetRequestID(c)

	if status >= http.StatusInternalServerError {
		h.log.Error("station request failed", "request_id", resp.RequestID, "error", err)
	}

	return c.JSON(status, resp)
}
