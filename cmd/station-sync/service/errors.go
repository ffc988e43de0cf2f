package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/cmd/station-sync/repository"
	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/validation"
)

// Error codes reported in the response envelope
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeMissingManifest   = "missing_manifest"
	CodeRemoteUnavailable = "remote_unavailable"
	CodeRateLimited       = "rate_limited"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeInternal          = "internal_error"
)

// ErrHistoryDisabled is returned by history lookups when no change store is configured
var ErrHistoryDisabled = errors.New("change history is not enabled")

// ValidationError rejects a request before anything is written
type ValidationError struct {
	Message    string
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

// Is lets errors.Is match any *ValidationError
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// Classify maps an error to its envelope code and HTTP status
func Classify(err error) (string, int) {
	var verr *ValidationError
	switch {
	case err == nil:
		return "", http.StatusOK
	case errors.As(err, &verr), errors.Is(err, repository.ErrInvalidID):
		return CodeValidation, http.StatusBadRequest
	case errors.Is(err, repository.ErrMissingManifest):
		return CodeMissingManifest, http.StatusInternalServerError
	case errors.Is(err, blobstore.ErrNotFound), errors.Is(err, ErrHistoryDisabled):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, blobstore.ErrConflict):
		return CodeConflict, http.StatusConflict
	case errors.Is(err, blobstore.ErrRemoteUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeRemoteUnavailable, http.StatusBadGateway
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}

// ErrorResponse builds the failure envelope and status for err
func ErrorResponse(err error) (int, *models.Response) {
	code, status := Classify(err)
	return status, models.ErrorResponse(code, err.Error())
}
