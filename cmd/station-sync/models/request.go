package models

// Action names a mutation requested by the admin UI
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the recognized actions
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ActionRequest is the inbound envelope
type ActionRequest struct {
	Action      Action   `json:"action"`
	StationID   string   `json:"stationId"`
	StationData *Station `json:"stationData,omitempty"`
}

// Response is the outbound envelope for success and failure
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	Action    Action           `json:"action,omitempty"`
	StationID string           `json:"stationId,omitempty"`
	Created   *bool            `json:"created,omitempty"`
	SHA       string           `json:"sha,omitempty"`
	Manifest  *ManifestSummary `json:"manifest,omitempty"`
	Rebuild   *RebuildResult   `json:"rebuild,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
}

// ManifestSummary reports the manifest state after a resync
type ManifestSummary struct {
	SHA      string   `json:"sha"`
	Stations []string `json:"stations"`
}

// RebuildResult reports the outcome of the best-effort site rebuild
type RebuildResult struct {
	Triggered bool   `json:"triggered"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse builds a failure envelope
func ErrorResponse(code, message string) *Response {
	return &Response{
		Success: false,
		Error:   code,
		Message: message,
	}
}
