package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StationChange is one audited mutation
// Maps to: station_change table
type StationChange struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id,omitempty"`
	Action    Action    `db:"action" json:"action"`
	StationID string    `db:"station_id" json:"station_id"`

	// Blob sha after the write (empty for deletes)
	BlobSHA string `db:"blob_sha" json:"blob_sha,omitempty"`

	// Manifest sha after the resync
	ManifestSHA string `db:"manifest_sha" json:"manifest_sha,omitempty"`

	// JSON merge patch from the previous record to the new one
	Changes json.RawMessage `db:"changes" json:"changes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
