package repository

import (
	"context"
	"fmt"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/db"
)

// ChangeSchema creates the change history table
var ChangeSchema = []string{
	`CREATE TABLE IF NOT EXISTS station_change (
		id           UUID PRIMARY KEY,
		request_id   TEXT NOT NULL DEFAULT '',
		action       TEXT NOT NULL,
		station_id   TEXT NOT NULL,
		blob_sha     TEXT NOT NULL DEFAULT '',
		manifest_sha TEXT NOT NULL DEFAULT '',
		changes      JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS station_change_station_created_idx
		ON station_change (station_id, created_at DESC)`,
}

// ChangeRepository handles database operations for the change history
type ChangeRepository struct {
	db *db.DB
}

// NewChangeRepository creates a new change repository
func NewChangeRepository(db *db.DB) *ChangeRepository {
	return &ChangeRepository{db: db}
}

// EnsureSchema creates the table when missing
func (r *ChangeRepository) EnsureSchema(ctx context.Context) error {
	return r.db.Migrate(ctx, ChangeSchema...)
}

// Create inserts a change row
func (r *ChangeRepository) Create(ctx context.Context, change *models.StationChange) error {
	query := `
		INSERT INTO station_change (id, request_id, action, station_id, blob_sha, manifest_sha, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var changes interface{}
	if len(change.Changes) > 0 {
		changes = []byte(change.Changes)
	}

	_, err := r.db.Exec(ctx, query,
		change.ID,
		change.RequestID,
		string(change.Action),
		change.StationID,
		change.BlobSHA,
		change.ManifestSHA,
		changes,
		change.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create station change: %w", err)
	}

	return nil
}

// ListByStation returns the newest changes for a station first
func (r *ChangeRepository) ListByStation(ctx context.Context, stationID string, limit int) ([]*models.StationChange, error) {
	query := `
		SELECT id, request_id, action, station_id, blob_sha, manifest_sha, changes, created_at
		FROM station_change
		WHERE station_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list station changes: %w", err)
	}
	defer rows.Close()

	changes := make([]*models.StationChange, 0)
	for rows.Next() {
		var (
			c      models.StationChange
			action string
			diff   []byte
		)
		if err := rows.Scan(
			&c.ID,
			&c.RequestID,
			&action,
			&c.StationID,
			&c.BlobSHA,
			&c.ManifestSHA,
			&diff,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan station change: %w", err)
		}
		c.Action = models.Action(action)
		c.Changes = diff
		changes = append(changes, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate station changes: %w", err)
	}

	return changes, nil
}
