package service

import (
	"context"
	"encoding/json"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/logger"
)

// DefaultHistoryLimit caps history responses when no limit is given
const DefaultHistoryLimit = 50

// ChangeStore persists change history
type ChangeStore interface {
	Create(ctx context.Context, change *models.StationChange) error
	ListByStation(ctx context.Context, stationID string, limit int) ([]*models.StationChange, error)
}

// AuditService records one change row per successful mutation
type AuditService struct {
	store ChangeStore
	log   *logger.Logger
	now   func() time.Time
}

// NewAuditService creates an audit service. A nil store disables it.
func NewAuditService(store ChangeStore, log *logger.Logger) *AuditService {
	return &AuditService{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Enabled reports whether changes are being stored
func (a *AuditService) Enabled() bool {
	return a != nil && a.store != nil
}

// Record stores a change row with a merge patch from prev to next.
// Errors are logged only.
func (a *AuditService) Record(ctx context.Context, change *models.StationChange, prev, next *models.Station) {
	if !a.Enabled() {
		return
	}

	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = a.now().UTC()
	}

	diff, err := Diff(prev, next)
	if err != nil {
		a.log.Warn("failed to diff station", "station_id", change.StationID, "error", err)
	} else {
		change.Changes = diff
	}

	if err := a.store.Create(ctx, change); err != nil {
		a.log.Warn("failed to record station change", "station_id", change.StationID, "error", err)
	}
}

// History returns the newest changes for a station first
func (a *AuditService) History(ctx context.Context, stationID string, limit int) ([]*models.StationChange, error) {
	if !a.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = DefaultHistoryLimit
	}
	return a.store.ListByStation(ctx, stationID, limit)
}

// Diff returns a JSON merge patch turning prev into next.
// A nil record is treated as an empty object.
func Diff(prev, next *models.Station) (json.RawMessage, error) {
	original, err := stationJSON(prev)
	if err != nil {
		return nil, err
	}
	modified, err := stationJSON(next)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(patch), nil
}

func stationJSON(s *models.Station) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}
