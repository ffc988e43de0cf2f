package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/cmd/station-sync/repository"
	"github.com/stationprofiles/station-sync/common/clients"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stationprofiles/station-sync/common/telemetry"
	"github.com/stationprofiles/station-sync/common/validation"
)

// Dispatcher validates station actions and routes them to the repository.
// It holds no per-request state.
type Dispatcher struct {
	stations  *repository.StationRepository
	policy    *validation.StationPolicy
	rebuild   *RebuildTrigger
	notifier  Notifier
	audit     *AuditService
	telemetry *telemetry.Telemetry
	log       *logger.Logger
}

// DispatcherDeps are the collaborators of a Dispatcher. Only Stations and
// Policy are required.
type DispatcherDeps struct {
	Stations  *repository.StationRepository
	Policy    *validation.StationPolicy
	Rebuild   *RebuildTrigger
	Notifier  Notifier
	Audit     *AuditService
	Telemetry *telemetry.Telemetry
	Logger    *logger.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		stations:  deps.Stations,
		policy:    deps.Policy,
		rebuild:   deps.Rebuild,
		notifier:  deps.Notifier,
		audit:     deps.Audit,
		telemetry: deps.Telemetry,
		log:       deps.Logger,
	}
	if d.notifier == nil {
		d.notifier = NoOpNotifier{}
	}
	if d.log == nil {
		d.log = logger.Discard()
	}
	return d
}

// Validate checks a request without touching the store and returns the
// normalized station id. stationData.id is normalized in place.
func (d *Dispatcher) Validate(req *models.ActionRequest) (string, error) {
	if req == nil {
		return "", invalid("Missing request body")
	}

	id := models.NormalizeID(req.StationID)
	if req.Action == "" || id == "" {
		return "", invalid("Missing required fields: action, stationId")
	}
	if !req.Action.Valid() {
		return "", invalid(fmt.Sprintf("Invalid action: %s", req.Action))
	}
	if req.Action != models.ActionDelete && req.StationData == nil {
		return "", invalid("Missing stationData")
	}

	var station map[string]interface{}
	if req.StationData != nil {
		if req.StationData.ID != "" {
			req.StationData.ID = models.NormalizeID(req.StationData.ID)
		}
		var err error
		station, err = toMap(req.StationData)
		if err != nil {
			return "", invalid(fmt.Sprintf("Invalid stationData: %v", err))
		}
	}

	if err := d.policy.Check(string(req.Action), id, station); err != nil {
		var verr *validation.ViolationError
		if errors.As(err, &verr) {
			return "", &ValidationError{Message: "Station rejected", Violations: verr.Violations}
		}
		return "", err
	}

	return id, nil
}

// Dispatch runs one action to completion. On success the manifest has been
// resynced; rebuild, notification and audit have been attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.ActionRequest) (*models.Response, error) {
	start := time.Now()
	defer d.telemetry.RecordDuration("station.dispatch", start)

	requestID, _ := clients.GetRequestID(ctx)
	log := d.log.WithRequestID(requestID)

	id, err := d.Validate(req)
	if err != nil {
		log.Warn("station request rejected", "error", err)
		return nil, err
	}
	log = log.WithStationID(id)

	var (
		resp   *models.Response
		change *models.StationChange
		prev   *models.Station
		next   *models.Station
	)

	switch req.Action {
	case models.ActionCreate, models.ActionUpdate:
		result, err := d.stations.CreateOrUpdate(ctx, id, req.StationData)
		if err != nil {
			log.Error("station save failed", "action", req.Action, "error", err)
			return nil, err
		}

		action := models.ActionUpdate
		if result.Created {
			action = models.ActionCreate
		}
		if action != req.Action {
			log.Info("store presence overrides requested action", "requested", req.Action, "performed", action)
			d.telemetry.RecordEvent("station.action_overridden", map[string]any{
				"station_id": id,
				"requested":  string(req.Action),
				"performed":  string(action),
			})
		}

		created := result.Created
		resp = &models.Response{
			Success:   true,
			Message:   "Station saved",
			Action:    action,
			StationID: id,
			Created:   &created,
			SHA:       result.Hash,
			Manifest:  manifestSummary(result.Manifest),
		}
		change = &models.StationChange{Action: action, BlobSHA: result.Hash, ManifestSHA: result.Manifest.Hash}
		prev, next = result.Previous, req.StationData

	case models.ActionDelete:
		result, err := d.stations.Delete(ctx, id)
		if err != nil {
			log.Error("station delete failed", "error", err)
			return nil, err
		}

		resp = &models.Response{
			Success:   true,
			Message:   "Station deleted",
			Action:    models.ActionDelete,
			StationID: id,
			Manifest:  manifestSummary(result.Manifest),
		}
		change = &models.StationChange{Action: models.ActionDelete, ManifestSHA: result.Manifest.Hash}
		prev = result.Previous
	}

	resp.RequestID = requestID
	resp.Rebuild = d.rebuild.Trigger(ctx)

	d.notifier.Notify(ctx, &ChangeEvent{
		Action:      resp.Action,
		StationID:   id,
		SHA:         resp.SHA,
		Created:     resp.Created != nil && *resp.Created,
		ManifestSHA: change.ManifestSHA,
		RequestID:   requestID,
		At:          time.Now().UTC(),
	})

	change.StationID = id
	change.RequestID = requestID
	d.audit.Record(ctx, change, prev, next)

	log.Info("station request completed", "action", resp.Action, "station_name", stationLabel(id, prev, next), "sha", resp.SHA)
	return resp, nil
}

// Resync rebuilds the manifest on demand
func (d *Dispatcher) Resync(ctx context.Context) (*models.Response, error) {
	defer d.telemetry.RecordDuration("station.resync", time.Now())

	result, err := d.stations.Resync(ctx)
	if err != nil {
		return nil, err
	}

	resp := &models.Response{
		Success:  true,
		Message:  "Station index synchronized",
		Manifest: manifestSummary(result),
	}
	if result.Changed {
		resp.Rebuild = d.rebuild.Trigger(ctx)
	}
	resp.RequestID, _ = clients.GetRequestID(ctx)

	return resp, nil
}

// History returns the audit trail for a station
func (d *Dispatcher) History(ctx context.Context, stationID string, limit int) ([]*models.StationChange, error) {
	id := models.NormalizeID(stationID)
	if id == "" {
		return nil, invalid("Missing stationId")
	}
	return d.audit.History(ctx, id, limit)
}

// stationLabel names the station for logs, preferring the newest record
func stationLabel(id string, prev, next *models.Station) string {
	for _, s := range []*models.Station{next, prev} {
		if s == nil {
			continue
		}
		if name := s.DisplayName(); name != "" {
			return name
		}
	}
	return id
}

func manifestSummary(m *repository.ManifestResult) *models.ManifestSummary {
	if m == nil {
		return nil
	}
	return &models.ManifestSummary{SHA: m.Hash, Stations: m.Stations}
}

func toMap(s *models.Station) (map[string]interface{}, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
