package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/logger"
)

// ErrInvalidID is returned for ids that cannot name a blob
var ErrInvalidID = errors.New("invalid station id")

// WriteResult describes a successful create or update
type WriteResult struct {
	Hash     string
	Created  bool
	Previous *models.Station // nil on create or when the old record was unreadable
	Manifest *ManifestResult
}

// DeleteResult describes a successful delete
type DeleteResult struct {
	Previous *models.Station
	Manifest *ManifestResult
}

// StationRepository stores one JSON blob per station and keeps the manifest
// in step after every mutation.
type StationRepository struct {
	store    blobstore.Store
	dir      string
	manifest *ManifestSynchronizer
	log      *logger.Logger
}

// NewStationRepository creates a repository over dir
func NewStationRepository(store blobstore.Store, dir string, manifest *ManifestSynchronizer, log *logger.Logger) *StationRepository {
	return &StationRepository{
		store:    store,
		dir:      dir,
		manifest: manifest,
		log:      log,
	}
}

// Path returns the blob path for id
func (r *StationRepository) Path(id string) string {
	return blobstore.Join(r.dir, models.StationFileName(id))
}

// Read loads a station and the hash it was read at
func (r *StationRepository) Read(ctx context.Context, id string) (*models.Station, string, error) {
	if err := checkID(id); err != nil {
		return nil, "", err
	}

	blob, err := r.store.Get(ctx, r.Path(id))
	if err != nil {
		return nil, "", fmt.Errorf("read station %s: %w", id, err)
	}

	station, err := models.DecodeStation(blob.Content)
	if err != nil {
		return nil, blob.Hash, fmt.Errorf("decode station %s: %w", id, err)
	}

	return station, blob.Hash, nil
}

// CreateOrUpdate writes the record and then resyncs the manifest.
// Whether the blob exists decides between create and update.
// When the record is written but the resync fails, the WriteResult is
// returned together with the error.
func (r *StationRepository) CreateOrUpdate(ctx context.Context, id string, station *models.Station) (*WriteResult, error) {
	result, err := r.Write(ctx, id, station)
	if err != nil {
		return nil, err
	}

	result.Manifest, err = r.manifest.Resync(ctx)
	if err != nil {
		return result, fmt.Errorf("station %s written but manifest sync failed: %w", id, err)
	}

	return result, nil
}

// Write stores one record without touching the manifest
func (r *StationRepository) Write(ctx context.Context, id string, station *models.Station) (*WriteResult, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if station == nil {
		return nil, fmt.Errorf("%w: no record for %s", ErrInvalidID, id)
	}

	record := *station
	if record.ID == "" {
		record.ID = id
	}

	content, err := models.EncodeStation(&record)
	if err != nil {
		return nil, fmt.Errorf("encode station %s: %w", id, err)
	}

	path := r.Path(id)
	result := &WriteResult{}

	// The hash is fetched right before the write; it is never cached
	current, err := r.store.Get(ctx, path)
	switch {
	case err == nil:
		result.Previous = r.decodePrevious(id, current.Content)
	case blobstore.IsNotFound(err):
		result.Created = true
	default:
		return nil, fmt.Errorf("read station %s: %w", id, err)
	}

	var expectedHash, message string
	if result.Created {
		message = "Create station: " + id
	} else {
		expectedHash = current.Hash
		message = "Update station: " + id
	}

	result.Hash, err = r.store.Put(ctx, path, content, expectedHash, message)
	if err != nil {
		return nil, fmt.Errorf("write station %s: %w", id, err)
	}

	r.log.Info("station written",
		"station_id", id,
		"created", result.Created,
		"sha", result.Hash,
	)

	return result, nil
}

// Delete removes the record and then resyncs the manifest
func (r *StationRepository) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	path := r.Path(id)

	current, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read station %s: %w", id, err)
	}

	if err := r.store.Delete(ctx, path, current.Hash, "Delete station: "+id); err != nil {
		return nil, fmt.Errorf("delete station %s: %w", id, err)
	}

	r.log.Info("station deleted", "station_id", id)

	result := &DeleteResult{Previous: r.decodePrevious(id, current.Content)}
	result.Manifest, err = r.manifest.Resync(ctx)
	if err != nil {
		return result, fmt.Errorf("station %s deleted but manifest sync failed: %w", id, err)
	}

	return result, nil
}

// List returns every station id in the collection
func (r *StationRepository) List(ctx context.Context) ([]string, error) {
	return r.manifest.ListIDs(ctx)
}

// Resync rebuilds the manifest from the collection
func (r *StationRepository) Resync(ctx context.Context) (*ManifestResult, error) {
	return r.manifest.Resync(ctx)
}

func (r *StationRepository) decodePrevious(id string, content []byte) *models.Station {
	prev, err := models.DecodeStation(content)
	if err != nil {
		r.log.Warn("existing station is not valid JSON", "station_id", id, "error", err)
		return nil
	}
	return prev
}

func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
