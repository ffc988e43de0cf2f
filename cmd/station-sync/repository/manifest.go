package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/logger"
)

// ErrMissingManifest means the collection has no manifest blob yet.
// Resync never creates it; run Init on a fresh repository.
var ErrMissingManifest = errors.New("station manifest missing")

// ManifestCommitMessage is used for every manifest write
const ManifestCommitMessage = "Update station index"

// ManifestResult is the manifest state after a resync
type ManifestResult struct {
	Stations []string `json:"stations"`
	Hash     string   `json:"sha"`
	Changed  bool     `json:"changed"` // false when the stored manifest already matched
}

// ManifestSynchronizer rebuilds the manifest from the collection directory
type ManifestSynchronizer struct {
	store        blobstore.Store
	dir          string
	manifestName string
	log          *logger.Logger
}

// NewManifestSynchronizer creates a synchronizer for dir/manifestName
func NewManifestSynchronizer(store blobstore.Store, dir, manifestName string, log *logger.Logger) *ManifestSynchronizer {
	return &ManifestSynchronizer{
		store:        store,
		dir:          dir,
		manifestName: manifestName,
		log:          log,
	}
}

// Path is the manifest blob path
func (s *ManifestSynchronizer) Path() string {
	return blobstore.Join(s.dir, s.manifestName)
}

// ListIDs returns the sorted station ids present in the collection
func (s *ManifestSynchronizer) ListIDs(ctx context.Context) ([]string, error) {
	entries, err := s.store.List(ctx, s.dir)
	if err != nil {
		if blobstore.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list stations: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != blobstore.EntryTypeFile {
			continue
		}
		if id, ok := models.IDFromFileName(e.Name, s.manifestName); ok {
			ids = append(ids, id)
		}
	}

	return models.NewManifest(ids).Stations, nil
}

// Read returns the stored manifest and its hash
func (s *ManifestSynchronizer) Read(ctx context.Context) (*models.Manifest, string, error) {
	blob, err := s.store.Get(ctx, s.Path())
	if err != nil {
		if blobstore.IsNotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingManifest, s.Path())
		}
		return nil, "", fmt.Errorf("read manifest: %w", err)
	}

	m, err := models.DecodeManifest(blob.Content)
	if err != nil {
		// A corrupt manifest is still overwritten by Resync
		s.log.Warn("stored manifest is not valid JSON", "path", s.Path(), "error", err)
		return nil, blob.Hash, err
	}

	return m, blob.Hash, nil
}

// Resync lists the collection and rewrites the manifest to match it exactly.
// The manifest must already exist.
func (s *ManifestSynchronizer) Resync(ctx context.Context) (*ManifestResult, error) {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	content, err := models.EncodeManifest(models.NewManifest(ids))
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	current, err := s.store.Get(ctx, s.Path())
	if err != nil {
		if blobstore.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifest, s.Path())
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if bytes.Equal(current.Content, content) {
		s.log.Debug("manifest already up to date", "stations", len(ids))
		return &ManifestResult{Stations: ids, Hash: current.Hash}, nil
	}

	hash, err := s.store.Put(ctx, s.Path(), content, current.Hash, ManifestCommitMessage)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	s.log.Info("manifest updated", "stations", len(ids), "sha", hash)

	return &ManifestResult{Stations: ids, Hash: hash, Changed: true}, nil
}

// Init creates the manifest when it does not exist and then resyncs.
// created reports whether a new manifest blob was written.
func (s *ManifestSynchronizer) Init(ctx context.Context) (result *ManifestResult, created bool, err error) {
	_, err = s.store.Get(ctx, s.Path())
	switch {
	case err == nil:
	case blobstore.IsNotFound(err):
		content, encErr := models.EncodeManifest(models.NewManifest(nil))
		if encErr != nil {
			return nil, false, fmt.Errorf("encode manifest: %w", encErr)
		}
		if _, err := s.store.Put(ctx, s.Path(), content, "", ManifestCommitMessage); err != nil {
			return nil, false, fmt.Errorf("create manifest: %w", err)
		}
		s.log.Info("manifest created", "path", s.Path())
		created = true
	default:
		return nil, false, fmt.Errorf("read manifest: %w", err)
	}

	result, err = s.Resync(ctx)
	return result, created, err
}
