package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/config"
	"github.com/stationprofiles/station-sync/common/db"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Postgres configured through POSTGRES_* variables
func TestChangeRepository_Postgres(t *testing.T) {
	if os.Getenv("E2E_POSTGRES") != "true" {
		t.Skip("Skipping Postgres change history test. Set E2E_POSTGRES=true to run")
	}

	ctx := context.Background()
	cfg, err := config.Load("station-sync-test")
	if err != nil {
		// Only the database settings matter here
		cfg.Store.Backend = "memory"
	}

	database, err := db.New(ctx, cfg, logger.Discard())
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer database.Close()

	repo := NewChangeRepository(database)
	require.NoError(t, repo.EnsureSchema(ctx))

	stationID := "test-" + uuid.NewString()[:8]
	older := &models.StationChange{
		ID:        uuid.New(),
		Action:    models.ActionCreate,
		StationID: stationID,
		BlobSHA:   "aaa",
		CreatedAt: time.Now().Add(-time.Minute).UTC(),
	}
	newer := &models.StationChange{
		ID:          uuid.New(),
		RequestID:   "req-1",
		Action:      models.ActionUpdate,
		StationID:   stationID,
		BlobSHA:     "bbb",
		ManifestSHA: "ccc",
		Changes:     json.RawMessage(`{"frequency":"95.1 FM"}`),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	changes, err := repo.ListByStation(ctx, stationID, 10)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, newer.ID, changes[0].ID)
	assert.Equal(t, models.ActionUpdate, changes[0].Action)
	assert.JSONEq(t, `{"frequency":"95.1 FM"}`, string(changes[0].Changes))
	assert.Equal(t, older.ID, changes[1].ID)
	assert.Empty(t, changes[1].Changes)

	limited, err := repo.ListByStation(ctx, stationID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
