package bootstrap

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/config"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Name: "station-sync", Port: 8080, LogLevel: "error"},
		Store: config.StoreConfig{
			Backend:      "memory",
			StationsDir:  "public/data/stations",
			ManifestName: "index.json",
		},
	}
}

func TestSetup_MemoryBackend(t *testing.T) {
	ctx := context.Background()

	c, err := Setup(ctx, "station-sync",
		WithCustomConfig(memoryConfig()),
		WithCustomLogger(logger.Discard()),
	)
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	assert.IsType(t, &blobstore.MemoryStore{}, c.Store)
	assert.Nil(t, c.DB)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Telemetry)
	assert.NoError(t, c.Health(ctx))
}

func TestSetup_GitHubBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "github"
	cfg.GitHub = config.GitHubConfig{Owner: "dmccolly", Repo: "StationProfiles", Token: "t"}

	c, err := Setup(context.Background(), "station-sync",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
	)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.GitHubStore{}, c.Store)
}

func TestSetup_InjectedStore(t *testing.T) {
	store := blobstore.NewMemoryStore()

	c, err := Setup(context.Background(), "station-sync",
		WithCustomConfig(memoryConfig()),
		WithCustomLogger(logger.Discard()),
		WithBlobStore(store),
	)
	require.NoError(t, err)
	assert.Same(t, store, c.Store)
}

func TestSetup_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "s3"

	_, err := Setup(context.Background(), "station-sync",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
	)
	assert.Error(t, err)
}

func TestSetup_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Redis.Port = port

	c, err := Setup(ctx, "station-sync",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
	)
	require.NoError(t, err)
	require.NotNil(t, c.Redis)
	assert.NoError(t, c.Health(ctx))

	require.NoError(t, c.Shutdown(ctx))
	assert.Error(t, c.Redis.Ping(ctx))
}

func TestSetup_WithoutRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1

	c, err := Setup(context.Background(), "station-sync",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Discard()),
		WithoutRedis(),
	)
	require.NoError(t, err)
	assert.Nil(t, c.Redis)
}
