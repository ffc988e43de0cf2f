package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"serve", "init", "resync", "get", "apply", "backfill-names"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	apply, _, err := cmd.Find([]string{"apply"})
	require.NoError(t, err)
	assert.Equal(t, "-", apply.Flags().Lookup("file").DefValue)

	backfill, _, err := cmd.Find([]string{"backfill-names"})
	require.NoError(t, err)
	assert.Equal(t, "false", backfill.Flags().Lookup("dry-run").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, blobstore.NewMemoryStore(), "", "--format", "yaml", "resync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env"), false))

	err := loadEnvFile(filepath.Join(dir, "missing.env"), true)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STATION_SYNC_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("STATION_SYNC_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("STATION_SYNC_TEST_VAR"))

	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "from-file", os.Getenv("STATION_SYNC_TEST_VAR"))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", nil)))
}

// runCLI runs the root command against store with a memory backend
func runCLI(t *testing.T, store blobstore.Store, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("NETLIFY_BUILD_HOOK", "")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ENABLE_PPROF", "false")

	opts := &RootOptions{
		bootstrapOpts: []bootstrap.Option{bootstrap.WithBlobStore(store)},
	}
	cmd := newRootCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestInitCommand(t *testing.T) {
	store := blobstore.NewMemoryStore()

	out, _, err := runCLI(t, store, "", "--format", "json", "init")
	require.NoError(t, err)

	var result InitResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "public/data/stations/index.json", result.Path)
	assert.Empty(t, result.Stations)

	_, err = store.Get(context.Background(), result.Path)
	assert.NoError(t, err)
}

func TestApplyGetAndResync(t *testing.T) {
	store := blobstore.NewMemoryStore()

	req := `{"action":"create","stationId":"KEXP","stationData":{"name":"KEXP","callLetters":"KEXP","tagline":"where the music matters"}}`
	out, _, err := runCLI(t, store, req, "--format", "json", "apply")
	require.NoError(t, err)

	var resp models.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "kexp", resp.StationID)
	assert.Equal(t, models.ActionCreate, resp.Action)

	out, _, err = runCLI(t, store, "", "get", "kexp")
	require.NoError(t, err)
	station, err := models.DecodeStation([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "kexp", station.ID)
	assert.Contains(t, station.Extra, "tagline")

	out, _, err = runCLI(t, store, "", "resync")
	require.NoError(t, err)
	assert.Contains(t, out, "index lists 1 stations")
	assert.Contains(t, out, "  kexp\n")
}

func TestApplyCommand_FromFile(t *testing.T) {
	store := blobstore.NewMemoryStore()
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"action":"update","stationId":"krvb","stationData":{}}`), 0o600))

	out, _, err := runCLI(t, store, "", "apply", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Station saved: create krvb")
	assert.Contains(t, out, "rebuild:      skipped")
}

func TestApplyCommand_Failures(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, _, err := runCLI(t, store, "not json", "apply")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, _, err := runCLI(t, store, `{"action":"delete","stationId":"ghost"}`, "--format", "json", "apply")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp models.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "not_found", resp.Error)
}

func TestGetCommand_NotFound(t *testing.T) {
	_, _, err := runCLI(t, blobstore.NewMemoryStore(), "", "get", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "not_found")
}

func TestBackfillNamesCommand(t *testing.T) {
	store := blobstore.NewMemoryStore()
	_, _, err := runCLI(t, store, `{"action":"create","stationId":"kexp","stationData":{"stationName":"Seattle","callLetters":"KEXP"}}`, "apply")
	require.NoError(t, err)

	out, _, err := runCLI(t, store, "", "backfill-names", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would update 1")

	out, _, err = runCLI(t, store, "", "get", "kexp")
	require.NoError(t, err)
	assert.Contains(t, out, `"stationName": "Seattle"`)

	_, _, err = runCLI(t, store, "", "backfill-names")
	require.NoError(t, err)

	out, _, err = runCLI(t, store, "", "get", "kexp")
	require.NoError(t, err)
	assert.Contains(t, out, `"stationName": "KEXP - Seattle"`)
}
