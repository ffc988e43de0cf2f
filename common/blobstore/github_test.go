package blobstore_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationprofiles/station-sync/common/blobstore"
	"github.com/stationprofiles/station-sync/common/blobstore/blobstoretest"
)

// testLogger implements blobstore.Logger
type testLogger struct {
	t *testing.T
}

func (l *testLogger) Info(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[INFO] %s %v", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[ERROR] %s %v", msg, keysAndValues)
}

func (l *testLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[WARN] %s %v", msg, keysAndValues)
}

func (l *testLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[DEBUG] %s %v", msg, keysAndValues)
}

func newGitHubStore(t *testing.T) (*blobstore.GitHubStore, *blobstoretest.FakeGitHub) {
	t.Helper()
	fake := blobstoretest.NewFakeGitHub("dmccolly", "StationProfiles")
	t.Cleanup(fake.Close)

	store, err := blobstore.NewGitHubStore(blobstore.GitHubConfig{
		Owner:  "dmccolly",
		Repo:   "StationProfiles",
		Branch: "main",
		Token:  "test-token",
		APIURL: fake.URL(),
	}, &http.Client{Timeout: 5 * time.Second}, &testLogger{t: t})
	require.NoError(t, err)

	return store, fake
}

func TestNewGitHubStore_RequiresRepo(t *testing.T) {
	_, err := blobstore.NewGitHubStore(blobstore.GitHubConfig{Owner: "x"}, nil, &testLogger{t: t})
	assert.Error(t, err)
}

func TestGitHubStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, fake := newGitHubStore(t)

	content := []byte("{\n  \"id\": \"krvb\"\n}\n")
	hash, err := store.Put(ctx, "public/data/stations/krvb.json", content, "", "Create station: krvb")
	require.NoError(t, err)
	assert.Equal(t, blobstore.GitBlobHash(content), hash)

	blob, err := store.Get(ctx, "public/data/stations/krvb.json")
	require.NoError(t, err)
	assert.Equal(t, content, blob.Content)
	assert.Equal(t, hash, blob.Hash)

	commits := fake.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, "Create station: krvb", commits[0].Message)
	assert.Equal(t, "main", commits[0].Branch)
}

func TestGitHubStore_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	store, _ := newGitHubStore(t)

	first, err := store.Put(ctx, "s/a.json", []byte("1"), "", "create")
	require.NoError(t, err)

	t.Run("missing file is not found", func(t *testing.T) {
		_, err := store.Get(ctx, "s/missing.json")
		assert.True(t, blobstore.IsNotFound(err), "got %v", err)
	})

	t.Run("create without sha over existing file conflicts", func(t *testing.T) {
		_, err := store.Put(ctx, "s/a.json", []byte("2"), "", "create")
		assert.True(t, blobstore.IsConflict(err), "got %v", err)
	})

	t.Run("stale sha conflicts", func(t *testing.T) {
		_, err := store.Put(ctx, "s/a.json", []byte("2"), first, "update")
		require.NoError(t, err)

		_, err = store.Put(ctx, "s/a.json", []byte("3"), first, "update")
		assert.True(t, blobstore.IsConflict(err), "got %v", err)

		err = store.Delete(ctx, "s/a.json", first, "delete")
		assert.True(t, blobstore.IsConflict(err), "got %v", err)
	})

	t.Run("delete missing is not found", func(t *testing.T) {
		err := store.Delete(ctx, "s/missing.json", first, "delete")
		assert.True(t, blobstore.IsNotFound(err), "got %v", err)
	})
}

func TestGitHubStore_ServerErrorIsUnavailable(t *testing.T) {
	store, fake := newGitHubStore(t)
	fake.FailNext(1)

	_, err := store.Get(context.Background(), "s/a.json")
	assert.ErrorIs(t, err, blobstore.ErrRemoteUnavailable)
}

func TestGitHubStore_List(t *testing.T) {
	ctx := context.Background()
	store, _ := newGitHubStore(t)

	for _, p := range []string{"s/b.json", "s/a.json", "s/index.json"} {
		_, err := store.Put(ctx, p, []byte(p), "", "seed")
		require.NoError(t, err)
	}

	entries, err := store.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.json", entries[0].Name)
	assert.Equal(t, "s/a.json", entries[0].Path)
	assert.Equal(t, blobstore.EntryTypeFile, entries[0].Type)
	assert.Equal(t, blobstore.GitBlobHash([]byte("s/a.json")), entries[0].Hash)
}

func TestGitHubStore_ListOnFileIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, _ := newGitHubStore(t)

	_, err := store.Put(ctx, "s/krvb.json", []byte(`{"id":"krvb"}`), "", "seed")
	require.NoError(t, err)

	_, err = store.List(ctx, "s/krvb.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))

	var nf *blobstore.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "s/krvb.json", nf.Path)
}

func TestGitHubStore_DeleteRemovesFile(t *testing.T) {
	ctx := context.Background()
	store, fake := newGitHubStore(t)

	hash, err := store.Put(ctx, "s/a.json", []byte("1"), "", "create")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "s/a.json", hash, "Delete station: a"))

	assert.Equal(t, 0, fake.Store.Len())
}
