package service

import (
	"context"
	"testing"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCallLetters(t *testing.T) {
	tests := []struct {
		name        string
		callLetters string
		stationName string
		want        string
		changed     bool
	}{
		{"prefixes name", "KRVB", "The River", "KRVB - The River", true},
		{"already contains", "KRVB", "KRVB - The River", "KRVB - The River", false},
		{"avoids duplicate", "KRVB", "KRVB", "KRVB", false},
		{"empty name", "KIDO", "", "KIDO", true},
		{"no call letters", "", "Boise State Public Radio", "Boise State Public Radio", false},
		{"nothing at all", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &models.Station{CallLetters: tt.callLetters, StationName: tt.stationName}
			assert.Equal(t, tt.changed, ApplyCallLetters(s))
			assert.Equal(t, tt.want, s.StationName)
		})
	}
}

func seedStations(t *testing.T, f *fixture, stations ...*models.Station) {
	t.Helper()
	for _, s := range stations {
		_, err := f.repo.CreateOrUpdate(context.Background(), s.ID, s)
		require.NoError(t, err)
	}
}

func TestNameBackfill_Run(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, nil)
	seedStations(t, f,
		&models.Station{ID: "krvb", CallLetters: "KRVB", StationName: "The River"},
		&models.Station{ID: "kido", CallLetters: "KIDO"},
		&models.Station{ID: "kbsu", CallLetters: "KBSU", StationName: "KBSU Public Radio"},
	)
	_, err := f.mem.Put(ctx, testDir+"/broken.json", []byte("{not json"), "", "bad")
	require.NoError(t, err)

	result, err := NewNameBackfill(f.repo, f.d.log).Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Scanned)
	assert.ElementsMatch(t, []string{"kido", "krvb"}, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Failed, "broken")
	require.NotNil(t, result.Manifest)
	assert.Equal(t, []string{"broken", "kbsu", "kido", "krvb"}, result.Manifest.Stations)

	got, _, err := f.repo.Read(ctx, "krvb")
	require.NoError(t, err)
	assert.Equal(t, "KRVB - The River", got.StationName)

	got, _, err = f.repo.Read(ctx, "kido")
	require.NoError(t, err)
	assert.Equal(t, "KIDO", got.StationName)
}

func TestNameBackfill_DryRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, nil)
	seedStations(t, f, &models.Station{ID: "krvb", CallLetters: "KRVB", StationName: "The River"})

	before, err := f.mem.Get(ctx, testDir+"/krvb.json")
	require.NoError(t, err)

	result, err := NewNameBackfill(f.repo, f.d.log).Run(ctx, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"krvb"}, result.Updated)
	assert.Nil(t, result.Manifest)

	after, err := f.mem.Get(ctx, testDir+"/krvb.json")
	require.NoError(t, err)
	assert.Equal(t, before.Hash, after.Hash)
}

func TestNameBackfill_NothingToDo(t *testing.T) {
	f := newFixture(t, true, nil)
	seedStations(t, f, &models.Station{ID: "kbsu", CallLetters: "KBSU", StationName: "KBSU"})

	calls := f.store.Calls()
	result, err := NewNameBackfill(f.repo, f.d.log).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, result.Updated)
	assert.Nil(t, result.Manifest)
	// one List and one Get, no writes
	assert.Equal(t, calls+2, f.store.Calls())
}
