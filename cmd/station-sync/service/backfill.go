package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/cmd/station-sync/repository"
	"github.com/stationprofiles/station-sync/common/logger"
)

// BackfillResult summarizes a name backfill run
type BackfillResult struct {
	DryRun   bool                       `json:"dryRun"`
	Scanned  int                        `json:"scanned"`
	Updated  []string                   `json:"updated"`
	Skipped  int                        `json:"skipped"`
	Failed   map[string]string          `json:"failed,omitempty"`
	Manifest *repository.ManifestResult `json:"manifest,omitempty"`
}

// NameBackfill prefixes station names with their call letters
type NameBackfill struct {
	stations *repository.StationRepository
	log      *logger.Logger
}

// NewNameBackfill creates a backfill over the station collection
func NewNameBackfill(stations *repository.StationRepository, log *logger.Logger) *NameBackfill {
	return &NameBackfill{
		stations: stations,
		log:      log,
	}
}

// ApplyCallLetters updates stationName in place and reports whether it changed.
// "Name" becomes "KXXX - Name" unless the call letters already appear in it;
// an empty name becomes the call letters.
func ApplyCallLetters(s *models.Station) bool {
	callLetters := s.CallLetters
	name := s.StationName

	switch {
	case callLetters == "":
		return false
	case name == "":
		s.StationName = callLetters
		return true
	case strings.Contains(name, callLetters):
		return false
	default:
		s.StationName = callLetters + " - " + name
		return true
	}
}

// Run rewrites every station whose name needs the call letters, then
// resyncs the manifest once. Individual failures do not stop the run.
func (b *NameBackfill) Run(ctx context.Context, dryRun bool) (*BackfillResult, error) {
	ids, err := b.stations.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{
		DryRun:  dryRun,
		Updated: make([]string, 0),
		Failed:  make(map[string]string),
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		station, _, err := b.stations.Read(ctx, id)
		if err != nil {
			b.log.Warn("backfill could not read station", "station_id", id, "error", err)
			result.Failed[id] = err.Error()
			continue
		}

		if !ApplyCallLetters(station) {
			result.Skipped++
			continue
		}

		if dryRun {
			b.log.Info("backfill would update station", "station_id", id, "station_name", station.DisplayName())
			result.Updated = append(result.Updated, id)
			continue
		}

		if _, err := b.stations.Write(ctx, id, station); err != nil {
			b.log.Warn("backfill could not write station", "station_id", id, "error", err)
			result.Failed[id] = err.Error()
			continue
		}

		b.log.Info("backfill updated station", "station_id", id, "station_name", station.DisplayName())
		result.Updated = append(result.Updated, id)
	}

	if dryRun || len(result.Updated) == 0 {
		return result, nil
	}

	result.Manifest, err = b.stations.Resync(ctx)
	if err != nil {
		return result, fmt.Errorf("backfill finished but manifest sync failed: %w", err)
	}

	return result, nil
}
