package service

import (
	"context"
	"time"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/clients"
	"github.com/stationprofiles/station-sync/common/logger"
)

// RebuildTrigger asks the static site host to rebuild after a change
type RebuildTrigger struct {
	hookURL string
	timeout time.Duration
	client  *clients.HTTPClient
	log     *logger.Logger
}

// NewRebuildTrigger creates a trigger. An empty hookURL disables it.
func NewRebuildTrigger(hookURL string, timeout time.Duration, client *clients.HTTPClient, log *logger.Logger) *RebuildTrigger {
	return &RebuildTrigger{
		hookURL: hookURL,
		timeout: timeout,
		client:  client,
		log:     log,
	}
}

// Trigger posts an empty JSON object to the build hook.
// Failures are reported in the result, never returned.
func (r *RebuildTrigger) Trigger(ctx context.Context) *models.RebuildResult {
	if r == nil || r.hookURL == "" {
		if r != nil {
			r.log.Debug("no build hook configured, skipping rebuild trigger")
		}
		return &models.RebuildResult{Skipped: true}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.client.PostJSON(ctx, r.hookURL, []byte("{}")); err != nil {
		r.log.Warn("site rebuild trigger failed", "error", err)
		return &models.RebuildResult{Triggered: false, Error: err.Error()}
	}

	r.log.Info("site rebuild triggered")
	return &models.RebuildResult{Triggered: true}
}
