package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stationprofiles/station-sync/cmd/station-sync/fanout"
	"github.com/stationprofiles/station-sync/cmd/station-sync/repository"
	"github.com/stationprofiles/station-sync/cmd/station-sync/service"
	"github.com/stationprofiles/station-sync/common/bootstrap"
	"github.com/stationprofiles/station-sync/common/clients"
	"github.com/stationprofiles/station-sync/common/ratelimit"
	"github.com/stationprofiles/station-sync/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	Manifests   *repository.ManifestSynchronizer
	StationRepo *repository.StationRepository
	ChangeRepo  *repository.ChangeRepository // nil unless the change history is enabled

	// Services
	Policy      *validation.StationPolicy
	Rebuild     *service.RebuildTrigger
	Notifier    service.Notifier
	Audit       *service.AuditService
	Dispatcher  *service.Dispatcher
	Backfill    *service.NameBackfill
	RateLimiter *ratelimit.RateLimiter // nil unless Redis is enabled

	// Change feed, nil unless Redis is enabled
	ChangeHub        *fanout.Hub
	ChangeSubscriber *fanout.Subscriber
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	rules, err := validation.LoadRules(cfg.Policy.File)
	if err != nil {
		return nil, err
	}
	policy, err := validation.NewStationPolicy(rules...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile station policy: %w", err)
	}
	if len(rules) > 0 {
		log.Info("loaded station policy rules", "file", cfg.Policy.File, "rules", len(rules))
	}

	// Initialize repositories
	manifests := repository.NewManifestSynchronizer(components.Store, cfg.Store.StationsDir, cfg.Store.ManifestName, log)
	stationRepo := repository.NewStationRepository(components.Store, cfg.Store.StationsDir, manifests, log)

	if cfg.Store.Backend == "memory" {
		// A fresh in-memory store has no manifest yet
		if _, _, err := manifests.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
	}

	var changeRepo *repository.ChangeRepository
	var changeStore service.ChangeStore
	if components.DB != nil {
		changeRepo = repository.NewChangeRepository(components.DB)
		changeStore = changeRepo
	}

	// Initialize services (bottom-up: dependencies first)
	httpClient := clients.NewHTTPClient(&http.Client{Timeout: cfg.Rebuild.Timeout}, log)
	rebuild := service.NewRebuildTrigger(cfg.Rebuild.HookURL, cfg.Rebuild.Timeout, httpClient, log)

	var notifier service.Notifier = service.NoOpNotifier{}
	var limiter *ratelimit.RateLimiter
	var hub *fanout.Hub
	var subscriber *fanout.Subscriber
	if components.Redis != nil {
		notifier = service.NewRedisNotifier(components.Redis, cfg.Redis.ChangesChannel, log)
		limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
		hub = fanout.NewHub(log)
		subscriber = fanout.NewSubscriber(components.Redis, cfg.Redis.ChangesChannel, hub, log)
	}

	audit := service.NewAuditService(changeStore, log)

	dispatcher := service.NewDispatcher(service.DispatcherDeps{
		Stations:  stationRepo,
		Policy:    policy,
		Rebuild:   rebuild,
		Notifier:  notifier,
		Audit:     audit,
		Telemetry: components.Telemetry,
		Logger:    log,
	})

	return &Container{
		Components:  components,
		Manifests:   manifests,
		StationRepo: stationRepo,
		ChangeRepo:  changeRepo,
		Policy:      policy,
		Rebuild:     rebuild,
		Notifier:    notifier,
		Audit:       audit,
		Dispatcher:  dispatcher,
		Backfill:    service.NewNameBackfill(stationRepo, log),
		RateLimiter: limiter,

		ChangeHub:        hub,
		ChangeSubscriber: subscriber,
	}, nil
}
