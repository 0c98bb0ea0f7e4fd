// Package app assembles the search service from configuration. The HTTP
// server and the placesctl CLI share it.
package app

import (
	"context"
	"fmt"
	"strings"

	"spotfinder/config"
	"spotfinder/cron"
	"spotfinder/database"
	"spotfinder/database/index"
	placeRepo "spotfinder/database/repository/place"
	"spotfinder/services/identity"
	"spotfinder/services/providers"
	"spotfinder/services/search"
	"spotfinder/services/tasks"
	"spotfinder/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Persistence modes.
const (
	PersistPool  = "pool"
	PersistQueue = "queue"
	PersistSync  = "sync"
)

// App holds the assembled components.
type App struct {
	Service      *search.Service
	Index        *index.Index
	Repo         placeRepo.PlaceRepository
	Persister    *search.PlacePersister
	Dispatcher   search.Dispatcher
	HealthChecks map[string]utils.HealthCheck

	logger  *zap.Logger
	closers []func()
}

// Build wires every component described by cfg. persistMode overrides
// cfg.PersistMode when not empty.
func Build(ctx context.Context, cfg config.Config, persistMode string, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger, HealthChecks: map[string]utils.HealthCheck{}}

	repo, err := a.newRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Repo = repo
	a.HealthChecks["store"] = repo.Ping

	ix, err := index.Open(cfg.LocalIndexPath, logger.Named("index"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Index = ix
	a.closers = append(a.closers, func() { _ = ix.Close() })

	resolver := identity.NewResolver(repo,
		identity.WithMatchRadius(cfg.MatchRadiusMeters),
		identity.WithLogger(logger.Named("identity")))
	a.Persister = search.NewPlacePersister(resolver, ix, logger.Named("persist"))

	if persistMode == "" {
		persistMode = cfg.PersistMode
	}
	dispatcher, err := a.newDispatcher(cfg, persistMode)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Dispatcher = dispatcher

	providerOpts := []providers.Option{
		providers.WithTimeout(cfg.ProviderTimeout()),
		providers.WithRateLimit(cfg.ProviderRatePerSecond),
		providers.WithLogger(logger.Named("providers")),
	}
	mapbox, err := a.cached(cfg, providers.NewMapbox(cfg.MapboxAccessToken, providerOpts...))
	if err != nil {
		a.Close()
		return nil, err
	}
	google, err := a.cached(cfg, providers.NewGooglePlaces(cfg.GooglePlacesAPIKey, providerOpts...))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = search.NewService(search.Deps{
		Local:        providers.NewLocal(ix),
		Remotes:      []providers.Provider{mapbox, google},
		Repo:         repo,
		Resolver:     resolver,
		Persister:    a.Persister,
		Dispatcher:   dispatcher,
		Nearby:       search.NewNearbyResolver(repo, google, resolver, a.Persister, cfg.NearbyCacheRadiusMeters, logger.Named("nearby")),
		Index:        ix,
		Floor:        cfg.SearchFloor,
		DefaultLimit: cfg.SearchDefaultLimit,
		Logger:       logger.Named("search"),
	})
	return a, nil
}

func (a *App) newRepository(ctx context.Context, cfg config.Config) (placeRepo.PlaceRepository, error) {
	switch strings.ToLower(cfg.PlacesStore) {
	case "", "memory":
		a.logger.Warn("using in-memory place store; places are lost on restart")
		return placeRepo.NewMemoryPlaceRepo(), nil
	case "mongo":
		if err := database.InitDB(); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = database.MongoClient.Disconnect(context.Background()) })
		return placeRepo.NewMongoPlaceRepo(database.Database(), a.logger.Named("store")), nil
	case "firestore":
		client, err := utils.FirebaseInit(ctx)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return placeRepo.NewFirestorePlaceRepo(client), nil
	default:
		return nil, fmt.Errorf("unknown PLACES_STORE %q", cfg.PlacesStore)
	}
}

func (a *App) newDispatcher(cfg config.Config, mode string) (search.Dispatcher, error) {
	switch strings.ToLower(mode) {
	case "", PersistPool:
		d, err := search.NewPoolDispatcher(a.Persister, cfg.PersistPoolSize, cfg.PersistQueueSize, a.logger.Named("dispatch"))
		if err != nil {
			return nil, fmt.Errorf("failed to start persist pool: %w", err)
		}
		a.closers = append(a.closers, d.Close)
		return d, nil
	case PersistQueue:
		client := asynq.NewClient(cron.QueueRedisOpt())
		d := tasks.NewQueueDispatcher(client, a.logger.Named("dispatch"))
		a.closers = append(a.closers, d.Close)
		return d, nil
	case PersistSync:
		return search.NewSyncDispatcher(a.Persister, a.logger.Named("dispatch")), nil
	default:
		return nil, fmt.Errorf("unknown PERSIST_MODE %q", mode)
	}
}

// cached puts the configured result cache in front of a remote provider.
// A Redis cache that cannot connect falls back to memory.
func (a *App) cached(cfg config.Config, p providers.Provider) (*search.CachedProvider, error) {
	tokens := search.NewSessionTokens(cfg.SessionTokenTTL(), nil)
	log := a.logger.Named("cache").With(zap.String("provider", p.Name()))

	if strings.EqualFold(cfg.CacheBackend, "redis") {
		client, err := utils.GetCacheClient()
		if err == nil {
			if _, registered := a.HealthChecks["redis"]; !registered {
				a.HealthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			}
			return search.NewCachedProvider(p, search.NewRedisCache(client, p.Name(), cfg.CacheTTL(), tokens, log), log), nil
		}
		log.Warn("redis cache unavailable, using in-memory cache", zap.Error(err))
	}

	cache, err := search.NewMemoryCache(cfg.CacheTTL(), 0, search.WithSessionTokens(tokens))
	if err != nil {
		return nil, err
	}
	return search.NewCachedProvider(p, cache, log), nil
}

// Close releases components in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
