package search

import (
	"context"
	"errors"
	"strings"

	placeRepo "spotfinder/database/repository/place"
	"spotfinder/models"
	"spotfinder/services/identity"
	"spotfinder/services/providers"
	"spotfinder/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNearbyCacheRadius = 50.0
	MinNearbyRadius          = 1.0
	MaxNearbyRadius          = 50000.0
	MinNearbyLimit           = 1
	MaxNearbyLimit           = 60
	nearbyResolveFanout      = 8
)

// Nearby result origins.
const (
	NearbySourceStore  = "cache"
	NearbySourceRemote = "remote"
)

// NearbyResult is one place near the query point.
type NearbyResult struct {
	Place          models.Place `json:"place"`
	DistanceMeters float64      `json:"distanceMeters"`
	Source         string       `json:"source"`
}

// NearbyResolver answers proximity queries from the repository when it already
// knows a place at the point, and from a remote provider otherwise.
type NearbyResolver struct {
	repo        placeRepo.PlaceRepository
	remote      providers.NearbyProvider
	resolver    *identity.Resolver
	indexer     *PlacePersister
	cacheRadius float64
	logger      *zap.Logger
}

// NewNearbyResolver creates a resolver. remote and indexer may be nil.
func NewNearbyResolver(repo placeRepo.PlaceRepository, remote providers.NearbyProvider, resolver *identity.Resolver, indexer *PlacePersister, cacheRadius float64, logger *zap.Logger) *NearbyResolver {
	if cacheRadius <= 0 {
		cacheRadius = DefaultNearbyCacheRadius
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NearbyResolver{
		repo:        repo,
		remote:      remote,
		resolver:    resolver,
		indexer:     indexer,
		cacheRadius: cacheRadius,
		logger:      logger,
	}
}

// Nearby scans the repository at the fixed cache radius first, whatever radius
// was asked for. Only an empty scan leads to a remote call, and every remote
// result is resolved and stored before it is returned.
func (n *NearbyResolver) Nearby(ctx context.Context, q providers.NearbyQuery) ([]NearbyResult, error) {
	if !q.Location.Valid() {
		return nil, ErrInvalidLocation
	}
	q.RadiusMeters = utils.ClampFloat(q.RadiusMeters, MinNearbyRadius, MaxNearbyRadius)
	q.Limit = utils.ClampInt(q.Limit, MinNearbyLimit, MaxNearbyLimit)
	lat, lon := q.Location.Latitude, q.Location.Longitude

	stored, err := n.repo.FindWithinRadius(ctx, lat, lon, n.cacheRadius, q.Limit)
	if err != nil {
		n.logger.Warn("nearby store scan failed", zap.Error(err))
	}
	hits := make([]NearbyResult, 0, len(stored))
	for _, pd := range stored {
		if matchesType(pd.Place.Categories, q.Type) {
			hits = append(hits, NearbyResult{Place: pd.Place, DistanceMeters: pd.Distance, Source: NearbySourceStore})
		}
	}
	if len(hits) > 0 {
		return hits, nil
	}

	if n.remote == nil {
		return []NearbyResult{}, nil
	}
	candidates, err := n.remote.Nearby(ctx, q)
	if err != nil {
		if !errors.Is(err, providers.ErrProviderUnavailable) {
			n.logger.Warn("remote nearby failed", zap.String("provider", n.remote.Name()), zap.Error(err))
		}
		return []NearbyResult{}, nil
	}
	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	resolved := make([]*NearbyResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nearbyResolveFanout)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			res, err := n.resolver.ResolvePlace(gctx, c)
			if err != nil {
				n.logger.Debug("skipping unresolvable nearby candidate", zap.String("name", c.Name), zap.Error(err))
				return nil
			}
			if n.indexer != nil {
				n.indexer.IndexPlace(gctx, *res.Place)
			}
			resolved[i] = &NearbyResult{
				Place:          *res.Place,
				DistanceMeters: utils.HaversineMeters(lat, lon, c.Latitude, c.Longitude),
				Source:         NearbySourceRemote,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]NearbyResult, 0, len(resolved))
	for _, r := range resolved {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func matchesType(categories []string, want string) bool {
	if want == "" {
		return true
	}
	for _, c := range categories {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}
