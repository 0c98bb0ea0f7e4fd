package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	placeRepo "spotfinder/database/repository/place"
	"spotfinder/models"
	"spotfinder/services/identity"
	"spotfinder/services/providers"

	"go.uber.org/zap"
)

const (
	ProviderAll        = "all"
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Query is one search request.
type Query struct {
	Text     string
	Limit    int
	Location *models.LatLng
	Provider string
}

// Deps are the collaborators of a Service.
type Deps struct {
	Local        providers.Provider
	Remotes      []providers.Provider // priority order, usually cache-wrapped
	Repo         placeRepo.PlaceRepository
	Resolver     *identity.Resolver
	Persister    *PlacePersister
	Dispatcher   Dispatcher
	Nearby       *NearbyResolver
	Index        IndexMaintainer
	Floor        int
	DefaultLimit int
	Logger       *zap.Logger
}

// Service is the entry point for place search, lookup and resolution.
type Service struct {
	cascade      *Cascade
	byName       map[string]providers.Provider
	repo         placeRepo.PlaceRepository
	resolver     *identity.Resolver
	persister    *PlacePersister
	dispatcher   Dispatcher
	nearby       *NearbyResolver
	index        IndexMaintainer
	defaultLimit int
	logger       *zap.Logger
}

// NewService wires a Service from deps.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]providers.Provider, len(d.Remotes)+1)
	if d.Local != nil {
		byName[d.Local.Name()] = d.Local
	}
	for _, p := range d.Remotes {
		byName[p.Name()] = p
	}
	limit := d.DefaultLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Service{
		cascade: NewCascade(d.Local, d.Remotes, d.Resolver.SamePlace,
			WithFloor(d.Floor), WithDispatcher(d.Dispatcher), WithCascadeLogger(logger)),
		byName:       byName,
		repo:         d.Repo,
		resolver:     d.Resolver,
		persister:    d.Persister,
		dispatcher:   d.Dispatcher,
		nearby:       d.Nearby,
		index:        d.Index,
		defaultLimit: limit,
		logger:       logger,
	}
}

// Search runs the cascade, or a single named provider.
func (s *Service) Search(ctx context.Context, q Query) ([]models.Candidate, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if q.Location != nil && !q.Location.Valid() {
		return nil, ErrInvalidLocation
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	provider := strings.ToLower(strings.TrimSpace(q.Provider))
	if provider == "" || provider == ProviderAll {
		return s.cascade.Search(ctx, text, limit, q.Location), nil
	}
	p, ok := s.byName[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, q.Provider)
	}
	results := truncate(s.cascade.call(ctx, p, text, limit, q.Location), limit)
	if provider != models.SourceLocal {
		s.cascade.persist(ctx, results)
	}
	if results == nil {
		results = []models.Candidate{}
	}
	return results, nil
}

// Details returns the canonical place for a provider record, fetching and
// storing it on first sight.
func (s *Service) Details(ctx context.Context, provider, id string) (*models.Place, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	p, ok := s.byName[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	if known := s.known(ctx, provider, id); known != nil {
		return known, nil
	}

	c, err := p.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.ResolvePlace(ctx, *c)
	if err != nil {
		return nil, err
	}
	if s.persister != nil {
		s.persister.IndexPlace(ctx, *res.Place)
	}
	return res.Place, nil
}

// known returns an already stored place for (provider, id), or nil.
func (s *Service) known(ctx context.Context, provider, id string) *models.Place {
	var (
		p   *models.Place
		err error
	)
	if provider == models.SourceLocal {
		p, err = s.repo.FindByID(ctx, id)
	} else {
		p, err = s.repo.FindByProviderID(ctx, provider, id)
	}
	if err != nil {
		if !errors.Is(err, placeRepo.ErrPlaceNotFound) {
			s.logger.Warn("stored place lookup failed", zap.String("provider", provider), zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	return p
}

// Place returns a stored place by canonical id.
func (s *Service) Place(ctx context.Context, id string) (*models.Place, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, placeRepo.ErrPlaceNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// Resolve maps an externally derived candidate onto a canonical place. coarse
// selects the wider radius used for coordinates geocoded from a name.
func (s *Service) Resolve(ctx context.Context, c models.Candidate, coarse bool) (*identity.Resolution, error) {
	var (
		res *identity.Resolution
		err error
	)
	if coarse {
		res, err = s.resolver.ResolveCoarse(ctx, c)
	} else {
		res, err = s.resolver.ResolvePlace(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	if s.persister != nil {
		s.persister.IndexPlace(ctx, *res.Place)
	}
	return res, nil
}

// AttachMedia links a media reference to a place.
func (s *Service) AttachMedia(ctx context.Context, placeID, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ErrEmptyMediaRef
	}
	err := s.repo.AppendMedia(ctx, placeID, ref)
	if errors.Is(err, placeRepo.ErrPlaceNotFound) {
		return ErrNotFound
	}
	return err
}

// Nearby delegates to the NearbyResolver.
func (s *Service) Nearby(ctx context.Context, q providers.NearbyQuery) ([]NearbyResult, error) {
	if s.nearby == nil {
		return []NearbyResult{}, nil
	}
	return s.nearby.Nearby(ctx, q)
}

// IndexInfo reports the local index state.
func (s *Service) IndexInfo(ctx context.Context) (models.IndexInfo, error) {
	if s.index == nil {
		return models.IndexInfo{IsEmpty: true}, nil
	}
	return s.index.Info(ctx)
}

// RefreshIndex compacts the local index after bulk writes.
func (s *Service) RefreshIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	return s.index.Refresh(ctx)
}

// RebuildIndex reloads the local index from the repository.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	return RebuildIndex(ctx, s.repo, s.index, s.logger)
}

// Providers lists provider names in cascade order.
func (s *Service) Providers() []string { return s.cascade.Providers() }

// Ping checks the place store.
func (s *Service) Ping(ctx context.Context) error { return s.repo.Ping(ctx) }
