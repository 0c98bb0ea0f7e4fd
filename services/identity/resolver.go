// Package identity decides which canonical place a provider candidate refers to.
package identity

import (
	"context"
	"errors"
	"fmt"

	placeRepo "spotfinder/database/repository/place"
	"spotfinder/models"

	"go.uber.org/zap"
)

// MatchKind records which rule produced a resolution.
type MatchKind string

const (
	MatchProviderID MatchKind = "provider_id"
	MatchCanonical  MatchKind = "canonical_id"
	MatchProximity  MatchKind = "name_proximity"
	MatchNew        MatchKind = "new"
)

// Resolution is the outcome of resolving one candidate.
type Resolution struct {
	Place *models.Place
	Kind  MatchKind
	// Persisted is false when the repository write failed; the id is still valid.
	Persisted bool
}

// Created reports whether the resolution minted a new place.
func (r Resolution) Created() bool { return r.Kind == MatchNew }

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatchRadius sets the general dedup radius in meters.
func WithMatchRadius(m float64) Option {
	return func(r *Resolver) {
		if m > 0 {
			r.matchRadius = m
		}
	}
}

// WithCoarseRadius sets the radius used for free-text derived candidates.
func WithCoarseRadius(m float64) Option {
	return func(r *Resolver) {
		if m > 0 {
			r.coarseRadius = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver maps candidates onto canonical places and persists the result.
//
// Lookups and the final upsert are not atomic: two concurrent resolutions of
// the same unseen place without a provider id may each mint a place.
// Provider-id-bearing candidates converge anyway through DeterministicID.
type Resolver struct {
	repo         placeRepo.PlaceRepository
	matchRadius  float64
	coarseRadius float64
	logger       *zap.Logger
}

// NewResolver creates a Resolver over repo.
func NewResolver(repo placeRepo.PlaceRepository, opts ...Option) *Resolver {
	r := &Resolver{
		repo:         repo,
		matchRadius:  DefaultMatchRadiusMeters,
		coarseRadius: DefaultCoarseRadiusMeters,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MatchRadius returns the general dedup radius in meters.
func (r *Resolver) MatchRadius() float64 { return r.matchRadius }

// SamePlace applies the dedup rule at the configured radius.
func (r *Resolver) SamePlace(a, b models.Candidate) bool {
	return SamePlace(a, b, r.matchRadius)
}

// Resolve returns the canonical id for c, creating the place when unseen.
func (r *Resolver) Resolve(ctx context.Context, c models.Candidate) (string, error) {
	res, err := r.ResolvePlace(ctx, c)
	if err != nil {
		return "", err
	}
	return res.Place.ID, nil
}

// ResolvePlace resolves c at the general dedup radius.
func (r *Resolver) ResolvePlace(ctx context.Context, c models.Candidate) (*Resolution, error) {
	return r.resolve(ctx, c, r.matchRadius)
}

// ResolveCoarse resolves c at the coarse radius, for candidates whose
// coordinates came from geocoding a name rather than from a place provider.
func (r *Resolver) ResolveCoarse(ctx context.Context, c models.Candidate) (*Resolution, error) {
	return r.resolve(ctx, c, r.coarseRadius)
}

// resolve applies, in order: provider id match, canonical id match, name and
// proximity match, then mints a new place. Repository read failures fall
// through to the next rule; write failures are logged and reported via
// Resolution.Persisted.
func (r *Resolver) resolve(ctx context.Context, c models.Candidate, radius float64) (*Resolution, error) {
	if models.NormalizeName(c.Name) == "" {
		return nil, ErrInvalidCandidate
	}
	log := r.logger.With(zap.String("source", c.Source), zap.String("providerId", c.ProviderID), zap.String("name", c.Name))

	_, slotted := models.ProviderIDField(c.Source)
	hasProviderID := c.ProviderID != "" && slotted

	if hasProviderID {
		if p, ok := r.lookup(ctx, log, "provider id", func() (*models.Place, error) {
			return r.repo.FindByProviderID(ctx, c.Source, c.ProviderID)
		}); ok {
			return r.finish(ctx, log, p, c, MatchProviderID), nil
		}
	}

	// Local candidates carry the canonical id; remote ones may already be stored under their derived id.
	canonical := ""
	switch {
	case c.Source == models.SourceLocal && c.ProviderID != "":
		canonical = c.ProviderID
	case hasProviderID:
		canonical = DeterministicID(c.Source, c.ProviderID)
	}
	if canonical != "" {
		if p, ok := r.lookup(ctx, log, "canonical id", func() (*models.Place, error) {
			return r.repo.FindByID(ctx, canonical)
		}); ok {
			return r.finish(ctx, log, p, c, MatchCanonical), nil
		}
	}

	if p := r.nearestByName(ctx, log, c, radius); p != nil {
		return r.finish(ctx, log, p, c, MatchProximity), nil
	}

	id := canonical
	if id == "" {
		id = NewRandomID()
	}
	place := newPlace(id, c)
	res := &Resolution{Place: place, Kind: MatchNew, Persisted: true}
	if err := r.repo.Upsert(ctx, place); err != nil {
		if errors.Is(err, placeRepo.ErrDuplicateProviderID) && hasProviderID {
			// Lost a race: another resolution stored this provider id first.
			if p, ok := r.lookup(ctx, log, "provider id", func() (*models.Place, error) {
				return r.repo.FindByProviderID(ctx, c.Source, c.ProviderID)
			}); ok {
				return &Resolution{Place: p, Kind: MatchProviderID, Persisted: true}, nil
			}
		}
		log.Error("failed to persist new place", zap.String("placeId", id), zap.Error(fmt.Errorf("%w: %v", ErrPersistenceFailed, err)))
		res.Persisted = false
	} else {
		log.Debug("created place", zap.String("placeId", id))
	}
	return res, nil
}

// lookup runs a single-place query. Misses and failures both report ok=false;
// failures are logged.
func (r *Resolver) lookup(ctx context.Context, log *zap.Logger, what string, find func() (*models.Place, error)) (*models.Place, bool) {
	p, err := find()
	if err == nil && p != nil {
		return p, true
	}
	if err != nil && !errors.Is(err, placeRepo.ErrPlaceNotFound) && ctx.Err() == nil {
		log.Warn("place lookup failed", zap.String("by", what), zap.Error(err))
	}
	return nil, false
}

// nearestByName scans places with the same normalized name and returns the
// closest one that matches within radius.
func (r *Resolver) nearestByName(ctx context.Context, log *zap.Logger, c models.Candidate, radius float64) *models.Place {
	places, err := r.repo.FindByExactName(ctx, c.Name)
	if err != nil {
		log.Warn("name lookup failed", zap.Error(err))
		return nil
	}
	var best *models.Place
	var bestDist float64
	for i := range places {
		p := places[i]
		if !placeMatches(c, p, radius) {
			continue
		}
		d := 0.0
		if c.HasCoordinates() {
			d = distance(c, p)
		}
		if best == nil || d < bestDist {
			best, bestDist = &places[i], d
		}
	}
	return best
}

// finish merges c into an existing place and writes it back when anything changed.
func (r *Resolver) finish(ctx context.Context, log *zap.Logger, p *models.Place, c models.Candidate, kind MatchKind) *Resolution {
	res := &Resolution{Place: p, Kind: kind, Persisted: true}
	if !merge(p, c) {
		return res
	}
	if err := r.repo.Upsert(ctx, p); err != nil {
		log.Error("failed to persist place enrichment", zap.String("placeId", p.ID), zap.Error(fmt.Errorf("%w: %v", ErrPersistenceFailed, err)))
		res.Persisted = false
	}
	return res
}
