package search

import (
	"context"
	"errors"

	"spotfinder/models"
	"spotfinder/services/providers"

	"go.uber.org/zap"
)

// DefaultFloor is the local result count at which remote providers are skipped.
const DefaultFloor = 5

// SamePlaceFunc decides whether two candidates describe one physical place.
type SamePlaceFunc func(a, b models.Candidate) bool

// Cascade queries the local provider, then remote providers in priority order,
// until enough distinct results are collected.
type Cascade struct {
	local      providers.Provider
	remotes    []providers.Provider
	floor      int
	samePlace  SamePlaceFunc
	dispatcher Dispatcher
	logger     *zap.Logger
}

// CascadeOption configures a Cascade.
type CascadeOption func(*Cascade)

// WithFloor overrides DefaultFloor.
func WithFloor(n int) CascadeOption {
	return func(c *Cascade) {
		if n > 0 {
			c.floor = n
		}
	}
}

// WithDispatcher sets where remote candidates are sent for persistence.
func WithDispatcher(d Dispatcher) CascadeOption {
	return func(c *Cascade) { c.dispatcher = d }
}

// WithCascadeLogger sets the logger.
func WithCascadeLogger(l *zap.Logger) CascadeOption {
	return func(c *Cascade) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCascade creates a cascade. remotes are queried in the given order.
func NewCascade(local providers.Provider, remotes []providers.Provider, same SamePlaceFunc, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		local:     local,
		remotes:   remotes,
		floor:     DefaultFloor,
		samePlace: same,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search never fails because of a provider; a provider that errors contributes nothing.
func (c *Cascade) Search(ctx context.Context, query string, limit int, loc *models.LatLng) []models.Candidate {
	if limit <= 0 {
		return []models.Candidate{}
	}

	results := make([]models.Candidate, 0, limit)
	if c.local != nil {
		results = append(results, truncate(c.call(ctx, c.local, query, limit, loc), limit)...)
	}
	if len(results) >= c.floor {
		return results
	}

	for _, p := range c.remotes {
		need := limit - len(results)
		if need <= 0 || len(results) >= c.floor {
			break
		}
		batch := c.call(ctx, p, query, need, loc)
		c.persist(ctx, batch)
		results = c.merge(results, batch, limit)
	}
	return results
}

// call runs one provider search, mapping every failure to an empty result.
func (c *Cascade) call(ctx context.Context, p providers.Provider, query string, limit int, loc *models.LatLng) (out []models.Candidate) {
	log := c.logger.With(zap.String("provider", p.Name()), zap.String("query", query))
	defer func() {
		if r := recover(); r != nil {
			log.Error("provider panicked", zap.Any("panic", r))
			out = nil
		}
	}()

	candidates, err := p.Search(ctx, query, limit, loc)
	switch {
	case err == nil:
		return candidates
	case errors.Is(err, providers.ErrProviderUnavailable):
		log.Debug("provider not configured, skipping")
	default:
		log.Warn("provider search failed", zap.Error(err))
	}
	return nil
}

// merge appends batch entries not already represented, keeping first-seen order.
func (c *Cascade) merge(results, batch []models.Candidate, limit int) []models.Candidate {
	for _, b := range batch {
		if len(results) >= limit {
			break
		}
		dup := false
		for _, r := range results {
			if c.samePlace(r, b) {
				dup = true
				break
			}
		}
		if !dup {
			results = append(results, b)
		}
	}
	return results
}

func (c *Cascade) persist(ctx context.Context, batch []models.Candidate) {
	if c.dispatcher == nil {
		return
	}
	for _, cand := range batch {
		c.dispatcher.Dispatch(ctx, cand)
	}
}

// Providers lists the provider names in query order.
func (c *Cascade) Providers() []string {
	names := make([]string, 0, len(c.remotes)+1)
	if c.local != nil {
		names = append(names, c.local.Name())
	}
	for _, p := range c.remotes {
		names = append(names, p.Name())
	}
	return names
}
