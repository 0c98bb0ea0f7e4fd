package search

import (
	"context"
	"fmt"

	"spotfinder/database/index"
	"spotfinder/models"
	"spotfinder/services/identity"

	"go.uber.org/zap"
)

// IndexWriter is the write side of the local index used after resolution.
type IndexWriter interface {
	Upsert(ctx context.Context, doc index.Document) error
}

// PlacePersister resolves a remote candidate to its canonical place and makes
// the place searchable locally.
type PlacePersister struct {
	resolver *identity.Resolver
	index    IndexWriter
	logger   *zap.Logger
}

// NewPlacePersister creates a persister; ix may be nil when there is no local index.
func NewPlacePersister(resolver *identity.Resolver, ix IndexWriter, logger *zap.Logger) *PlacePersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacePersister{resolver: resolver, index: ix, logger: logger}
}

// Persist resolves c and indexes the resulting place.
func (p *PlacePersister) Persist(ctx context.Context, c models.Candidate) error {
	res, err := p.resolver.ResolvePlace(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", c.Name, err)
	}
	p.IndexPlace(ctx, *res.Place)
	return nil
}

// IndexPlace writes place into the local index. Failures are logged.
func (p *PlacePersister) IndexPlace(ctx context.Context, place models.Place) {
	if p.index == nil {
		return
	}
	if err := p.index.Upsert(ctx, index.DocumentFromPlace(place)); err != nil {
		p.logger.Error("failed to index place", zap.String("placeId", place.ID),
			zap.Error(fmt.Errorf("%w: %v", identity.ErrPersistenceFailed, err)))
	}
}
