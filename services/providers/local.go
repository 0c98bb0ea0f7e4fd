package providers

import (
	"context"
	"errors"
	"fmt"

	"spotfinder/database/index"
	"spotfinder/models"
)

// LocalIndex is the part of the local full-text index the provider reads.
type LocalIndex interface {
	Search(ctx context.Context, text string, limit int) ([]index.Document, error)
	Get(ctx context.Context, placeID string) (*index.Document, error)
}

// Local serves candidates from the local full-text index. Candidates carry the
// canonical place id as their provider id.
type Local struct {
	index LocalIndex
}

// NewLocal creates the local index provider.
func NewLocal(ix LocalIndex) *Local {
	return &Local{index: ix}
}

func (l *Local) Name() string { return models.SourceLocal }

func (l *Local) Search(ctx context.Context, query string, limit int, _ *models.LatLng) ([]models.Candidate, error) {
	if l.index == nil {
		return nil, ErrProviderUnavailable
	}
	docs, err := l.index.Search(ctx, query, limit)
	if errors.Is(err, index.ErrEmptyQuery) {
		return []models.Candidate{}, nil
	}
	if err != nil {
		return nil, callError(models.SourceLocal, "search", 0, err)
	}
	candidates := make([]models.Candidate, 0, len(docs))
	for _, d := range docs {
		candidates = append(candidates, documentToCandidate(d))
	}
	return candidates, nil
}

func (l *Local) Details(ctx context.Context, id string) (*models.Candidate, error) {
	if l.index == nil {
		return nil, ErrProviderUnavailable
	}
	doc, err := l.index.Get(ctx, id)
	if errors.Is(err, index.ErrDocumentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, callError(models.SourceLocal, "details", 0, fmt.Errorf("get %s: %w", id, err))
	}
	c := documentToCandidate(*doc)
	return &c, nil
}

func documentToCandidate(d index.Document) models.Candidate {
	return models.Candidate{
		Name:       d.Name,
		Address:    d.Address,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		Source:     models.SourceLocal,
		ProviderID: d.PlaceID,
		Enrichment: models.Enrichment{City: d.City},
	}
}
