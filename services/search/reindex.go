package search

import (
	"context"
	"fmt"
	"strings"

	"spotfinder/database/index"
	placeRepo "spotfinder/database/repository/place"
	"spotfinder/models"

	"go.uber.org/zap"
)

// IndexMaintainer is the maintenance side of the local index.
type IndexMaintainer interface {
	Replace(ctx context.Context, docs []index.Document) error
	Refresh(ctx context.Context) error
	Info(ctx context.Context) (models.IndexInfo, error)
}

// RebuildIndex replaces the local index content with every named place in
// repo, then refreshes it. It returns the number of documents loaded.
func RebuildIndex(ctx context.Context, repo placeRepo.PlaceRepository, ix IndexMaintainer, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	docs := make([]index.Document, 0, 1024)
	skipped := 0
	err := repo.ForEach(ctx, func(p models.Place) error {
		if strings.TrimSpace(p.Name) == "" {
			skipped++
			return nil
		}
		docs = append(docs, index.DocumentFromPlace(p))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read places: %w", err)
	}

	if err := ix.Replace(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to load index: %w", err)
	}
	if err := ix.Refresh(ctx); err != nil {
		return len(docs), fmt.Errorf("failed to refresh index: %w", err)
	}
	logger.Info("local index rebuilt", zap.Int("documents", len(docs)), zap.Int("skipped", skipped))
	return len(docs), nil
}
