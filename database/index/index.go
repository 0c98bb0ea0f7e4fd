// Package index is the local full-text place index, backed by SQLite FTS5.
//
// The index is a single-writer resource: every mutation holds the write lock
// and runs in one transaction, so readers see either the state before or the
// state after a mutation, never a partial one.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"spotfinder/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DriverName is the pure Go SQLite driver.
const DriverName = "sqlite"

// Document is one indexed place.
type Document struct {
	PlaceID   string
	Name      string
	Address   string
	City      string
	Latitude  float64
	Longitude float64
}

// DocumentFromPlace builds the indexable view of a canonical place.
func DocumentFromPlace(p models.Place) Document {
	return Document{
		PlaceID:   p.ID,
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}

// Index is the SQLite-backed local place index.
type Index struct {
	db     *sql.DB
	path   string
	logger *zap.Logger

	mu          sync.RWMutex
	lastRefresh time.Time
}

// Open opens (or creates) the index at path. Use ":memory:" for an ephemeral index.
func Open(path string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	// One connection: SQLite has a single writer, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply index schema: %w", err)
	}

	return &Index{db: db, path: path, logger: logger, lastRefresh: time.Now()}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.db.Close()
}

// Search returns up to limit documents matching text, best match first.
func (ix *Index) Search(ctx context.Context, text string, limit int) ([]Document, error) {
	match := sanitizeQuery(text)
	if match == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return []Document{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// FTS5 rank is BM25; lower is better.
	rows, err := ix.db.QueryContext(ctx, `
		SELECT p.place_id, p.name, p.address, p.city, p.latitude, p.longitude
		FROM places_fts
		JOIN places p ON p.id = places_fts.rowid
		WHERE places_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]Document, 0, limit)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.PlaceID, &d.Name, &d.Address, &d.City, &d.Latitude, &d.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Get returns the document stored for placeID.
func (ix *Index) Get(ctx context.Context, placeID string) (*Document, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var d Document
	err := ix.db.QueryRowContext(ctx, `
		SELECT place_id, name, address, city, latitude, longitude
		FROM places WHERE place_id = ?`, placeID).
		Scan(&d.PlaceID, &d.Name, &d.Address, &d.City, &d.Latitude, &d.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", placeID, err)
	}
	return &d, nil
}

// Upsert adds or replaces a single document.
func (ix *Index) Upsert(ctx context.Context, doc Document) error {
	return ix.UpsertMany(ctx, []Document{doc})
}

// UpsertMany adds or replaces documents in one transaction.
func (ix *Index) UpsertMany(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.withTx(ctx, func(tx *sql.Tx) error {
		return ix.insert(ctx, tx, docs)
	})
}

// Replace swaps the whole index content for docs in one transaction.
func (ix *Index) Replace(ctx context.Context, docs []Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM places`); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
		return ix.insert(ctx, tx, docs)
	})
}

func (ix *Index) insert(ctx context.Context, tx *sql.Tx, docs []Document) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO places (place_id, name, address, city, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(place_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			city = excluded.city,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if d.PlaceID == "" || strings.TrimSpace(d.Name) == "" {
			ix.logger.Debug("skipping document without id or name", zap.String("placeId", d.PlaceID))
			continue
		}
		if _, err := stmt.ExecContext(ctx, d.PlaceID, d.Name, d.Address, d.City, d.Latitude, d.Longitude); err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", d.PlaceID, err)
		}
	}
	return nil
}

// Clear removes every document.
func (ix *Index) Clear(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM places`); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
		return nil
	})
}

// Refresh merges FTS segments after bulk writes and marks the index as refreshed.
func (ix *Index) Refresh(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, err := ix.db.ExecContext(ctx, `INSERT INTO places_fts(places_fts) VALUES ('optimize')`); err != nil {
		return fmt.Errorf("failed to optimize index: %w", err)
	}
	ix.lastRefresh = time.Now()
	ix.logger.Info("local index refreshed", zap.String("path", ix.path))
	return nil
}

// Info reports document count and refresh time.
func (ix *Index) Info(ctx context.Context) (models.IndexInfo, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var count int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&count); err != nil {
		return models.IndexInfo{}, fmt.Errorf("failed to count documents: %w", err)
	}
	return models.IndexInfo{
		DocCount:    count,
		LastRefresh: ix.lastRefresh,
		IsEmpty:     count == 0,
	}, nil
}

func (ix *Index) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sanitizeQuery turns free text into an FTS5 expression of quoted prefix terms.
// Operators and punctuation in user input never reach the FTS parser.
func sanitizeQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}
