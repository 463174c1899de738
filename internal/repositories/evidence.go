// package repositories contains the SQLite persistence layer: the evidence
// cache that lets repeated runs reuse provider answers instead of re-querying.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkbecker/genreflow/internal/analysis"
	"github.com/mkbecker/genreflow/internal/shared"
)

// EvidenceRepository implements analysis.Cacher over SQLite.
//
// Bundles are stored as JSON blobs keyed by the normalized (artist, title)
// pair; the row also tracks when and how often the entry was reused.
type EvidenceRepository struct {
	db *sql.DB
}

// NewEvidenceRepository creates an EvidenceRepository with the given
// database connection.
func NewEvidenceRepository(db *sql.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Migrate creates the evidence schema if it does not exist.
func (r *EvidenceRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS evidence (
			key TEXT PRIMARY KEY,
			bundle TEXT NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			accessed_at TIMESTAMP NOT NULL
		)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create evidence table: %w", err)
	}
	return nil
}

// Get retrieves the cached bundle for key, or nil on a miss. Hits bump the
// row's reuse counter.
func (r *EvidenceRepository) Get(ctx context.Context, key string) (*analysis.Bundle, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT bundle FROM evidence WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}

	var bundle analysis.Bundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode cached evidence: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE evidence SET hits = hits + 1, accessed_at = ? WHERE key = ?`,
		time.Now(), key); err != nil {
		return nil, fmt.Errorf("failed to record cache hit: %w", err)
	}

	return &bundle, nil
}

// Put stores or replaces the bundle for key.
func (r *EvidenceRepository) Put(ctx context.Context, key string, bundle *analysis.Bundle) error {
	if bundle == nil {
		return fmt.Errorf("%w: nil evidence bundle", shared.ErrInvalidInput)
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO evidence (key, bundle, hits, created_at, accessed_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT(key) DO UPDATE SET bundle = excluded.bundle, accessed_at = excluded.accessed_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(raw), now, now); err != nil {
		return fmt.Errorf("failed to store evidence: %w", err)
	}

	return nil
}

// CacheStats summarizes the evidence cache contents.
type CacheStats struct {
	Entries   int        `json:"entries"`
	TotalHits int        `json:"totalHits"`
	Oldest    *time.Time `json:"oldest,omitempty"`
	Newest    *time.Time `json:"newest,omitempty"`
}

// Stats reports entry and reuse counts for the cache.
func (r *EvidenceRepository) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	var oldest, newest sql.NullTime

	query := `SELECT COUNT(*), COALESCE(SUM(hits), 0), MIN(created_at), MAX(created_at) FROM evidence`
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Entries, &stats.TotalHits, &oldest, &newest)
	if err != nil {
		return CacheStats{}, fmt.Errorf("failed to query cache stats: %w", err)
	}

	if oldest.Valid {
		stats.Oldest = &oldest.Time
	}
	if newest.Valid {
		stats.Newest = &newest.Time
	}
	return stats, nil
}

// Clear removes every cached entry and reports how many were deleted.
func (r *EvidenceRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM evidence`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear evidence cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return deleted, nil
}
