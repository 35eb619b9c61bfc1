package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// MatchCacheRepository persists [models.MatchCacheEntry] rows keyed by normalized query.
//
// It satisfies tasks.MatchCacher: Lookup counts a hit and Store upserts, so storing the same query twice
// keeps one row pointing at the latest item.
type MatchCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMatchCacheRepository creates a new MatchCacheRepository with the given database connection
func NewMatchCacheRepository(db *sql.DB) *MatchCacheRepository {
	return &MatchCacheRepository{db: db, now: time.Now}
}

// Lookup returns the item id cached for query and records a hit.
func (r *MatchCacheRepository) Lookup(query string) (string, bool, error) {
	entry, err := r.GetByQuery(query)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}

	if _, err := r.db.Exec(`UPDATE match_cache SET hits = hits + 1 WHERE id = ?`, entry.EntryID); err != nil {
		return "", false, fmt.Errorf("failed to record cache hit: %w", err)
	}
	return entry.ItemID, true, nil
}

// Store caches itemID for query, replacing any previous item.
func (r *MatchCacheRepository) Store(query, itemID string) error {
	now := r.now()
	entry := &models.MatchCacheEntry{EntryID: shared.GenerateID(), Query: query, ItemID: itemID, Created: now, Updated: now}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(`
		INSERT INTO match_cache (id, query, item_id, hits, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(query) DO UPDATE SET item_id = excluded.item_id, updated_at = excluded.updated_at
	`, entry.EntryID, entry.Query, entry.ItemID, entry.Created, entry.Updated)
	if err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	return nil
}

// GetByQuery retrieves the entry for a normalized query.
func (r *MatchCacheRepository) GetByQuery(query string) (*models.MatchCacheEntry, error) {
	row := r.db.QueryRow(`
		SELECT id, query, item_id, hits, created_at, updated_at
		FROM match_cache
		WHERE query = ?
	`, query)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "match", query)
	}
	return entry, nil
}

// List returns up to limit entries, most hit first. A limit of zero or less returns every entry.
func (r *MatchCacheRepository) List(limit int) ([]*models.MatchCacheEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT id, query, item_id, hits, created_at, updated_at
		FROM match_cache
		ORDER BY hits DESC, updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	entries := []*models.MatchCacheEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return entries, nil
}

// Delete forgets one query.
func (r *MatchCacheRepository) Delete(query string) error {
	result, err := r.db.Exec(`DELETE FROM match_cache WHERE query = ?`, query)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: match %q", ErrNotFound, query)
	}
	return nil
}

// Forget is [MatchCacheRepository.Delete] without the not-found error.
func (r *MatchCacheRepository) Forget(query string) error {
	if err := r.Delete(query); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Clear removes every entry and returns how many were removed.
func (r *MatchCacheRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM match_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear match cache: %w", err)
	}
	return result.RowsAffected()
}

func scanEntry(s scanner) (*models.MatchCacheEntry, error) {
	var entry models.MatchCacheEntry
	if err := s.Scan(&entry.EntryID, &entry.Query, &entry.ItemID, &entry.Hits, &entry.Created, &entry.Updated); err != nil {
		return nil, err
	}
	return &entry, nil
}
