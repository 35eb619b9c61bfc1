package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// DefaultQuerySuffix biases search toward the audio upload rather than the music video.
const DefaultQuerySuffix = "Official Audio"

// MatchCacher remembers which item a query resolved to.
//
// Implemented by repositories.MatchCacheRepository. Errors are logged and otherwise ignored.
type MatchCacher interface {
	Lookup(query string) (itemID string, ok bool, err error)
	Store(query, itemID string) error
	Forget(query string) error
}

// Matcher picks the top search result for a track.
type Matcher struct {
	searcher services.Searcher
	suffix   string
	cache    MatchCacher
	logger   *log.Logger
}

// NewMatcher creates a matcher. cache may be nil.
func NewMatcher(searcher services.Searcher, suffix string, cache MatchCacher, logger *log.Logger) *Matcher {
	return &Matcher{searcher: searcher, suffix: suffix, cache: cache, logger: logger}
}

// BuildQuery formats "<title> by <artist> <suffix>".
func BuildQuery(track models.TrackDescriptor, suffix string) string {
	if track.PrimaryArtist == "" {
		return shared.NormalizeText(track.Title + " " + suffix)
	}
	return shared.NormalizeText(fmt.Sprintf("%s by %s %s", track.Title, track.PrimaryArtist, suffix))
}

// FindBestMatch issues one top-1 search. Zero results is [models.NoMatch], not an error.
// A failed search returns an error wrapping [shared.ErrSearchFailed].
func (m *Matcher) FindBestMatch(ctx context.Context, track models.TrackDescriptor) (models.MatchResult, error) {
	query := BuildQuery(track, m.suffix)
	key := shared.NormalizeQueryKey(query)

	if m.cache != nil {
		id, ok, err := m.cache.Lookup(key)
		if err != nil {
			m.logger.Warn("match cache lookup failed", "query", query, "error", err)
		} else if ok {
			m.logger.Debug("match cache hit", "query", query, "item", id)
			return models.Matched(id), nil
		}
	}

	ids, err := m.searcher.Search(ctx, query, 1)
	if err != nil {
		if ctx.Err() != nil {
			return models.NoMatch, ctx.Err()
		}
		return models.NoMatch, fmt.Errorf("%w for %q: %w", shared.ErrSearchFailed, query, err)
	}

	if len(ids) == 0 {
		m.logger.Info("no match", "query", query)
		return models.NoMatch, nil
	}

	if m.cache != nil {
		if err := m.cache.Store(key, ids[0]); err != nil {
			m.logger.Warn("match cache store failed", "query", query, "error", err)
		}
	}
	return models.Matched(ids[0]), nil
}

// Forget drops the cached match for track, if any.
func (m *Matcher) Forget(track models.TrackDescriptor) {
	if m.cache == nil {
		return
	}
	query := BuildQuery(track, m.suffix)
	if err := m.cache.Forget(shared.NormalizeQueryKey(query)); err != nil {
		m.logger.Warn("match cache forget failed", "query", query, "error", err)
	}
}
