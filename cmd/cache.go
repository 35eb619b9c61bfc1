package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// withCache opens the configured database and hands its match cache to fn.
func (r *Runner) withCache(fn func(*repositories.MatchCacheRepository) error) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(repositories.NewMatchCacheRepository(db))
}

// CacheList prints cached matches, most used first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	return r.withCache(func(repo *repositories.MatchCacheRepository) error {
		entries, err := repo.List(cmd.Int("limit"))
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(entries, cmd.Bool("pretty"))
		}

		if !r.config.Cache.Enabled {
			r.writePlain("Note: the cache is disabled; set cache.enabled = true to use it during transfers.\n\n")
		}
		if len(entries) == 0 {
			return r.writePlain("No cached matches.\n")
		}

		r.writePlain("Found %d cached matches:\n\n", len(entries))
		for i, e := range entries {
			r.writePlain("%d. %s\n", i+1, e.Query)
			r.writePlain("   Video: %s\n", formatter.VideoURL(e.ItemID))
			r.writePlain("   Hits: %d, Updated: %s\n", e.Hits, e.Updated.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// CacheClear removes every cached match.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	return r.withCache(func(repo *repositories.MatchCacheRepository) error {
		n, err := repo.Clear()
		if err != nil {
			return err
		}
		r.logger.Info("match cache cleared", "entries", n)
		return r.writePlain("✓ Removed %d cached matches\n", n)
	})
}

// CacheDelete forgets the match for one query. The query is normalized the same way transfers store it.
func (r *Runner) CacheDelete(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	return r.withCache(func(repo *repositories.MatchCacheRepository) error {
		if err := repo.Delete(shared.NormalizeQueryKey(query)); err != nil {
			return err
		}
		return r.writePlain("✓ Forgot %q\n", query)
	})
}
