package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Writer creates the destination playlist and appends items under a [RetryPolicy].
type Writer struct {
	dest   services.PlaylistWriter
	policy RetryPolicy
	logger *log.Logger
}

// NewWriter creates a writer for dest.
func NewWriter(dest services.PlaylistWriter, policy RetryPolicy, logger *log.Logger) *Writer {
	return &Writer{dest: dest, policy: policy, logger: logger}
}

// CreatePlaylist creates exactly one playlist. It is never retried.
func (w *Writer) CreatePlaylist(ctx context.Context, title, description string, privacy models.Privacy) (string, error) {
	id, err := w.dest.CreatePlaylist(ctx, title, description, privacy)
	if err != nil {
		return "", err
	}
	return id, nil
}

// AppendItem inserts itemID at the end of the playlist.
//
// Transient conflicts are retried per the policy; running out of attempts returns [shared.ErrWriteExhausted].
// Any other failure returns [shared.ErrUnclassifiedWrite] without a retry.
func (w *Writer) AppendItem(ctx context.Context, playlistID, itemID string) error {
	attempts, err := w.policy.Do(ctx, func(int) error {
		return w.dest.InsertItem(ctx, playlistID, itemID)
	}, func(attempt int, err error, next time.Duration) {
		w.logger.Warn("playlist insert conflict, retrying", "item", itemID, "attempt", attempt, "delay", next, "error", err)
	})

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return err
	case w.policy.retryable(err):
		w.logger.Error("giving up on playlist insert", "item", itemID, "attempts", attempts)
		return fmt.Errorf("%w after %d attempts: %w", shared.ErrWriteExhausted, attempts, err)
	default:
		return fmt.Errorf("%w: %w", shared.ErrUnclassifiedWrite, err)
	}
}
