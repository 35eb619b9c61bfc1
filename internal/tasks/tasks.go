package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// ItemErrorPolicy decides what a failed search or unclassified write does to the transfer.
type ItemErrorPolicy string

const (
	AbortOnItemError ItemErrorPolicy = "abort"
	SkipOnItemError  ItemErrorPolicy = "skip"
)

// EngineOpts configures a [TransferEngine].
type EngineOpts struct {
	DefaultTitle string
	Description  string
	Privacy      models.Privacy
	QuerySuffix  string
	Retry        RetryPolicy
	OnItemError  ItemErrorPolicy
	Cache        MatchCacher // optional
	Logger       *log.Logger
}

// DefaultEngineOpts returns the options used when nothing is configured.
func DefaultEngineOpts() EngineOpts {
	return EngineOpts{
		DefaultTitle: "Spotify Playlist",
		Description:  "From Spotify",
		Privacy:      models.PrivacyPrivate,
		QuerySuffix:  DefaultQuerySuffix,
		Retry:        DefaultRetryPolicy(),
		OnItemError:  AbortOnItemError,
	}
}

// EngineOptsFromConfig maps the [transfer] config section onto engine options.
func EngineOptsFromConfig(cfg shared.TransferConfig) EngineOpts {
	opts := DefaultEngineOpts()
	if cfg.DefaultTitle != "" {
		opts.DefaultTitle = cfg.DefaultTitle
	}
	if cfg.Description != "" {
		opts.Description = cfg.Description
	}
	if cfg.Privacy != "" {
		opts.Privacy = models.Privacy(cfg.Privacy)
	}
	if cfg.QuerySuffix != "" {
		opts.QuerySuffix = cfg.QuerySuffix
	}
	if cfg.MaxAttempts > 0 {
		opts.Retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryDelay.Duration > 0 {
		opts.Retry.Delay = cfg.RetryDelay.Duration
	}
	if cfg.OnItemError != "" {
		opts.OnItemError = ItemErrorPolicy(cfg.OnItemError)
	}
	return opts
}

// TransferError is the terminal error of a failed transfer.
//
// errors.Is matches both Kind (one of the shared transfer sentinels) and anything wrapped by Err.
type TransferError struct {
	Phase Phase
	Kind  error
	Err   error
}

func (e *TransferError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Phase, e.Kind)
	case errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Phase, e.Kind, e.Err)
	}
}

func (e *TransferError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Transferer runs transfers. Implemented by [TransferEngine].
type Transferer interface {
	Run(ctx context.Context, req models.TransferRequest, progress chan<- ProgressUpdate) (*models.TransferReport, error)
}

// TransferEngine moves one playlist per Run call. It holds no per-transfer state and is safe for concurrent use
// when its [services.Provider] and cache are.
type TransferEngine struct {
	catalogs services.Provider
	opts     EngineOpts
	logger   *log.Logger
	now      func() time.Time
}

// NewTransferEngine creates an engine that obtains catalog handles from catalogs.
func NewTransferEngine(catalogs services.Provider, opts EngineOpts) *TransferEngine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TransferEngine{catalogs: catalogs, opts: opts, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *TransferEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full transfer and returns its report.
//
// Setup failures (bad locator, unreadable source, playlist not created) return a nil report. A per-track
// failure that aborts the transfer returns the partial report together with the error. Each call creates a new
// destination playlist, even for identical requests.
func (e *TransferEngine) Run(ctx context.Context, req models.TransferRequest, progress chan<- ProgressUpdate) (*models.TransferReport, error) {
	report := &models.TransferReport{
		Summary:  models.TransferSummary{ID: shared.GenerateID(), StartedAt: e.now()},
		Outcomes: []models.TrackOutcome{},
	}
	logger := e.logger.With("transfer", report.Summary.ID)

	e.sendProgress(progress, parsingInputUpdate(req.Locator))
	playlistID, err := ParseLocator(req.Locator)
	if err != nil {
		return nil, e.fail(progress, logger, ParsingInput, shared.ErrInvalidInput, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = e.opts.DefaultTitle
	}
	report.Summary.SourcePlaylistID = playlistID
	report.Summary.Title = title
	logger.Info("transfer started", "source", playlistID, "title", title)

	e.sendProgress(progress, readingSourceUpdate(playlistID))
	source, err := e.catalogs.Source(ctx)
	if err != nil {
		return nil, e.fail(progress, logger, ReadingSource, shared.ErrSourceRead, err)
	}
	tracks, err := source.ReadAllTracks(ctx, playlistID)
	if err != nil {
		return nil, e.fail(progress, logger, ReadingSource, shared.ErrSourceRead, err)
	}
	e.sendProgress(progress, sourceReadUpdate(len(tracks)))

	e.sendProgress(progress, creatingDestinationUpdate(title))
	dest, err := e.catalogs.Destination(ctx)
	if err != nil {
		return nil, e.fail(progress, logger, CreatingDestination, shared.ErrDestinationSetup, err)
	}

	writer := NewWriter(dest, e.opts.Retry, logger)
	destID, err := writer.CreatePlaylist(ctx, title, e.opts.Description, e.opts.Privacy)
	if err != nil {
		return nil, e.fail(progress, logger, CreatingDestination, shared.ErrDestinationSetup, err)
	}
	report.Summary.DestinationPlaylistID = destID
	e.sendProgress(progress, destinationCreatedUpdate(destID, title))

	matcher := NewMatcher(dest, e.opts.QuerySuffix, e.opts.Cache, logger)
	total := len(tracks)
	for i, track := range tracks {
		e.sendProgress(progress, matchingUpdate(i+1, total, track))

		outcome, err := e.transferTrack(ctx, logger, matcher, writer, destID, i, track)
		if err != nil {
			if ctx.Err() != nil || e.opts.OnItemError != SkipOnItemError {
				report.Outcomes = append(report.Outcomes, outcome)
				report.Summary.Status = models.StatusFailed
				report.Summary.FinishedAt = e.now()
				return report, e.fail(progress, logger, MatchingAndWriting, itemErrorKind(ctx, err), err)
			}
			logger.Warn("skipping track after error", "index", i, "track", track, "error", err)
		}

		report.Record(outcome)
		e.sendProgress(progress, trackOutcomeUpdate(i+1, total, outcome))
	}

	report.Summary.Status = models.StatusCompleted
	report.Summary.FinishedAt = e.now()
	logger.Info("transfer completed",
		"playlist", destID,
		"added", report.Summary.Counts.Added,
		"skipped", report.Summary.Counts.Skipped,
		"elapsed", report.Summary.Duration())
	e.sendProgress(progress, completedUpdate(report.Summary))
	return report, nil
}

// transferTrack matches and writes one track. The returned error is non-nil only for failures the
// [ItemErrorPolicy] governs; no-match and exhausted retries are plain skipped outcomes.
func (e *TransferEngine) transferTrack(ctx context.Context, logger *log.Logger, matcher *Matcher, writer *Writer, playlistID string, index int, track models.TrackDescriptor) (models.TrackOutcome, error) {
	outcome := models.TrackOutcome{Index: index, Track: track}

	match, err := matcher.FindBestMatch(ctx, track)
	if err != nil {
		outcome.Kind, outcome.Err = models.OutcomeFailed, err
		return outcome, err
	}
	if !match.IsMatch() {
		outcome.Kind = models.OutcomeNoMatch
		return outcome, nil
	}
	outcome.ItemID = match.ItemID

	err = writer.AppendItem(ctx, playlistID, match.ItemID)
	switch {
	case err == nil:
		outcome.Kind = models.OutcomeAdded
		logger.Debug("added track", "index", index, "track", track, "item", match.ItemID)
		return outcome, nil
	case errors.Is(err, shared.ErrWriteExhausted):
		logger.Warn("skipping track after retries", "index", index, "track", track, "item", match.ItemID)
		outcome.Kind, outcome.Err = models.OutcomeWriteExhausted, err
		return outcome, nil
	default:
		// The item id is unusable, so a cached match must not be replayed on the next run.
		matcher.Forget(track)
		outcome.Kind, outcome.Err = models.OutcomeFailed, err
		return outcome, err
	}
}

func itemErrorKind(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, shared.ErrSearchFailed):
		return shared.ErrSearchFailed
	case errors.Is(err, shared.ErrUnclassifiedWrite):
		return shared.ErrUnclassifiedWrite
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return shared.ErrUnclassifiedWrite
	}
}

func (e *TransferEngine) fail(progress chan<- ProgressUpdate, logger *log.Logger, phase Phase, kind, err error) error {
	terr := &TransferError{Phase: phase, Kind: kind, Err: err}
	logger.Error("transfer failed", "phase", phase, "error", err)
	e.sendProgress(progress, failedUpdate(terr))
	return terr
}
