package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	tu "github.com/desertthunder/sp2yt/internal/testing"
)

const testLocator = "https://open.spotify.com/playlist/pl1?si=abc"

var (
	trackA = models.TrackDescriptor{Title: "Song A", PrimaryArtist: "Artist A"}
	trackB = models.TrackDescriptor{Title: "Song B", PrimaryArtist: "Artist B"}
	trackC = models.TrackDescriptor{Title: "Song C", PrimaryArtist: "Artist C"}
)

type fixture struct {
	src      *tu.FakeSource
	dst      *tu.FakeDestination
	provider *tu.FakeProvider
	timer    *tu.FakeTimer
	opts     EngineOpts
}

// newFixture seeds pl1 with tracks A, B and C where only A and C have search results.
func newFixture() *fixture {
	src := tu.NewFakeSource("pl1", trackA, trackB, trackC)
	dst := tu.NewFakeDestination()
	dst.Results[BuildQuery(trackA, DefaultQuerySuffix)] = []string{"vA"}
	dst.Results[BuildQuery(trackC, DefaultQuerySuffix)] = []string{"vC", "vC2"}

	timer := &tu.FakeTimer{}
	opts := DefaultEngineOpts()
	opts.Retry.Timer = timer
	opts.Logger = log.New(io.Discard)

	return &fixture{
		src:      src,
		dst:      dst,
		provider: &tu.FakeProvider{Src: src, Dst: dst},
		timer:    timer,
		opts:     opts,
	}
}

func (f *fixture) run(t *testing.T, req models.TransferRequest) (*models.TransferReport, []ProgressUpdate, error) {
	t.Helper()
	progress := make(chan ProgressUpdate, 100)
	report, err := NewTransferEngine(f.provider, f.opts).Run(context.Background(), req, progress)
	close(progress)

	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	return report, updates, err
}

func asTransferError(t *testing.T, err error) *TransferError {
	t.Helper()
	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransferError, got %T: %v", err, err)
	}
	return terr
}

func TestTransferEngine(t *testing.T) {
	t.Run("Transfers Matched Tracks In Order", func(t *testing.T) {
		f := newFixture()
		report, _, err := f.run(t, models.TransferRequest{Locator: testLocator, Title: "Road Trip"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s := report.Summary
		if s.Status != models.StatusCompleted {
			t.Errorf("expected completed, got %s", s.Status)
		}
		if s.Counts.Added != 2 || s.Counts.Skipped != 1 {
			t.Errorf("expected added=2 skipped=1, got %+v", s.Counts)
		}
		if s.SourcePlaylistID != "pl1" || s.Title != "Road Trip" {
			t.Errorf("unexpected summary %+v", s)
		}

		if len(f.dst.Created) != 1 {
			t.Fatalf("expected one playlist, got %d", len(f.dst.Created))
		}
		created := f.dst.Created[0]
		if created.Title != "Road Trip" || created.Description != "From Spotify" || created.Privacy != models.PrivacyPrivate {
			t.Errorf("unexpected playlist %+v", created)
		}
		if s.DestinationPlaylistID != created.ID {
			t.Errorf("expected destination id %s, got %s", created.ID, s.DestinationPlaylistID)
		}

		items := f.dst.Items(created.ID)
		if len(items) != 2 || items[0] != "vA" || items[1] != "vC" {
			t.Errorf("expected [vA vC], got %v", items)
		}
		if len(f.dst.Searches) != 3 {
			t.Errorf("expected one search per track, got %v", f.dst.Searches)
		}

		kinds := []models.OutcomeKind{models.OutcomeAdded, models.OutcomeNoMatch, models.OutcomeAdded}
		if len(report.Outcomes) != len(kinds) {
			t.Fatalf("expected %d outcomes, got %d", len(kinds), len(report.Outcomes))
		}
		for i, o := range report.Outcomes {
			if o.Index != i || o.Kind != kinds[i] {
				t.Errorf("outcome %d: expected %s, got %+v", i, kinds[i], o)
			}
		}
		if report.Summary.Counts.Total() != 3 {
			t.Errorf("counts must cover every track, got %+v", report.Summary.Counts)
		}
	})

	t.Run("Empty Source Playlist", func(t *testing.T) {
		f := newFixture()
		f.src.Tracks["pl1"] = nil

		report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Summary.Counts != (models.TransferCounts{}) {
			t.Errorf("expected zero counts, got %+v", report.Summary.Counts)
		}
		if len(f.dst.Created) != 1 {
			t.Errorf("an empty playlist should still be created, got %d", len(f.dst.Created))
		}
	})

	t.Run("Default Title", func(t *testing.T) {
		for _, title := range []string{"", "   "} {
			f := newFixture()
			report, _, err := f.run(t, models.TransferRequest{Locator: testLocator, Title: title})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.dst.Created[0].Title != "Spotify Playlist" || report.Summary.Title != "Spotify Playlist" {
				t.Errorf("expected default title for %q, got %q", title, f.dst.Created[0].Title)
			}
		}
	})

	t.Run("Each Run Creates A New Playlist", func(t *testing.T) {
		f := newFixture()
		engine := NewTransferEngine(f.provider, f.opts)
		req := models.TransferRequest{Locator: testLocator, Title: "Same"}

		first, err := engine.Run(context.Background(), req, nil)
		if err != nil {
			t.Fatalf("first run: %v", err)
		}
		second, err := engine.Run(context.Background(), req, nil)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if len(f.dst.Created) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(f.dst.Created))
		}
		if first.Summary.DestinationPlaylistID == second.Summary.DestinationPlaylistID {
			t.Error("expected distinct destination playlists")
		}
		if first.Summary.ID == second.Summary.ID {
			t.Error("expected distinct transfer ids")
		}
		for _, pl := range f.dst.Created {
			if items := f.dst.Items(pl.ID); len(items) != 2 {
				t.Errorf("playlist %s: expected 2 items, got %v", pl.ID, items)
			}
		}
	})

	t.Run("Invalid Locator Makes No Calls", func(t *testing.T) {
		for _, locator := range []string{"", "https://example.com/nothing"} {
			f := newFixture()
			report, updates, err := f.run(t, models.TransferRequest{Locator: locator})

			if report != nil {
				t.Errorf("expected nil report, got %+v", report)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if terr := asTransferError(t, err); terr.Phase != ParsingInput {
				t.Errorf("expected parsing phase, got %s", terr.Phase)
			}
			if f.provider.Calls() != 0 || f.src.Reads != 0 || len(f.dst.Created) != 0 {
				t.Errorf("expected no catalog calls, got provider=%d reads=%d created=%d",
					f.provider.Calls(), f.src.Reads, len(f.dst.Created))
			}
			if last := updates[len(updates)-1]; last.Phase != Failed {
				t.Errorf("expected failed update last, got %s", last.Phase)
			}
		}
	})

	t.Run("Setup Failures", func(t *testing.T) {
		tc := []struct {
			name    string
			arrange func(f *fixture)
			phase   Phase
			kind    error
			cause   error
			created int
		}{
			{
				name:    "source credentials",
				arrange: func(f *fixture) { f.provider.SourceErr = shared.ErrNotAuthenticated },
				phase:   ReadingSource,
				kind:    shared.ErrSourceRead,
				cause:   shared.ErrNotAuthenticated,
			},
			{
				name:    "source read",
				arrange: func(f *fixture) { f.src.Err = shared.ErrPlaylistNotFound },
				phase:   ReadingSource,
				kind:    shared.ErrSourceRead,
				cause:   shared.ErrPlaylistNotFound,
			},
			{
				name:    "destination credentials",
				arrange: func(f *fixture) { f.provider.DestinationErr = shared.ErrRefreshFailed },
				phase:   CreatingDestination,
				kind:    shared.ErrDestinationSetup,
				cause:   shared.ErrRefreshFailed,
			},
			{
				name:    "create playlist",
				arrange: func(f *fixture) { f.dst.CreateErr = shared.ErrAPIRequest },
				phase:   CreatingDestination,
				kind:    shared.ErrDestinationSetup,
				cause:   shared.ErrAPIRequest,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				tt.arrange(f)

				report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
				if report != nil {
					t.Errorf("expected nil report, got %+v", report)
				}
				if !errors.Is(err, tt.kind) || !errors.Is(err, tt.cause) {
					t.Errorf("expected %v and %v, got %v", tt.kind, tt.cause, err)
				}
				if terr := asTransferError(t, err); terr.Phase != tt.phase {
					t.Errorf("expected phase %s, got %s", tt.phase, terr.Phase)
				}
				if len(f.dst.Searches) != 0 {
					t.Errorf("expected no searches, got %v", f.dst.Searches)
				}
			})
		}
	})

	t.Run("Exhausted Retries Skip The Track", func(t *testing.T) {
		f := newFixture()
		f.dst.InsertErrs = []error{errConflict, errConflict, errConflict}

		report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Summary.Counts.Added != 1 || report.Summary.Counts.Skipped != 2 {
			t.Errorf("expected added=1 skipped=2, got %+v", report.Summary.Counts)
		}
		if o := report.Outcomes[0]; o.Kind != models.OutcomeWriteExhausted || !errors.Is(o.Err, shared.ErrWriteExhausted) {
			t.Errorf("expected write_exhausted for first track, got %+v", o)
		}
		if items := f.dst.Items(report.Summary.DestinationPlaylistID); len(items) != 1 || items[0] != "vC" {
			t.Errorf("expected [vC], got %v", items)
		}
		if len(f.timer.Waits) != 2 {
			t.Errorf("expected two retry waits, got %v", f.timer.Waits)
		}
	})

	t.Run("Item Errors", func(t *testing.T) {
		t.Run("Abort On Search Failure", func(t *testing.T) {
			f := newFixture()
			f.dst.SearchErr = shared.ErrServiceUnavailable

			report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
			if !errors.Is(err, shared.ErrSearchFailed) || !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrSearchFailed, got %v", err)
			}
			if terr := asTransferError(t, err); terr.Phase != MatchingAndWriting {
				t.Errorf("expected matching phase, got %s", terr.Phase)
			}
			if report == nil {
				t.Fatal("expected partial report")
			}
			if report.Summary.Status != models.StatusFailed || report.Summary.DestinationPlaylistID == "" {
				t.Errorf("unexpected summary %+v", report.Summary)
			}
			if len(f.dst.Searches) != 1 {
				t.Errorf("expected the transfer to stop after one search, got %v", f.dst.Searches)
			}
		})

		t.Run("Abort On Unclassified Write", func(t *testing.T) {
			f := newFixture()
			f.dst.FailItems["vC"] = shared.ErrAPIRequest

			report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
			if !errors.Is(err, shared.ErrUnclassifiedWrite) {
				t.Errorf("expected ErrUnclassifiedWrite, got %v", err)
			}
			if report.Summary.Counts.Added != 1 || report.Summary.Counts.Skipped != 1 {
				t.Errorf("expected counts before the failure, got %+v", report.Summary.Counts)
			}
			if n := len(report.Outcomes); n != 3 || report.Outcomes[2].Kind != models.OutcomeFailed {
				t.Errorf("expected the failed outcome last, got %+v", report.Outcomes)
			}
		})

		t.Run("Skip Policy Continues", func(t *testing.T) {
			f := newFixture()
			f.opts.OnItemError = SkipOnItemError
			f.dst.FailItems["vA"] = shared.ErrAPIRequest

			report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.Summary.Status != models.StatusCompleted {
				t.Errorf("expected completed, got %s", report.Summary.Status)
			}
			if report.Summary.Counts.Added != 1 || report.Summary.Counts.Skipped != 2 {
				t.Errorf("expected added=1 skipped=2, got %+v", report.Summary.Counts)
			}
			if o := report.Outcomes[0]; o.Kind != models.OutcomeFailed || o.Err == nil {
				t.Errorf("expected failed outcome with error, got %+v", o)
			}
		})

		t.Run("Cancellation Always Aborts", func(t *testing.T) {
			f := newFixture()
			f.opts.OnItemError = SkipOnItemError
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			report, err := NewTransferEngine(f.provider, f.opts).Run(ctx, models.TransferRequest{Locator: testLocator}, nil)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if report == nil || report.Summary.Status != models.StatusFailed {
				t.Errorf("expected failed partial report, got %+v", report)
			}
		})
	})

	t.Run("Progress Updates", func(t *testing.T) {
		f := newFixture()
		_, updates, err := f.run(t, models.TransferRequest{Locator: testLocator})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if updates[0].Phase != ParsingInput {
			t.Errorf("expected parsing first, got %s", updates[0].Phase)
		}
		last := updates[len(updates)-1]
		if last.Phase != Completed {
			t.Fatalf("expected completed last, got %s", last.Phase)
		}
		if summary, ok := last.Data.(models.TransferSummary); !ok || summary.Counts.Added != 2 {
			t.Errorf("expected summary data, got %#v", last.Data)
		}

		prev := ParsingInput
		outcomes := 0
		for _, u := range updates {
			if u.Phase < prev {
				t.Errorf("phase went backwards: %s after %s", u.Phase, prev)
			}
			prev = u.Phase
			if _, ok := u.Data.(models.TrackOutcome); ok {
				outcomes++
				if u.Total != 3 {
					t.Errorf("expected total 3, got %d", u.Total)
				}
			}
		}
		if outcomes != 3 {
			t.Errorf("expected 3 outcome updates, got %d", outcomes)
		}
	})

	t.Run("Full Channel Does Not Block", func(t *testing.T) {
		f := newFixture()
		progress := make(chan ProgressUpdate)

		done := make(chan error, 1)
		go func() {
			_, err := NewTransferEngine(f.provider, f.opts).Run(context.Background(), models.TransferRequest{Locator: testLocator}, progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("transfer blocked on an unread progress channel")
		}
	})

	t.Run("Match Cache", func(t *testing.T) {
		f := newFixture()
		cache := tu.NewFakeCache()
		f.opts.Cache = cache
		engine := NewTransferEngine(f.provider, f.opts)

		for range 2 {
			if _, err := engine.Run(context.Background(), models.TransferRequest{Locator: testLocator}, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		// A and C are cached after the first run; B is searched both times.
		if len(f.dst.Searches) != 4 {
			t.Errorf("expected 4 searches, got %v", f.dst.Searches)
		}
	})

	t.Run("Failed Append Drops Cached Match", func(t *testing.T) {
		f := newFixture()
		cache := tu.NewFakeCache()
		keyC := shared.NormalizeQueryKey(BuildQuery(trackC, DefaultQuerySuffix))
		cache.Entries[keyC] = "gone"
		f.dst.FailItems["gone"] = shared.ErrAPIRequest
		f.opts.Cache = cache

		if _, _, err := f.run(t, models.TransferRequest{Locator: testLocator}); !errors.Is(err, shared.ErrUnclassifiedWrite) {
			t.Fatalf("expected ErrUnclassifiedWrite, got %v", err)
		}
		if _, ok := cache.Entries[keyC]; ok {
			t.Errorf("expected stale entry to be dropped, got %v", cache.Entries)
		}

		report, _, err := f.run(t, models.TransferRequest{Locator: testLocator})
		if err != nil {
			t.Fatalf("expected second run to search again and succeed, got %v", err)
		}
		if got := report.Outcomes[2]; got.Kind != models.OutcomeAdded || got.ItemID != "vC" {
			t.Errorf("expected C added from a fresh search, got %+v", got)
		}
		if cache.Entries[keyC] != "vC" {
			t.Errorf("expected fresh match cached, got %v", cache.Entries)
		}
	})
}

func TestEngineOptsFromConfig(t *testing.T) {
	t.Run("Maps Fields", func(t *testing.T) {
		opts := EngineOptsFromConfig(shared.TransferConfig{
			DefaultTitle: "Imported",
			Description:  "desc",
			Privacy:      "unlisted",
			QuerySuffix:  "Lyrics",
			MaxAttempts:  5,
			RetryDelay:   shared.Duration{Duration: time.Second},
			OnItemError:  "skip",
		})

		if opts.DefaultTitle != "Imported" || opts.Description != "desc" || opts.Privacy != models.PrivacyUnlisted {
			t.Errorf("unexpected playlist options %+v", opts)
		}
		if opts.QuerySuffix != "Lyrics" || opts.OnItemError != SkipOnItemError {
			t.Errorf("unexpected matching options %+v", opts)
		}
		if opts.Retry.MaxAttempts != 5 || opts.Retry.Delay != time.Second || opts.Retry.Retryable == nil {
			t.Errorf("unexpected retry policy %+v", opts.Retry)
		}
	})

	t.Run("Keeps Defaults For Empty Fields", func(t *testing.T) {
		opts := EngineOptsFromConfig(shared.TransferConfig{})
		if opts.DefaultTitle != "Spotify Playlist" || opts.Privacy != models.PrivacyPrivate || opts.OnItemError != AbortOnItemError {
			t.Errorf("unexpected defaults %+v", opts)
		}
		if opts.Retry.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", opts.Retry.MaxAttempts)
		}
		if opts.Retry.Delay != 5*time.Second {
			t.Errorf("expected 5s retry delay, got %v", opts.Retry.Delay)
		}
		if opts.QuerySuffix != DefaultQuerySuffix {
			t.Errorf("expected default suffix, got %q", opts.QuerySuffix)
		}
		if q := BuildQuery(trackA, opts.QuerySuffix); q != "Song A by Artist A Official Audio" {
			t.Errorf("unexpected query %q", q)
		}
	})
}

func TestTransferError(t *testing.T) {
	err := &TransferError{Phase: ReadingSource, Kind: shared.ErrSourceRead, Err: shared.ErrPlaylistNotFound}
	if got := err.Error(); got != "reading_source: source read failed: playlist not found" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, shared.ErrSourceRead) || !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Error("expected both kind and cause to match")
	}
}
