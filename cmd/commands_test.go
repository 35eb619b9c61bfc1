package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	tu "github.com/desertthunder/sp2yt/internal/testing"
	"github.com/desertthunder/sp2yt/internal/ui"
	"golang.org/x/oauth2"
)

const playlistURL = "https://open.spotify.com/playlist/pl1?si=abc"

var (
	found   = models.TrackDescriptor{Title: "Found", PrimaryArtist: "Band"}
	missing = models.TrackDescriptor{Title: "Missing", PrimaryArtist: "Band"}
)

// fixture is a runner over fake catalogs: "Found" matches v1, "Missing" has no results.
type fixture struct {
	runner *Runner
	output *bytes.Buffer
	config *shared.Config
	src    *tu.FakeSource
	dst    *tu.FakeDestination
	prov   *tu.FakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "sp2yt.db")
	config.Credentials.Spotify.TokenPath = filepath.Join(dir, "spotify_token.json")
	config.Credentials.YouTube.TokenPath = filepath.Join(dir, "youtube_token.json")
	config.Log.File = filepath.Join(dir, "sp2yt.log")
	config.Server.Port = 0

	src := tu.NewFakeSource("pl1", found, missing)
	dst := tu.NewFakeDestination()
	dst.Results[tasks.BuildQuery(found, tasks.DefaultQuerySuffix)] = []string{"v1"}
	prov := &tu.FakeProvider{Src: src, Dst: dst}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     log.New(io.Discard),
		Output:     output,
		Catalogs:   prov,
	})
	return &fixture{runner: runner, output: output, config: config, src: src, dst: dst, prov: prov}
}

func (f *fixture) run(args ...string) error {
	return f.runContext(context.Background(), args...)
}

func (f *fixture) runContext(ctx context.Context, args ...string) error {
	args = append([]string{"sp2yt", "--config", f.runner.configPath}, args...)
	return f.runner.app().Run(ctx, args)
}

func TestTransferRun(t *testing.T) {
	t.Run("Prints Progress And Text Report", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("transfer", "run", "--source", playlistURL, "--title", "Road Trip"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.output.String()
		for _, want := range []string{
			"Transfer complete: 1 added, 1 skipped",
			"Transfer Report",
			"Playlist: Road Trip",
			"Status: completed",
			"Added: 1, Skipped: 1",
			"playlist?list=PL1",
			"1. Band - Found [added] v1",
			"2. Band - Missing [no_match]",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		if items := f.dst.Items("PL1"); len(items) != 1 || items[0] != "v1" {
			t.Errorf("unexpected playlist items %v", items)
		}
	})

	t.Run("JSON Report Has No Progress Lines", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("transfer", "run", "--source", playlistURL, "--format", "json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var report struct {
			Summary  models.TransferSummary `json:"summary"`
			Outcomes []map[string]any       `json:"outcomes"`
		}
		if err := json.Unmarshal(f.output.Bytes(), &report); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, f.output.String())
		}
		if report.Summary.Title != "Spotify Playlist" || report.Summary.Counts.Added != 1 || len(report.Outcomes) != 2 {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("Output File Format Follows Extension", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "reports", "run.csv")
		if err := f.run("transfer", "run", "--source", playlistURL, "-o", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "Index,Title,Artist,Outcome,VideoID,Error") {
			t.Errorf("expected CSV report, got:\n%s", content)
		}
		if !strings.Contains(f.output.String(), "Report written to "+path) {
			t.Errorf("expected confirmation, got:\n%s", f.output.String())
		}
	})

	t.Run("Invalid Format", func(t *testing.T) {
		f := newFixture(t)
		err := f.run("transfer", "run", "--source", playlistURL, "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if f.prov.Calls() != 0 {
			t.Errorf("expected no catalog calls, got %d", f.prov.Calls())
		}
	})

	t.Run("Setup Failure Prints No Report", func(t *testing.T) {
		f := newFixture(t)
		f.prov.SourceErr = shared.ErrNotAuthenticated

		err := f.run("transfer", "run", "--source", playlistURL)
		if !errors.Is(err, shared.ErrSourceRead) || !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected source read error, got %v", err)
		}
		if strings.Contains(f.output.String(), "Transfer Report") {
			t.Errorf("expected no report, got:\n%s", f.output.String())
		}
	})

	t.Run("Aborted Transfer Prints Partial Report", func(t *testing.T) {
		f := newFixture(t)
		f.dst.SearchErr = errors.New("quota exceeded")

		err := f.run("transfer", "run", "--source", playlistURL)
		if !errors.Is(err, shared.ErrSearchFailed) {
			t.Errorf("expected ErrSearchFailed, got %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "Status: failed") || !strings.Contains(out, "quota exceeded") {
			t.Errorf("expected partial report, got:\n%s", out)
		}
	})

	t.Run("Source Is Required", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("transfer", "run"); err == nil {
			t.Error("expected missing flag error")
		}
	})

	t.Run("Match Cache Persists Between Runs", func(t *testing.T) {
		f := newFixture(t)
		f.config.Cache.Enabled = true

		for range 2 {
			if err := f.run("transfer", "run", "--source", playlistURL); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		// the no-match track is searched every run, the matched one only once
		if len(f.dst.Searches) != 3 {
			t.Errorf("expected 3 searches, got %d: %v", len(f.dst.Searches), f.dst.Searches)
		}
		if items := f.dst.Items("PL2"); len(items) != 1 || items[0] != "v1" {
			t.Errorf("expected cached match in second playlist, got %v", items)
		}
	})
}

func TestTransferUI(t *testing.T) {
	f := newFixture(t)

	var got tea.Model
	old := runProgram
	runProgram = func(model tea.Model, output io.Writer) error {
		got = model
		return nil
	}
	t.Cleanup(func() { runProgram = old })

	if err := f.run("transfer", "ui", "--source", playlistURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.(*ui.Model); !ok {
		t.Errorf("expected *ui.Model, got %T", got)
	}
	tu.AssertFileExists(t, f.config.Log.File)
}

func TestCacheCommands(t *testing.T) {
	seed := func(t *testing.T, f *fixture, entries map[string]string) {
		t.Helper()
		db, err := shared.OpenDatabase(f.config.Database)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		repo := repositories.NewMatchCacheRepository(db)
		for query, id := range entries {
			if err := repo.Store(query, id); err != nil {
				t.Fatalf("failed to seed cache: %v", err)
			}
		}
	}

	t.Run("List", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f, map[string]string{"found by band official audio": "v1"})

		if err := f.run("cache", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		for _, want := range []string{"cache is disabled", "Found 1 cached matches", "found by band official audio", "watch?v=v1", "Hits: 0"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("List JSON", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f, map[string]string{"a": "v1", "b": "v2"})

		if err := f.run("cache", "list", "--json", "--limit", "1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var entries []models.MatchCacheEntry
		if err := json.Unmarshal(f.output.Bytes(), &entries); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(entries))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("cache", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "No cached matches.") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})

	t.Run("Delete Normalizes Query", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f, map[string]string{shared.NormalizeQueryKey("Found by Band Official Audio"): "v1"})

		if err := f.run("cache", "delete", "Found  by Band Official Audio"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := f.run("cache", "delete", "Found by Band Official Audio"); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("Delete Requires Query", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("cache", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f, map[string]string{"a": "v1", "b": "v2"})

		if err := f.run("cache", "clear"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Removed 2 cached matches") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("setup", "config"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := shared.LoadConfig(f.runner.configPath); err != nil {
			t.Errorf("written config does not load: %v", err)
		}
		if err := f.run("setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("Database", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("setup", "database"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, f.config.Database.Path)

		f.output.Reset()
		if err := f.run("setup", "database", "--status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Applied migrations: 1") {
			t.Errorf("unexpected status:\n%s", f.output.String())
		}
	})

	t.Run("Database Rollback", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("setup", "database", "--rollback"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "Rolled back") || !strings.Contains(out, "Applied migrations: 0") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		f := newFixture(t)
		store := services.TokenFile{Path: f.config.Credentials.YouTube.TokenPath}
		if err := store.Save(&oauth2.Token{AccessToken: "x"}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "youtube  ✓ Authenticated") || !strings.Contains(out, "spotify  ✗ Not authenticated") {
			t.Errorf("unexpected output:\n%s", out)
		}

		f.output.Reset()
		if err := f.run("auth", "status", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(f.output.String()); got != `{"spotify":false,"youtube":true}` {
			t.Errorf("unexpected JSON %s", got)
		}
	})

	t.Run("Missing Client Credentials", func(t *testing.T) {
		f := newFixture(t)
		f.config.Credentials.Spotify.ClientID = ""

		if err := f.run("auth", "spotify"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Times Out Without Callback", func(t *testing.T) {
		f := newFixture(t)
		stubAuth(t, 50*time.Millisecond, func(string) error { return errors.New("no browser") })

		err := f.run("auth", "youtube")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Please open this URL") {
			t.Errorf("expected manual URL hint, got:\n%s", f.output.String())
		}
		if (services.TokenFile{Path: f.config.Credentials.YouTube.TokenPath}).Exists() {
			t.Error("no token should be saved")
		}
	})

	t.Run("Saves Token From Callback", func(t *testing.T) {
		f := newFixture(t)
		f.config.Server.Port = freePort(t)

		tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil || r.Form.Get("code") != "the-code" {
				t.Errorf("unexpected token request %v %v", r.Form, err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"granted","token_type":"Bearer","refresh_token":"r1","expires_in":3600}`))
		}))
		defer tokens.Close()

		callback := fmt.Sprintf("http://%s/callback", f.config.Server.Addr())
		stubAuth(t, 5*time.Second, func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			go redirect(t, callback+"?code=the-code&state="+u.Query().Get("state"))
			return nil
		})

		oc := &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  callback,
			Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokens.URL},
		}
		store := services.TokenFile{Path: f.config.Credentials.YouTube.TokenPath}

		if err := f.runner.authorize(context.Background(), "YouTube", oc, store); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tok, err := store.Load()
		if err != nil || tok.AccessToken != "granted" || tok.RefreshToken != "r1" {
			t.Errorf("unexpected stored token %v %v", tok, err)
		}
		if !strings.Contains(f.output.String(), "YouTube authorization successful") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})
}

// stubAuth shortens the callback wait and replaces the browser launcher for one test.
func stubAuth(t *testing.T, timeout time.Duration, open func(string) error) {
	t.Helper()
	oldTimeout, oldOpen := authTimeout, shared.OpenBrowser
	authTimeout, shared.OpenBrowser = timeout, open
	t.Cleanup(func() { authTimeout, shared.OpenBrowser = oldTimeout, oldOpen })
}

// redirect plays the browser: it retries until the callback server accepts the request.
func redirect(t *testing.T, target string) {
	for range 50 {
		resp, err := http.Get(target)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("callback returned %d", resp.StatusCode)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("callback server never came up at %s", target)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServe(t *testing.T) {
	f := newFixture(t)
	f.config.Log.File = ""

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.runContext(ctx, "serve", "--host", "127.0.0.1", "--port", "0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(f.output.String(), "Serving on http://127.0.0.1:0") {
		t.Errorf("unexpected output:\n%s", f.output.String())
	}
	if _, err := os.Stat(f.config.Database.Path); err == nil {
		t.Error("database should not be opened while the cache is disabled")
	}
}
