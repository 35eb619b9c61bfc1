// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
)

// FakeSource is an in-memory [services.SourceCatalog].
type FakeSource struct {
	mu     sync.Mutex
	Tracks map[models.PlaylistIdentifier][]models.TrackDescriptor
	Err    error
	Reads  int
}

func NewFakeSource(id models.PlaylistIdentifier, tracks ...models.TrackDescriptor) *FakeSource {
	return &FakeSource{Tracks: map[models.PlaylistIdentifier][]models.TrackDescriptor{id: tracks}}
}

func (f *FakeSource) Name() string { return "fake-source" }

func (f *FakeSource) ReadAllTracks(ctx context.Context, id models.PlaylistIdentifier) ([]models.TrackDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.Err != nil {
		return nil, f.Err
	}
	tracks, ok := f.Tracks[id]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", id)
	}
	return append([]models.TrackDescriptor{}, tracks...), nil
}

// CreatedPlaylist records a CreatePlaylist call.
type CreatedPlaylist struct {
	ID          string
	Title       string
	Description string
	Privacy     models.Privacy
}

// FakeDestination is an in-memory [services.DestinationCatalog].
//
// Results maps a query to its ranked ids. InsertErrs are consumed one per InsertItem call before inserts start
// succeeding (a nil entry succeeds); FailItems always fail for the given item id.
type FakeDestination struct {
	mu         sync.Mutex
	Results    map[string][]string
	SearchErr  error
	CreateErr  error
	InsertErrs []error
	FailItems  map[string]error

	Searches       []string
	Created        []CreatedPlaylist
	InsertAttempts int
	items          map[string][]string
}

func NewFakeDestination() *FakeDestination {
	return &FakeDestination{
		Results:   map[string][]string{},
		FailItems: map[string]error{},
		items:     map[string][]string{},
	}
}

func (f *FakeDestination) Name() string { return "fake-destination" }

func (f *FakeDestination) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	ids := f.Results[query]
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return append([]string{}, ids...), nil
}

func (f *FakeDestination) CreatePlaylist(ctx context.Context, title, description string, privacy models.Privacy) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	id := fmt.Sprintf("PL%d", len(f.Created)+1)
	f.Created = append(f.Created, CreatedPlaylist{ID: id, Title: title, Description: description, Privacy: privacy})
	f.items[id] = []string{}
	return id, nil
}

func (f *FakeDestination) InsertItem(ctx context.Context, playlistID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertAttempts++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.FailItems[itemID]; err != nil {
		return err
	}
	if len(f.InsertErrs) > 0 {
		err := f.InsertErrs[0]
		f.InsertErrs = f.InsertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.items[playlistID]; !ok {
		return fmt.Errorf("playlist %s not found", playlistID)
	}
	f.items[playlistID] = append(f.items[playlistID], itemID)
	return nil
}

// Items returns the items of a created playlist in insertion order.
func (f *FakeDestination) Items(playlistID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.items[playlistID]...)
}

// FakeProvider is a [services.Provider] over fixed fakes that counts handle requests.
type FakeProvider struct {
	mu               sync.Mutex
	Src              *FakeSource
	Dst              *FakeDestination
	SourceErr        error
	DestinationErr   error
	SourceCalls      int
	DestinationCalls int
}

func (p *FakeProvider) Source(ctx context.Context) (services.SourceCatalog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SourceCalls++
	if p.SourceErr != nil {
		return nil, p.SourceErr
	}
	return p.Src, nil
}

func (p *FakeProvider) Destination(ctx context.Context) (services.DestinationCatalog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DestinationCalls++
	if p.DestinationErr != nil {
		return nil, p.DestinationErr
	}
	return p.Dst, nil
}

// Calls returns the total number of handle requests.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.SourceCalls + p.DestinationCalls
}

// FakeTimer satisfies backoff.Timer, fires immediately and records every requested wait.
type FakeTimer struct {
	mu    sync.Mutex
	Waits []time.Duration
	c     chan time.Time
}

func (f *FakeTimer) Start(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Waits = append(f.Waits, d)
	f.c = make(chan time.Time, 1)
	f.c <- time.Time{}.Add(d)
}

func (f *FakeTimer) Stop() {}

func (f *FakeTimer) C() <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c
}

// FakeCache is an in-memory match cache.
type FakeCache struct {
	mu        sync.Mutex
	Entries   map[string]string
	LookupErr error
	StoreErr  error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{Entries: map[string]string{}}
}

func (c *FakeCache) Lookup(query string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LookupErr != nil {
		return "", false, c.LookupErr
	}
	id, ok := c.Entries[query]
	return id, ok, nil
}

func (c *FakeCache) Store(query, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StoreErr != nil {
		return c.StoreErr
	}
	c.Entries[query] = itemID
	return nil
}

func (c *FakeCache) Forget(query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, query)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
