// package services defines the catalog interfaces the transfer pipeline talks to
//
// Spotify (source) and YouTube Data API (destination)
package services

import (
	"context"

	"github.com/desertthunder/sp2yt/internal/models"
)

// SourceCatalog reads playlists from the catalog tracks are copied out of.
type SourceCatalog interface {
	// ReadAllTracks returns every track of the playlist in order, following pagination.
	ReadAllTracks(ctx context.Context, playlistID models.PlaylistIdentifier) ([]models.TrackDescriptor, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Searcher runs free-text searches against the destination catalog.
type Searcher interface {
	// Search returns up to limit item ids, best ranked first. No results is not an error.
	Search(ctx context.Context, query string, limit int64) ([]string, error)
}

// PlaylistWriter creates playlists and appends items to them.
type PlaylistWriter interface {
	// CreatePlaylist creates a new playlist and returns its id. Calling it twice creates two playlists.
	CreatePlaylist(ctx context.Context, title, description string, privacy models.Privacy) (string, error)

	// InsertItem appends itemID to the end of the playlist.
	InsertItem(ctx context.Context, playlistID, itemID string) error
}

// DestinationCatalog is the catalog tracks are copied into.
type DestinationCatalog interface {
	Searcher
	PlaylistWriter

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Provider hands out authenticated catalog handles for a single transfer.
type Provider interface {
	Source(ctx context.Context) (SourceCatalog, error)
	Destination(ctx context.Context) (DestinationCatalog, error)
}
