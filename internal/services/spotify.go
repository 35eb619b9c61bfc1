// Spotify Web API implementation of [SourceCatalog]
//
// Backed by github.com/zmb3/spotify/v2; authentication is supplied by the *http.Client.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// DefaultPageSize is the number of playlist items requested per page.
const DefaultPageSize = 50

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyBaseURL points the client at a different API root. The URL must end with "/".
func WithSpotifyBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithPageSize sets the page size used when listing playlist items (1-100).
func WithPageSize(n int) SpotifyOption {
	return func(s *SpotifyService) {
		if n > 0 && n <= 100 {
			s.pageSize = n
		}
	}
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// SpotifyService reads playlists through the Spotify Web API.
type SpotifyService struct {
	client   *spotify.Client
	baseURL  string
	pageSize int
	logger   *log.Logger
}

// NewSpotifyService creates a service around an authenticated HTTP client.
//
// Rate-limited (429) responses are retried by the library after the Retry-After delay.
func NewSpotifyService(httpClient *http.Client, opts ...SpotifyOption) *SpotifyService {
	s := &SpotifyService{pageSize: DefaultPageSize, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	clientOpts := []spotify.ClientOption{spotify.WithRetry(true)}
	if s.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, clientOpts...)
	return s
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// ReadAllTracks fetches every page of the playlist and returns its tracks in playlist order.
//
// Entries without a track (podcast episodes, removed tracks), without a title or without an artist are skipped
// and logged with their position.
func (s *SpotifyService) ReadAllTracks(ctx context.Context, playlistID models.PlaylistIdentifier) ([]models.TrackDescriptor, error) {
	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(s.pageSize))
	if err != nil {
		return nil, classifySpotifyError(err)
	}

	tracks := make([]models.TrackDescriptor, 0, int(page.Total))
	position := 0
	for n := 1; ; n++ {
		s.logger.Debug("read playlist page", "playlist", playlistID, "page", n, "items", len(page.Items))

		for _, item := range page.Items {
			if d, ok := descriptorFromItem(item); ok {
				tracks = append(tracks, d)
			} else {
				s.logger.Warn("skipping playlist entry without track data", "playlist", playlistID, "position", position)
			}
			position++
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, classifySpotifyError(err)
		}
	}

	s.logger.Info("read source playlist", "playlist", playlistID, "tracks", len(tracks), "entries", position)
	return tracks, nil
}

func descriptorFromItem(item spotify.PlaylistItem) (models.TrackDescriptor, bool) {
	t := item.Track.Track
	if t == nil || len(t.Artists) == 0 {
		return models.TrackDescriptor{}, false
	}

	d := models.TrackDescriptor{
		Title:         shared.NormalizeText(t.Name),
		PrimaryArtist: shared.NormalizeText(t.Artists[0].Name),
	}
	if d.Title == "" || d.PrimaryArtist == "" {
		return models.TrackDescriptor{}, false
	}
	return d, true
}

func classifySpotifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var serr spotify.Error
	if errors.As(err, &serr) {
		switch serr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", shared.ErrPlaylistNotFound, err)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}
