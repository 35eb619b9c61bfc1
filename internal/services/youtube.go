// YouTube Data API v3 implementation of [DestinationCatalog]
//
// Playlists and playlist items are written to the channel that owns the OAuth token.
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
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeVideoKind = "youtube#video"

type youtubeOptions struct {
	endpoint string
	limiter  *rate.Limiter
	logger   *log.Logger
}

// YouTubeOption configures a [YouTubeService].
type YouTubeOption func(*youtubeOptions)

// WithYouTubeEndpoint overrides the API root (e.g. "http://127.0.0.1:8080/").
func WithYouTubeEndpoint(u string) YouTubeOption {
	return func(o *youtubeOptions) { o.endpoint = u }
}

// WithRateLimiter makes every request wait on limiter first. A nil limiter disables pacing.
func WithRateLimiter(l *rate.Limiter) YouTubeOption {
	return func(o *youtubeOptions) { o.limiter = l }
}

// WithYouTubeLogger sets the logger.
func WithYouTubeLogger(l *log.Logger) YouTubeOption {
	return func(o *youtubeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// YouTubeService writes playlists through the YouTube Data API.
type YouTubeService struct {
	svc     *youtube.Service
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewYouTubeService creates a service around an authenticated HTTP client.
func NewYouTubeService(ctx context.Context, httpClient *http.Client, opts ...YouTubeOption) (*YouTubeService, error) {
	o := youtubeOptions{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube client: %w", shared.ErrServiceUnavailable, err)
	}
	return &YouTubeService{svc: svc, limiter: o.limiter, logger: o.logger}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) wait(ctx context.Context) error {
	if y.limiter == nil {
		return nil
	}
	return y.limiter.Wait(ctx)
}

// CreatePlaylist inserts a new playlist with the given title, description and privacy status.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string, privacy models.Privacy) (string, error) {
	if err := y.wait(ctx); err != nil {
		return "", err
	}

	pl := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title, Description: description},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: string(privacy)},
	}

	created, err := y.svc.Playlists.Insert([]string{"snippet", "status"}, pl).Context(ctx).Do()
	if err != nil {
		return "", classifyYouTubeError(err)
	}

	y.logger.Info("created playlist", "id", created.Id, "title", title, "privacy", privacy)
	return created.Id, nil
}

// Search returns the video ids of up to limit results for query.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	if err := y.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyYouTubeError(err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	y.logger.Debug("search", "query", query, "results", len(ids))
	return ids, nil
}

// InsertItem appends a video to the end of a playlist.
//
// A 409 response is reported as [shared.ErrTransientConflict]; the item was not inserted.
func (y *YouTubeService) InsertItem(ctx context.Context, playlistID, itemID string) error {
	if err := y.wait(ctx); err != nil {
		return err
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: youtubeVideoKind, VideoId: itemID},
		},
	}

	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return classifyYouTubeError(err)
	}
	return nil
}

func classifyYouTubeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %w: %w", shared.ErrNotAuthenticated, shared.ErrRefreshFailed, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusConflict:
			return fmt.Errorf("%w: %w", shared.ErrTransientConflict, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}
