package services

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// CatalogOpts configures the catalog handles built by [Catalogs].
type CatalogOpts struct {
	SpotifyBaseURL    string
	YouTubeEndpoint   string
	PageSize          int
	RequestsPerSecond float64 // 0 disables pacing
	Logger            *log.Logger
}

// Catalogs implements [Provider] over two credential providers.
//
// Handles are built fresh per call; credentials and the YouTube rate limiter are shared.
type Catalogs struct {
	source      CredentialProvider
	destination CredentialProvider
	opts        CatalogOpts
	limiter     *rate.Limiter
}

// NewCatalogs creates a provider reading from Spotify with source and writing to YouTube with destination.
func NewCatalogs(source, destination CredentialProvider, opts CatalogOpts) *Catalogs {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	c := &Catalogs{source: source, destination: destination, opts: opts}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Source returns an authenticated Spotify reader.
func (c *Catalogs) Source(ctx context.Context) (SourceCatalog, error) {
	hc, err := c.source.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify credentials: %w", err)
	}

	return NewSpotifyService(hc,
		WithSpotifyBaseURL(c.opts.SpotifyBaseURL),
		WithPageSize(c.opts.PageSize),
		WithSpotifyLogger(c.opts.Logger.With("service", "spotify")),
	), nil
}

// Destination returns an authenticated YouTube writer.
func (c *Catalogs) Destination(ctx context.Context) (DestinationCatalog, error) {
	hc, err := c.destination.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube credentials: %w", err)
	}

	yt, err := NewYouTubeService(ctx, hc,
		WithYouTubeEndpoint(c.opts.YouTubeEndpoint),
		WithRateLimiter(c.limiter),
		WithYouTubeLogger(c.opts.Logger.With("service", "youtube")),
	)
	if err != nil {
		return nil, err
	}
	return yt, nil
}
