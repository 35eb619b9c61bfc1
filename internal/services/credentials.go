package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// CredentialProvider produces HTTP clients that authenticate against one service.
type CredentialProvider interface {
	Client(ctx context.Context) (*http.Client, error)
}

// StaticCredentials always returns the same client.
type StaticCredentials struct {
	HTTPClient *http.Client
}

func (s StaticCredentials) Client(context.Context) (*http.Client, error) {
	if s.HTTPClient == nil {
		return http.DefaultClient, nil
	}
	return s.HTTPClient, nil
}

// TokenFile stores an [oauth2.Token] as JSON on disk.
type TokenFile struct {
	Path string
}

// Exists reports whether the token file is present.
func (f TokenFile) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// Load reads the token. A missing file is reported as [shared.ErrNotAuthenticated].
func (f TokenFile) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s", shared.ErrNotAuthenticated, f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: malformed token file %s: %v", shared.ErrNotAuthenticated, f.Path, err)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions, replacing any previous file.
func (f TokenFile) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// OAuthCredentials serves clients from a stored authorization-code token.
//
// The token file is read once, on first use. The resulting token source is shared by every client handed out
// afterwards; refreshed tokens are written back to the file.
type OAuthCredentials struct {
	config *oauth2.Config
	store  TokenFile
	logger *log.Logger

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewOAuthCredentials creates a provider for cfg backed by store.
func NewOAuthCredentials(cfg *oauth2.Config, store TokenFile, logger *log.Logger) *OAuthCredentials {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &OAuthCredentials{config: cfg, store: store, logger: logger}
}

// TokenSource loads the stored token on first call and returns the shared source.
func (c *OAuthCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src != nil {
		return c.src, nil
	}

	tok, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	// refreshes must not die with the request that triggered them
	base := c.config.TokenSource(context.WithoutCancel(ctx), tok)
	src := &persistingSource{
		src:    oauth2.ReuseTokenSource(tok, base),
		store:  c.store,
		last:   tok.AccessToken,
		logger: c.logger,
	}

	if _, err := src.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", shared.ErrNotAuthenticated, shared.ErrRefreshFailed, err)
	}

	c.src = src
	return src, nil
}

// Client returns an HTTP client that attaches (and refreshes) the stored token.
func (c *OAuthCredentials) Client(ctx context.Context) (*http.Client, error) {
	src, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, src), nil
}

// persistingSource writes each newly issued access token to the token file.
type persistingSource struct {
	src    oauth2.TokenSource
	store  TokenFile
	logger *log.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			p.logger.Warn("failed to persist refreshed token", "path", p.store.Path, "error", err)
		} else {
			p.logger.Debug("persisted refreshed token", "path", p.store.Path, "expiry", tok.Expiry)
		}
	}
	return tok, nil
}

// ClientCredentials serves app-only clients (client id + secret, no user).
//
// Spotify accepts these for public playlists.
type ClientCredentials struct {
	config *clientcredentials.Config

	once sync.Once
	src  oauth2.TokenSource
}

// NewClientCredentials creates a provider that exchanges the client id and secret at tokenURL.
func NewClientCredentials(clientID, clientSecret, tokenURL string) *ClientCredentials {
	return &ClientCredentials{config: &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}}
}

func (c *ClientCredentials) Client(ctx context.Context) (*http.Client, error) {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}

	c.once.Do(func() {
		c.src = c.config.TokenSource(context.WithoutCancel(ctx))
	})
	return oauth2.NewClient(ctx, c.src), nil
}

// NewSpotifyCredentials returns user credentials when a token file exists and app-only credentials otherwise.
func NewSpotifyCredentials(cfg shared.SpotifyConfig, logger *log.Logger) CredentialProvider {
	store := TokenFile{Path: shared.ExpandPath(cfg.TokenPath)}
	oc := cfg.OAuth2()
	if cfg.TokenPath != "" && store.Exists() {
		return NewOAuthCredentials(oc, store, logger)
	}
	return NewClientCredentials(cfg.ClientID, cfg.ClientSecret, oc.Endpoint.TokenURL)
}

// NewYouTubeCredentials returns user credentials for the configured Google OAuth client.
func NewYouTubeCredentials(cfg shared.YouTubeConfig, logger *log.Logger) CredentialProvider {
	store := TokenFile{Path: shared.ExpandPath(cfg.TokenPath)}
	return NewOAuthCredentials(cfg.OAuth2(), store, logger)
}
