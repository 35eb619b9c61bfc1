package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sp2yt/internal/server"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// authTimeout bounds how long the callback server waits for the browser redirect.
var authTimeout = 2 * time.Minute

// AuthSpotify runs the authorization code flow for Spotify and stores the token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Credentials.Spotify
	return r.authorize(ctx, "Spotify", cfg.OAuth2(), services.TokenFile{Path: shared.ExpandPath(cfg.TokenPath)})
}

// AuthYouTube runs the authorization code flow for Google and stores the token.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Credentials.YouTube
	return r.authorize(ctx, "YouTube", cfg.OAuth2(), services.TokenFile{Path: shared.ExpandPath(cfg.TokenPath)})
}

func (r *Runner) authorize(ctx context.Context, provider string, oc *oauth2.Config, store services.TokenFile) error {
	if store.Path == "" {
		return fmt.Errorf("%w: %s token_path is not set", shared.ErrInvalidConfig, provider)
	}

	token, err := r.doOAuth(ctx, provider, oc)
	if err != nil {
		return err
	}

	if err := store.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.logger.Info("token saved", "provider", provider, "path", store.Path)
	r.writePlainln("✓ %s authorization successful", provider)
	r.writePlain("✓ Token saved to %s\n", store.Path)
	return nil
}

// authStatus reports which services have a stored user token.
func (r *Runner) authStatus() map[string]bool {
	creds := r.config.Credentials
	return map[string]bool{
		"spotify": services.TokenFile{Path: shared.ExpandPath(creds.Spotify.TokenPath)}.Exists(),
		"youtube": services.TokenFile{Path: shared.ExpandPath(creds.YouTube.TokenPath)}.Exists(),
	}
}

// AuthStatus prints which services have stored tokens.
//
// Spotify works without a token for public playlists; YouTube always needs one.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := r.authStatus()
	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}

	for _, name := range []string{"spotify", "youtube"} {
		if status[name] {
			r.writePlain("%-8s ✓ Authenticated\n", name)
		} else {
			r.writePlain("%-8s ✗ Not authenticated (run `sp2yt auth %s`)\n", name, name)
		}
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local callback server.
func (r *Runner) doOAuth(ctx context.Context, provider string, oc *oauth2.Config) (*oauth2.Token, error) {
	if oc.ClientID == "" || oc.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s client_id and client_secret must be set", shared.ErrMissingCredentials, provider)
	}

	handler := server.NewOAuthHandler(oc, shared.GenerateState(), provider)
	router := server.NewBasicRouter()
	router.Handler(handler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr := r.config.Server.Addr()
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server for %s at %v", provider, addr)
		serverErrors <- server.NewServer(addr, router, r.logger).Run(ctx)
	}()
	stopServer := func() {
		cancel()
		if err := <-serverErrors; err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}

	authURL := handler.AuthCodeURL()
	r.writePlain("→ Opening browser for %s authorization...\n", provider)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-handler.Result():
		stopServer()
	case err := <-serverErrors:
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		stopServer()
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
