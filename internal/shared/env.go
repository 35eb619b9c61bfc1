package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override credential settings.
const (
	EnvClientID            = "CLIENT_ID"
	EnvClientSecret        = "CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "SPOTIFY_REDIRECT_URI"
	EnvSpotifyScope        = "SPOTIFY_SCOPE"
	EnvYouTubeClientID     = "YOUTUBE_CLIENT_ID"
	EnvYouTubeClientSecret = "YOUTUBE_CLIENT_SECRET"
	EnvYouTubeRedirectURI  = "YOUTUBE_REDIRECT_URI"
	EnvLogLevel            = "SP2YT_LOG_LEVEL"
)

// LoadEnv reads .env files (default ".env") into the process environment and applies the overrides to cfg.
//
// Missing files are ignored. Variables already present in the environment win over file values.
func LoadEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	ApplyEnv(cfg)
	return nil
}

// ApplyEnv copies non-empty override variables onto cfg.
func ApplyEnv(cfg *Config) {
	sp := &cfg.Credentials.Spotify
	setFromEnv(&sp.ClientID, EnvClientID)
	setFromEnv(&sp.ClientSecret, EnvClientSecret)
	setFromEnv(&sp.RedirectURI, EnvSpotifyRedirectURI)
	if scope := os.Getenv(EnvSpotifyScope); scope != "" {
		sp.Scopes = strings.FieldsFunc(scope, func(r rune) bool { return r == ' ' || r == ',' })
	}

	yt := &cfg.Credentials.YouTube
	setFromEnv(&yt.ClientID, EnvYouTubeClientID)
	setFromEnv(&yt.ClientSecret, EnvYouTubeClientSecret)
	setFromEnv(&yt.RedirectURI, EnvYouTubeRedirectURI)

	setFromEnv(&cfg.Log.Level, EnvLogLevel)
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
