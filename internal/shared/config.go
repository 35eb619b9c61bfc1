package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	spotifyauth "golang.org/x/oauth2/spotify"
)

//go:embed config.example.toml
var exampleConf []byte

// YouTubeScope grants playlist management on the authorised channel.
const YouTubeScope = "https://www.googleapis.com/auth/youtube.force-ssl"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Transfer    TransferConfig    `toml:"transfer"`
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	TokenPath    string   `toml:"token_path"`
}

// OAuth2 builds the authorization-code configuration for Spotify.
func (c SpotifyConfig) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint:     spotifyauth.Endpoint,
	}
}

// YouTubeConfig contains Google OAuth client credentials for the YouTube Data API.
type YouTubeConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	TokenPath    string   `toml:"token_path"`
}

// OAuth2 builds the authorization-code configuration for Google.
func (c YouTubeConfig) OAuth2() *oauth2.Config {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{YouTubeScope}
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// TransferConfig holds the pipeline tunables.
type TransferConfig struct {
	DefaultTitle      string   `toml:"default_title"`
	Description       string   `toml:"description"`
	Privacy           string   `toml:"privacy"`
	QuerySuffix       string   `toml:"query_suffix"`
	MaxAttempts       int      `toml:"max_attempts"`
	RetryDelay        Duration `toml:"retry_delay"`
	OnItemError       string   `toml:"on_item_error"`
	PageSize          int      `toml:"page_size"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           Duration `toml:"timeout"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig toggles the search result cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig controls log level and the optional rotating log file.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Duration is a [time.Duration] written as a string ("5s", "1m30s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports the first out-of-range transfer setting.
func (c *Config) Validate() error {
	t := c.Transfer
	switch t.Privacy {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("%w: transfer.privacy must be private, unlisted or public, got %q", ErrInvalidConfig, t.Privacy)
	}

	switch t.OnItemError {
	case "abort", "skip":
	default:
		return fmt.Errorf("%w: transfer.on_item_error must be abort or skip, got %q", ErrInvalidConfig, t.OnItemError)
	}

	if t.MaxAttempts < 1 {
		return fmt.Errorf("%w: transfer.max_attempts must be at least 1", ErrInvalidConfig)
	}
	if t.RetryDelay.Duration < 0 || t.Timeout.Duration < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if t.PageSize < 1 || t.PageSize > 100 {
		return fmt.Errorf("%w: transfer.page_size must be between 1 and 100", ErrInvalidConfig)
	}
	if t.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: transfer.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
