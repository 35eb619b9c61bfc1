package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	catalogs   services.Provider
	engine     tasks.Transferer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config is loaded from the --config flag when nil. Catalogs and Engine replace the ones built from config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Catalogs   services.Provider
	Engine     tasks.Transferer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		catalogs:   opts.Catalogs,
		engine:     opts.Engine,
	}
}

// load reads the config file named by --config and applies .env overrides. A missing file leaves the defaults.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.config != nil {
		return ctx, nil
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		loaded, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.LoadEnv(config, cmd.String("env")); err != nil {
		return ctx, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	r.config = config
	return ctx, nil
}

// provider returns the injected catalogs or builds them from the configured credentials.
func (r *Runner) provider(logger *log.Logger) services.Provider {
	if r.catalogs != nil {
		return r.catalogs
	}

	creds := r.config.Credentials
	return services.NewCatalogs(
		services.NewSpotifyCredentials(creds.Spotify, logger),
		services.NewYouTubeCredentials(creds.YouTube, logger),
		services.CatalogOpts{
			PageSize:          r.config.Transfer.PageSize,
			RequestsPerSecond: r.config.Transfer.RequestsPerSecond,
			Logger:            logger,
		},
	)
}

// transferer returns the injected engine or builds one from config. The returned func closes the match cache
// database when caching is enabled.
func (r *Runner) transferer(logger *log.Logger) (tasks.Transferer, func(), error) {
	if r.engine != nil {
		return r.engine, func() {}, nil
	}

	opts := tasks.EngineOptsFromConfig(r.config.Transfer)
	opts.Logger = logger

	release := func() {}
	if r.config.Cache.Enabled {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open match cache: %w", err)
		}
		opts.Cache = repositories.NewMatchCacheRepository(db)
		release = func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", "error", err)
			}
		}
	}

	return tasks.NewTransferEngine(r.provider(logger), opts), release, nil
}

// timeout is the configured whole-transfer deadline, zero for none.
func (r *Runner) timeout() time.Duration {
	return r.config.Transfer.Timeout.Duration
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := r.timeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
