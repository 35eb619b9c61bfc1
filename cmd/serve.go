package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/sp2yt/internal/server"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the transfer API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	logger := r.logger
	if r.config.Log.File != "" {
		fileLogger, closer, err := shared.NewFileLogger(r.config.Log)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer closer.Close()
		logger = fileLogger
	}

	engine, release, err := r.transferer(logger)
	if err != nil {
		return err
	}
	defer release()

	api := server.NewAPI(server.APIOpts{
		Engine:  engine,
		Timeout: r.timeout(),
		Version: version,
		Auth:    r.authStatus,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("→ Serving on http://%s (POST /transfer, GET /health)\n", cfg.Addr())
	return server.NewServer(cfg.Addr(), api, logger).Run(ctx)
}
