package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/sp2yt/internal/shared"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger, ConfigPath: "config.toml"})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Warn("run `sp2yt auth spotify` and `sp2yt auth youtube` to connect your accounts")
		}
		logger.Fatalf("application error: %v", err)
	}
}
