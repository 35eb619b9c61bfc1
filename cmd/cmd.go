// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/urfave/cli/v3"
)

// app returns the root command. Config is loaded once, before any subcommand runs.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "sp2yt",
		Usage:   "Transfer Spotify playlists to YouTube",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to .env file with credential overrides",
				Value: ".env",
			},
		},
		Before:   r.load,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, transferCommand, serveCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the match cache database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "List applied migrations",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles OAuth authorization for both services
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorize access to private Spotify playlists",
				Action: r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authorize playlist management on your YouTube channel",
				Action:  r.AuthYouTube,
			},
			{
				Name:  "status",
				Usage: "Show which services have stored tokens",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// transferCommand handles playlist transfer operations
func transferCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Spotify playlist URL",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "title",
			Aliases: []string{"t"},
			Usage:   "Title of the YouTube playlist to create",
		},
	}

	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer a Spotify playlist to YouTube",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a transfer and print a report",
				Flags: append(flags,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Report format (%s)", formatNames()),
						Value:   string(formatter.FormatText),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file; the format follows the extension unless --format is set",
					},
				),
				Action: r.TransferRun,
			},
			{
				Name:   "ui",
				Usage:  "Run a transfer with an interactive progress view",
				Flags:  flags,
				Action: r.TransferUI,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the transfer API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}

// cacheCommand manages the search match cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the search match cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached matches, most used first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to show (0 for all)",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached match",
				Action: r.CacheClear,
			},
			{
				Name:  "delete",
				Usage: "Forget the match for one query",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Action: r.CacheDelete,
			},
		},
	}
}
