package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

// tuiLogFile receives logs during `transfer ui` when log.file is not configured.
const tuiLogFile = "./tmp/sp2yt-tui.log"

func transferRequest(cmd *cli.Command) models.TransferRequest {
	return models.TransferRequest{Locator: cmd.String("source"), Title: cmd.String("title")}
}

// reportFormat resolves --format, letting the --output extension decide when --format was not given.
func reportFormat(cmd *cli.Command) (formatter.Format, error) {
	if output := cmd.String("output"); output != "" && !cmd.IsSet("format") {
		return formatter.FormatFromPath(output), nil
	}
	return formatter.ParseFormat(cmd.String("format"))
}

// TransferRun runs one transfer, printing progress lines and then the report.
//
// A partial report is still printed when a track failure aborts the transfer.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}
	output := cmd.String("output")
	req := transferRequest(cmd)

	engine, release, err := r.transferer(r.logger)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Progress lines would corrupt machine-readable output on stdout.
	showProgress := output != "" || format == formatter.FormatText
	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if showProgress && update.Message != "" {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	r.logger.Debug("starting transfer", "source", req.Locator, "title", req.Title, "format", format)
	report, runErr := engine.Run(ctx, req, progressCh)
	close(progressCh)
	<-done

	if report != nil {
		if err := r.writeReport(report, format, output); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func (r *Runner) writeReport(report *models.TransferReport, format formatter.Format, output string) error {
	if output != "" {
		if err := formatter.WriteReportFile(output, report, format); err != nil {
			return err
		}
		r.logger.Info("report written", "path", output, "format", format)
		return r.writePlain("✓ Report written to %s\n", output)
	}

	if format == formatter.FormatText {
		r.writePlain("\n")
		r.writePlainHeader("Transfer Report")
	}
	return formatter.WriteReport(r.output, report, format)
}

// TransferUI runs one transfer inside the interactive progress view.
//
// Logs go to a rotating file so they do not draw over the screen.
func (r *Runner) TransferUI(ctx context.Context, cmd *cli.Command) error {
	logCfg := r.config.Log
	if logCfg.File == "" {
		logCfg.File = tuiLogFile
	}
	fileLogger, closer, err := shared.NewFileLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()

	engine, release, err := r.transferer(fileLogger)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	req := transferRequest(cmd)
	fileLogger.Info("starting transfer ui", "source", req.Locator, "title", req.Title)

	model := ui.NewModel(ctx, engine, req)
	if err := runProgram(model, r.output); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if report := model.Report(); report != nil {
		s := report.Summary
		r.writePlain("Added: %d, Skipped: %d\n", s.Counts.Added, s.Counts.Skipped)
		if s.DestinationPlaylistID != "" {
			r.writePlain("%s\n", formatter.PlaylistURL(s.DestinationPlaylistID))
		}
	}
	return model.Err()
}

// runProgram is replaced in tests, which have no terminal.
var runProgram = func(model tea.Model, output io.Writer) error {
	_, err := tea.NewProgram(model, tea.WithOutput(output)).Run()
	return err
}
