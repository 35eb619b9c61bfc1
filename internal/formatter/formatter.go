// package formatter renders transfer reports as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat accepts a format name (case-insensitive) or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, s, joinFormats())
	}
}

// FormatFromPath guesses a format from a file extension, falling back to text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

func joinFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// VideoURL links a destination item id.
func VideoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// PlaylistURL links a destination playlist id.
func PlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}

// Render encodes report in the requested format.
func Render(report *models.TransferReport, format Format) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: no report to render", shared.ErrInvalidInput)
	}

	switch format {
	case FormatText:
		return ExportToText(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatCSV:
		return ExportToCSV(report)
	case FormatJSON:
		return ExportToJSON(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV writes one row per track: Index, Title, Artist, Outcome, VideoID, Error
func ExportToCSV(report *models.TransferReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Title", "Artist", "Outcome", "VideoID", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range report.Outcomes {
		record := []string{
			strconv.Itoa(o.Index + 1),
			o.Track.Title,
			o.Track.PrimaryArtist,
			string(o.Kind),
			o.ItemID,
			o.Error(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown writes a heading, a summary list and a track table.
func ExportToMarkdown(report *models.TransferReport) ([]byte, error) {
	var buf bytes.Buffer
	s := report.Summary

	fmt.Fprintf(&buf, "# %s\n\n", s.Title)
	fmt.Fprintf(&buf, "**Status**: %s\n", s.Status)
	if s.DestinationPlaylistID != "" {
		fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", s.DestinationPlaylistID, PlaylistURL(s.DestinationPlaylistID))
	}
	fmt.Fprintf(&buf, "**Source**: %s\n", s.SourcePlaylistID)
	fmt.Fprintf(&buf, "**Added**: %d\n", s.Counts.Added)
	fmt.Fprintf(&buf, "**Skipped**: %d\n", s.Counts.Skipped)
	if d := s.Duration(); d > 0 {
		fmt.Fprintf(&buf, "**Duration**: %s\n", d.Round(time.Second))
	}

	buf.WriteString("\n## Tracks\n\n")
	if len(report.Outcomes) == 0 {
		buf.WriteString("_No tracks._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Track | Artist | Outcome | Video |\n")
	buf.WriteString("|---|-------|--------|---------|-------|\n")
	for _, o := range report.Outcomes {
		video := ""
		if o.ItemID != "" {
			video = fmt.Sprintf("[%s](%s)", o.ItemID, VideoURL(o.ItemID))
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n",
			o.Index+1, escapeCell(o.Track.Title), escapeCell(o.Track.PrimaryArtist), o.Kind, video)
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText writes a short summary followed by one line per track.
func ExportToText(report *models.TransferReport) ([]byte, error) {
	var buf bytes.Buffer
	s := report.Summary

	fmt.Fprintf(&buf, "Playlist: %s\n", s.Title)
	if s.DestinationPlaylistID != "" {
		fmt.Fprintf(&buf, "URL: %s\n", PlaylistURL(s.DestinationPlaylistID))
	}
	fmt.Fprintf(&buf, "Status: %s\n", s.Status)
	fmt.Fprintf(&buf, "Added: %d, Skipped: %d\n\n", s.Counts.Added, s.Counts.Skipped)

	for _, o := range report.Outcomes {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]", o.Index+1, o.Track.PrimaryArtist, o.Track.Title, o.Kind)
		if o.ItemID != "" && o.Kind == models.OutcomeAdded {
			fmt.Fprintf(&buf, " %s", o.ItemID)
		}
		if msg := o.Error(); msg != "" {
			fmt.Fprintf(&buf, ": %s", msg)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

type jsonOutcome struct {
	models.TrackOutcome
	Error string `json:"error,omitempty"`
}

type jsonReport struct {
	Summary  models.TransferSummary `json:"summary"`
	Outcomes []jsonOutcome          `json:"outcomes"`
}

// ExportToJSON writes the report as indented JSON including per-track error messages.
func ExportToJSON(report *models.TransferReport) ([]byte, error) {
	out := jsonReport{Summary: report.Summary, Outcomes: make([]jsonOutcome, len(report.Outcomes))}
	for i, o := range report.Outcomes {
		out.Outcomes[i] = jsonOutcome{TrackOutcome: o, Error: o.Error()}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport renders report to w.
func WriteReport(w io.Writer, report *models.TransferReport, format Format) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteReportFile renders report to path, creating parent directories.
func WriteReportFile(path string, report *models.TransferReport, format Format) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
