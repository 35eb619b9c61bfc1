package tasks

import (
	"fmt"

	"github.com/desertthunder/sp2yt/internal/models"
)

// ProgressUpdate represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Transfer phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (models.TrackOutcome, models.TransferSummary, error)
}

// Phase is a state of the transfer state machine.
type Phase int

const (
	ParsingInput Phase = iota
	ReadingSource
	CreatingDestination
	MatchingAndWriting
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case ParsingInput:
		return "parsing_input"
	case ReadingSource:
		return "reading_source"
	case CreatingDestination:
		return "creating_destination"
	case MatchingAndWriting:
		return "matching_and_writing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further updates follow.
func (p Phase) Terminal() bool {
	return p == Completed || p == Failed
}

func parsingInputUpdate(locator string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParsingInput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsing %q...", locator),
	}
}

func readingSourceUpdate(id models.PlaylistIdentifier) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadingSource,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Reading Spotify playlist %s...", id),
	}
}

func sourceReadUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadingSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks", count),
		Data:    count,
	}
}

func creatingDestinationUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatingDestination,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating YouTube playlist %q...", title),
	}
}

func destinationCreatedUpdate(id, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatingDestination,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", title, id),
		Data:    id,
	}
}

func matchingUpdate(step, total int, tr models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchingAndWriting,
		Step:    step - 1,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.PrimaryArtist, tr.Title),
	}
}

func trackOutcomeUpdate(step, total int, o models.TrackOutcome) ProgressUpdate {
	var mark string
	switch o.Kind {
	case models.OutcomeAdded:
		mark = "✓"
	case models.OutcomeNoMatch:
		mark = "∅"
	default:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   MatchingAndWriting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, o.Track),
		Data:    o,
	}
}

func completedUpdate(s models.TransferSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		Step:    s.Counts.Total(),
		Total:   s.Counts.Total(),
		Message: fmt.Sprintf("Transfer complete: %d added, %d skipped", s.Counts.Added, s.Counts.Skipped),
		Data:    s,
	}
}

func failedUpdate(err *TransferError) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Message: fmt.Sprintf("Transfer failed: %v", err),
		Data:    err,
	}
}
