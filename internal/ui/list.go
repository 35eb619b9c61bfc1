package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sp2yt/internal/models"
)

var (
	_ list.Item = outcomeItem{}
)

// outcomeItem wraps [models.TrackOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome models.TrackOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Track.String() }

func (i outcomeItem) Title() string {
	return fmt.Sprintf("%s %d. %s", outcomeMark(i.outcome.Kind), i.outcome.Index+1, i.outcome.Track)
}

func (i outcomeItem) Description() string {
	switch i.outcome.Kind {
	case models.OutcomeAdded:
		return "added • " + i.outcome.ItemID
	case models.OutcomeNoMatch:
		return "no match on YouTube"
	default:
		if msg := i.outcome.Error(); msg != "" {
			return fmt.Sprintf("%s • %s", i.outcome.Kind, msg)
		}
		return string(i.outcome.Kind)
	}
}

func outcomeMark(kind models.OutcomeKind) string {
	switch kind {
	case models.OutcomeAdded:
		return styles.ok.Render("✓")
	case models.OutcomeNoMatch:
		return styles.warn.Render("∅")
	default:
		return styles.err.Render("✗")
	}
}

func outcomeItems(outcomes []models.TrackOutcome) []list.Item {
	items := make([]list.Item, len(outcomes))
	for i, o := range outcomes {
		items[i] = outcomeItem{outcome: o}
	}
	return items
}
