// package models defines the data model for the playlist transfer service
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// TrackDescriptor is the minimal description of a source track needed to search for it elsewhere.
type TrackDescriptor struct {
	Title         string `json:"title"`
	PrimaryArtist string `json:"primary_artist"`
}

func (t TrackDescriptor) String() string {
	if t.PrimaryArtist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s by %s", t.Title, t.PrimaryArtist)
}

// PlaylistIdentifier is the source catalog's id for a playlist.
type PlaylistIdentifier string

// MatchResult is the outcome of searching the destination catalog for one track.
// The zero value is [NoMatch].
type MatchResult struct {
	ItemID string
}

// NoMatch means the search returned no candidates.
var NoMatch = MatchResult{}

// Matched wraps a destination item id.
func Matched(itemID string) MatchResult {
	return MatchResult{ItemID: itemID}
}

// IsMatch reports whether the result carries an item id.
func (m MatchResult) IsMatch() bool {
	return m.ItemID != ""
}

// Privacy is the visibility of a created destination playlist.
type Privacy string

const (
	PrivacyPrivate  Privacy = "private"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyPublic   Privacy = "public"
)

// TransferRequest is the caller's input. JSON names match the HTTP API.
type TransferRequest struct {
	Locator string `json:"spotify_url"`
	Title   string `json:"youtube_playlist_title,omitempty"`
}

// Validate checks that a locator was supplied.
func (r TransferRequest) Validate() error {
	if strings.TrimSpace(r.Locator) == "" {
		return fmt.Errorf("Spotify URL is required")
	}
	return nil
}

// TransferStatus is the terminal status of a run.
type TransferStatus string

const (
	StatusCompleted TransferStatus = "completed"
	StatusFailed    TransferStatus = "failed"
)

// TransferCounts aggregates per-track outcomes.
type TransferCounts struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Total is the number of tracks processed.
func (c TransferCounts) Total() int {
	return c.Added + c.Skipped
}

// TransferSummary describes one transfer run.
type TransferSummary struct {
	ID                    string             `json:"id"`
	Status                TransferStatus     `json:"status"`
	Counts                TransferCounts     `json:"counts"`
	SourcePlaylistID      PlaylistIdentifier `json:"source_playlist_id"`
	DestinationPlaylistID string             `json:"playlist_id,omitempty"`
	Title                 string             `json:"title"`
	StartedAt             time.Time          `json:"started_at"`
	FinishedAt            time.Time          `json:"finished_at"`
}

// Duration is the wall time of the run.
func (s TransferSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// OutcomeKind classifies what happened to one track.
type OutcomeKind string

const (
	OutcomeAdded          OutcomeKind = "added"
	OutcomeNoMatch        OutcomeKind = "no_match"
	OutcomeWriteExhausted OutcomeKind = "write_exhausted"
	OutcomeFailed         OutcomeKind = "failed"
)

// Skipped reports whether the outcome counts toward the skipped total.
func (k OutcomeKind) Skipped() bool {
	return k != OutcomeAdded
}

// TrackOutcome records the result for a single source track.
type TrackOutcome struct {
	Index  int             `json:"index"`
	Track  TrackDescriptor `json:"track"`
	Kind   OutcomeKind     `json:"kind"`
	ItemID string          `json:"item_id,omitempty"`
	Err    error           `json:"-"`
}

// Error returns the failure message, if any.
func (o TrackOutcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// TransferReport is the summary plus per-track outcomes in source order.
type TransferReport struct {
	Summary  TransferSummary `json:"summary"`
	Outcomes []TrackOutcome  `json:"outcomes"`
}

// Record appends an outcome and updates the counts.
func (r *TransferReport) Record(o TrackOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Kind.Skipped() {
		r.Summary.Counts.Skipped++
	} else {
		r.Summary.Counts.Added++
	}
}

// MatchCacheEntry is a remembered search query and the item it resolved to.
type MatchCacheEntry struct {
	EntryID string    `json:"id"`
	Query   string    `json:"query"`
	ItemID  string    `json:"item_id"`
	Hits    int       `json:"hits"`
	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`
}

func (e *MatchCacheEntry) ID() string           { return e.EntryID }
func (e *MatchCacheEntry) CreatedAt() time.Time { return e.Created }
func (e *MatchCacheEntry) UpdatedAt() time.Time { return e.Updated }

func (e *MatchCacheEntry) Validate() error {
	if e.Query == "" {
		return fmt.Errorf("query is required")
	}
	if e.ItemID == "" {
		return fmt.Errorf("item id is required")
	}
	return nil
}
