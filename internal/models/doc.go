// Package models defines the domain values that flow through a playlist transfer.
//
// The package contains two categories of types:
//
// 1. Pipeline values: immutable data produced and consumed by the transfer stages
//   - [TrackDescriptor] : title and primary artist of one source track
//   - [PlaylistIdentifier] : opaque source playlist id extracted from a locator
//   - [MatchResult] : either Matched(itemID) or NoMatch
//
// 2. Request and report values: what callers send and get back
//   - [TransferRequest] : locator plus optional destination title
//   - [TransferSummary] : status and added/skipped counts of one run
//   - [TrackOutcome] / [TransferReport] : per-track detail for reports
//
// The MatchCacheEntry type is the only persisted model; see the repositories package.
package models
