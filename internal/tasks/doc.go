// Package tasks runs playlist transfers from Spotify to YouTube with real-time progress reporting.
//
// # Pipeline
//
// [TransferEngine.Run] moves through these phases:
//
//  1. [ParsingInput] : [ParseLocator] extracts the playlist id; bad input fails before any network call
//  2. [ReadingSource] : every page of the source playlist is read into memory
//  3. [CreatingDestination] : one new playlist is created (title defaults to "Spotify Playlist")
//  4. [MatchingAndWriting] : for each track in order, [Matcher] searches and [Writer] appends the top result
//  5. [Completed] or [Failed]
//
// Tracks without a search result and items whose insert kept conflicting are counted as skipped.
// A failed search or a failed insert aborts the transfer unless [SkipOnItemError] is configured.
//
// # Retries
//
// [RetryPolicy] bounds the attempts for one insert. Only errors accepted by its Retryable predicate
// ([IsTransientConflict] by default) are retried, with a fixed delay. Tests replace the Timer.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Match Caching
//
// The optional [MatchCacher] interface lets repeated queries skip the search call.
// Cache errors are logged and ignored so they never fail a transfer.
package tasks
