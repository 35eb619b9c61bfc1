// Package repositories implements SQLite persistence for the match cache.
//
// Key Implementations:
//   - [MatchCacheRepository] : query → item id lookups with hit counting; satisfies tasks.MatchCacher
//
// Tables are created by the embedded migrations in package shared; repositories assume they have been applied.
package repositories
