// Package services implements the catalogs a transfer reads from and writes to.
//
// # Catalog Interfaces
//
// [SourceCatalog] lists the tracks of a playlist. [DestinationCatalog] combines [Searcher] and [PlaylistWriter].
// [Provider] hands out fresh, authenticated handles for each transfer; [Catalogs] is the production implementation.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2. ReadAllTracks follows the page "next" links until the
// last page and drops entries that carry no usable track.
//
// # YouTube Implementation
//
// [YouTubeService] wraps google.golang.org/api/youtube/v3. An optional [rate.Limiter] paces every call.
//
// # Credentials
//
// A [CredentialProvider] returns an *http.Client that authenticates requests:
//   - [OAuthCredentials] : authorization-code token read from a [TokenFile] on first use, refreshed and re-saved
//   - [ClientCredentials] : app-only token (Spotify public playlists)
//   - [StaticCredentials] : fixed client, for tests and pre-authenticated transports
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : missing, invalid or unrefreshable token
//   - [shared.ErrPlaylistNotFound] : source playlist id not found
//   - [shared.ErrTransientConflict] : YouTube answered 409 on a write
//   - [shared.ErrServiceUnavailable] : rate limited or temporarily down
//   - [shared.ErrAPIRequest] : any other failed request
package services
