// Package server provides HTTP routing, middleware, the transfer API and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Routes registered with [BasicRouter.Handle]
// are dispatched by method; other methods receive a JSON 405 with an Allow header.
//
// # Transfer API
//
// [NewAPI] wires the routes served by `sp2yt serve`:
//
//	POST /transfer  {"spotify_url": "...", "youtube_playlist_title": "..."}
//	GET  /health
//
// A transfer runs synchronously inside the request. Failures are returned as {"detail", "stage"} where stage is the
// pipeline phase that failed. Invalid input maps to 400, missing or rejected credentials to 401, catalog failures
// to 502 and anything else to 500.
//
// # Middleware
//
//   - [RequestID] : propagates or assigns X-Request-ID
//   - [Logging] : one log line per request
//   - [Recover] : converts panics into 500 responses
//   - [CORS] : allows every origin
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback used by `sp2yt auth spotify|youtube`.
// The handler validates the state parameter, exchanges the authorization code for tokens, and sends the result
// through a channel. It only processes one callback.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
