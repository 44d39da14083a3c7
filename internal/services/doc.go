// Package services defines the [Provider] interface for the playlist provider and implements it for Spotify.
//
// # Provider Interface
//
// [Provider] is the narrow set of calls a combine run makes: the current user, one page of
// playlists, one page of a playlist's track references, playlist creation and appending tracks.
// Paging is left to the caller so that every request maps to exactly one HTTP call.
//
// # Spotify Implementation
//
// [SpotifyService] builds the implicit grant authorize URL with [oauth2.Config] and attaches
// the resulting bearer token through an [oauth2.Transport]. Tokens are never refreshed; an
// expired session has to be authorized again.
//
// # Error Handling
//
// Non-2xx responses are returned as [*APIError], which carries the method, endpoint, status
// and a bounded copy of the body. It matches sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : any non-2xx response
//   - [shared.ErrTokenExpired] : 401, reauthorization needed
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//
// Transport failures are wrapped and carry no status code.
package services
