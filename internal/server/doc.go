// Package server provides HTTP routing, middleware, and the implicit grant redirect handler used by `auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [NoStore] are the middleware used by the login server.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Redirect Handler
//
// [RedirectHandler] captures the access token delivered by the implicit grant flow. The provider
// appends access_token, expires_in and state to the redirect URL fragment; since fragments are never
// sent to servers, /redirect serves a small page that reissues the request to /token with the
// fragment as its query string.
//
// /token validates the state parameter (CSRF protection), builds a [models.Session] and sends it
// through a channel. It only processes one request.
//
// # Current Usage
//
// When the user runs `combitify auth login`, a temporary HTTP server starts on the configured
// host and port (127.0.0.1:3000 by default), handles the redirect, and shuts down after the
// session is captured.
package server
