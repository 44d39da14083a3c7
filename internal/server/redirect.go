package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/combitify/internal/models"
)

// AuthorizeFailedMessage is shown when the redirect does not carry a usable token.
const AuthorizeFailedMessage = "Failed to authorize. Please try again later."

// RedirectResult contains the result of an implicit grant redirect.
type RedirectResult struct {
	Session *models.Session
	err     error
}

func (r *RedirectResult) Error() error {
	return r.err
}

// RedirectHandler captures the access token from an implicit grant redirect.
//
// The provider puts the token in the URL fragment, which never reaches the server. /redirect
// serves a page that moves the fragment into the query string of /token, where the state is
// checked and the session is built. Only the first /token request with the expected state is
// processed.
type RedirectHandler struct {
	state      string
	now        func() time.Time
	resultChan chan RedirectResult
	once       sync.Once
	tokenHit   bool
	mu         sync.Mutex
}

// NewRedirectHandler creates a new redirect handler expecting the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewRedirectHandler(state string) *RedirectHandler {
	return &RedirectHandler{
		state:      state,
		now:        time.Now,
		resultChan: make(chan RedirectResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *RedirectHandler) Routes() []string {
	return []string{"/redirect", "/token"}
}

// ServeHTTP dispatches to the fragment relay page or the token capture.
func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/redirect":
		h.serveRelay(w, r)
	case "/token":
		h.serveToken(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RedirectHandler) serveRelay(w http.ResponseWriter, r *http.Request) {
	// errors (e.g. access_denied) may arrive in the query instead of the fragment
	if r.URL.RawQuery != "" {
		http.Redirect(w, r, "/token?"+r.URL.RawQuery, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, relayPage)
}

// serveToken completes the login with the first request that carries the expected state.
// Requests with any other state are rejected without ending the wait.
func (h *RedirectHandler) serveToken(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != h.state {
		writeFailurePage(w)
		return
	}

	h.mu.Lock()
	if h.tokenHit {
		h.mu.Unlock()
		http.Error(w, "Redirect already processed", http.StatusBadRequest)
		return
	}
	h.tokenHit = true
	h.mu.Unlock()

	if errParam := query.Get("error"); errParam != "" {
		h.fail(w, fmt.Errorf("authorization denied: %s", errParam))
		return
	}

	session, err := models.NewSessionFromRedirect(query.Get("access_token"), query.Get("expires_in"), h.now())
	if err != nil {
		h.fail(w, fmt.Errorf("invalid redirect: %w", err))
		return
	}

	h.Send(RedirectResult{Session: session})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *RedirectHandler) fail(w http.ResponseWriter, err error) {
	h.Send(RedirectResult{err: err})
	writeFailurePage(w)
}

func writeFailurePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, failurePage, AuthorizeFailedMessage)
}

// Send sends the redirect result through the channel (only once).
func (h *RedirectHandler) Send(result RedirectResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving redirect completion.
//
// Channel will receive exactly one result and then be closed.
func (h *RedirectHandler) Result() <-chan RedirectResult {
	return h.resultChan
}

const pageStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; color: #fff; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        h1.error { color: #e22134; }
        p { color: #b3b3b3; margin: 0; }
    </style>`

const relayPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorizing</title>` + pageStyle + `
    <script>
        window.location.replace("/token?" + window.location.hash.substring(1));
    </script>
</head>
<body>
    <div class="container">
        <h1>Authorizing...</h1>
        <noscript><p>JavaScript is required to finish authorization.</p></noscript>
    </div>
</body>
</html>
`

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

const failurePage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Failed</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1 class="error">✗ %s</h1>
        <p>You can close this window and run the login again.</p>
    </div>
</body>
</html>
`
