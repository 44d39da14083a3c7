package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/server"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/urfave/cli/v3"
)

// sessionStatus is the JSON shape printed by `auth status`.
type sessionStatus struct {
	LoggedIn    bool       `json:"logged_in"`
	Valid       bool       `json:"valid"`
	UserID      string     `json:"user_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Remaining   string     `json:"remaining,omitempty"`
}

// AuthLogin performs the implicit grant flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and stores the session
// captured from the redirect.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if !r.config.HasSpotifyClient() {
		return fmt.Errorf("%w: credentials.spotify.client_id is not set", shared.ErrMissingCredentials)
	}
	if err := r.ensureServices(); err != nil {
		return err
	}

	auth, ok := r.provider.(authorizer)
	if !ok {
		return fmt.Errorf("%w: %s does not support browser authorization", shared.ErrServiceUnavailable, r.provider.Name())
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL, err := auth.AuthorizeURL(state)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	openURL := r.openURL
	if cmd.Bool("no-browser") {
		openURL = func(string) error { return errors.New("browser disabled") }
	}

	session, err := r.captureSession(ctx, listener, state, authURL, openURL, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.finishLogin(ctx, session); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if session.DisplayName != "" {
		r.writePlain("✓ Logged in as %s\n", session.DisplayName)
	}
	r.writePlain("✓ Session expires in %s\n\n", session.Remaining(r.now()).Round(time.Second))
	r.writePlain("You can now use: combitify playlists\n")

	return nil
}

// captureSession serves the redirect handler on listener until a session arrives, the timeout
// passes or ctx is cancelled. The server is shut down before returning.
func (r *Runner) captureSession(
	ctx context.Context, listener net.Listener, state, authURL string, openURL func(string) error, timeout time.Duration,
) (*models.Session, error) {
	handler := server.NewRedirectHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger), server.NoStore)
	router.Handler(handler)
	router.Handle(http.MethodGet, "/", http.RedirectHandler(authURL, http.StatusFound))

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting redirect server at %v", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := openURL(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.RedirectResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Session == nil {
		return nil, fmt.Errorf("%w: no session received", shared.ErrAuthFailed)
	}

	return result.Session, nil
}

// finishLogin stores session and caches the user's profile on it.
//
// A failed profile lookup is logged and leaves the session without a user id; the engine
// looks the user up again when it needs one.
func (r *Runner) finishLogin(ctx context.Context, session *models.Session) error {
	if err := r.ensureServices(); err != nil {
		return err
	}

	if err := r.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := r.provider.Authenticate(session); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	user, err := r.provider.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn("failed to load profile", "error", err)
		return nil
	}

	if err := r.sessions.UpdateProfile(ctx, user.ID, user.DisplayName); err != nil {
		r.logger.Warn("failed to store profile", "error", err)
		return nil
	}

	session.UserID = user.ID
	session.DisplayName = user.DisplayName
	r.logger.Info("logged in", "user", user.ID)
	return nil
}

// AuthStatus prints the stored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureServices(); err != nil {
		return err
	}

	status := sessionStatus{}
	session, err := r.sessions.Load(ctx)
	switch {
	case errors.Is(err, shared.ErrSessionNotFound):
	case err != nil:
		return err
	default:
		now := r.now()
		status.LoggedIn = true
		status.Valid = session.Valid(now)
		status.UserID = session.UserID
		status.DisplayName = session.DisplayName
		status.ExpiresAt = &session.ExpiresAt
		if status.Valid {
			status.Remaining = session.Remaining(now).Round(time.Second).String()
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.LoggedIn {
		r.writePlain("Not logged in. Run 'combitify auth login'.\n")
		return nil
	}

	name := status.DisplayName
	if name == "" {
		name = "unknown user"
	}
	r.writePlain("Logged in as %s\n", name)
	if status.UserID != "" {
		r.writePlain("User ID: %s\n", status.UserID)
	}
	if status.Valid {
		r.writePlain("Session: valid, expires in %s (%s)\n", status.Remaining, session.ExpiresAt.Local().Format(time.DateTime))
	} else {
		r.writePlain("Session: expired at %s. Run 'combitify auth login'.\n", session.ExpiresAt.Local().Format(time.DateTime))
	}

	return nil
}

// AuthLogout removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureServices(); err != nil {
		return err
	}

	if err := r.sessions.Clear(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Logged out\n")
	return nil
}
