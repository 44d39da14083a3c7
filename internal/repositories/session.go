package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

// SessionRepository stores the single authorized session.
//
// Saving replaces any previous session. It satisfies tasks.SessionSource.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Save stores session, replacing the current one.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.AccessToken == "" {
		return fmt.Errorf("%w: session has no access token", shared.ErrInvalidInput)
	}
	if session.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: session has no expiry", shared.ErrInvalidInput)
	}

	now := r.now()
	query := `
		INSERT INTO sessions (id, access_token, expires_at, user_id, display_name, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			display_name = excluded.display_name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		session.AccessToken,
		session.ExpiresAt.UTC(),
		session.UserID,
		session.DisplayName,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session, or [shared.ErrSessionNotFound]. Expired sessions are returned as stored.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	query := `SELECT access_token, expires_at, user_id, display_name FROM sessions WHERE id = 1`

	var s models.Session
	err := r.db.QueryRowContext(ctx, query).Scan(&s.AccessToken, &s.ExpiresAt, &s.UserID, &s.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

// UpdateProfile records the account the session belongs to.
func (r *SessionRepository) UpdateProfile(ctx context.Context, userID, displayName string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = ?, display_name = ?, updated_at = ? WHERE id = 1`,
		userID, displayName, r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrSessionNotFound
	}
	return nil
}

// Clear removes the stored session. Clearing when none is stored is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
