package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
)

// Failure reasons recorded on runs and shown to users.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonFetchFailed     = "fetch-failed"
	ReasonCreateFailed    = "create-failed"
	ReasonWriteFailed     = "write-failed"
	ReasonFailed          = "failed"
)

// FetchFailedError reports a failed page request. StatusCode is 0 for transport errors.
type FetchFailedError struct {
	ResourceID string
	Offset     int
	StatusCode int
	Err        error
}

func (e *FetchFailedError) Error() string {
	resource := e.ResourceID
	if resource == "" {
		resource = "collection"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s at offset %d (status %d): %v", resource, e.Offset, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s at offset %d: %v", resource, e.Offset, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// CreateFailedError reports a failed destination playlist creation. No tracks were written.
type CreateFailedError struct {
	UserID     string
	StatusCode int
	Err        error
}

func (e *CreateFailedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to create playlist for user %s (status %d): %v", e.UserID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to create playlist for user %s: %v", e.UserID, e.Err)
}

func (e *CreateFailedError) Unwrap() error { return e.Err }

// WriteFailedError reports a failed chunk write. Committed tracks stay on the destination.
type WriteFailedError struct {
	DestinationID string
	ChunkIndex    int
	Committed     int
	StatusCode    int
	Err           error
}

func (e *WriteFailedError) Error() string {
	msg := fmt.Sprintf("failed to write chunk %d to playlist %s after %d committed %s",
		e.ChunkIndex, e.DestinationID, e.Committed, shared.Pluralize(e.Committed, "track", "tracks"))
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg + ": " + e.Err.Error()
}

func (e *WriteFailedError) Unwrap() error { return e.Err }

// statusCode extracts the provider status from err, or 0 when the request never got a response.
func statusCode(err error) int {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Reason maps a run error to its failure reason. A provider 401 counts as unauthenticated
// regardless of the phase it failed in.
func Reason(err error) string {
	var (
		fetchErr  *FetchFailedError
		createErr *CreateFailedError
		writeErr  *WriteFailedError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return ReasonUnauthenticated
	case errors.As(err, &fetchErr):
		return ReasonFetchFailed
	case errors.As(err, &createErr):
		return ReasonCreateFailed
	case errors.As(err, &writeErr):
		return ReasonWriteFailed
	default:
		return ReasonFailed
	}
}
