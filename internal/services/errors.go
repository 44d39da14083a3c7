package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/combitify/internal/shared"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// Is matches [shared.ErrAPIRequest] for every status and [shared.ErrTokenExpired] for 401.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrTokenExpired:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}
