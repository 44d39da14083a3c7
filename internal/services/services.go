// package services defines the [Provider] interface for the playlist provider HTTP API
package services

import (
	"context"

	"github.com/desertthunder/combitify/internal/models"
)

// Provider is the set of remote operations a combine run needs.
type Provider interface {
	// Authenticate attaches the session's bearer credential to subsequent requests.
	Authenticate(session *models.Session) error

	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*models.User, error)

	// UserPlaylists returns one page of the user's playlists.
	UserPlaylists(ctx context.Context, limit, offset int) (*models.PlaylistPage, error)

	// PlaylistTracks returns one page of raw track references for a playlist.
	// Entries without a track are returned as empty identifiers so that page sizes add up to the total.
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.DestinationPlaylist, error)

	// AddTracks appends up to [MaxTracksPerWrite] identifiers to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TrackPage is one page of a playlist's track references.
type TrackPage struct {
	Total  int
	Offset int
	Items  []models.TrackIdentifier
}
