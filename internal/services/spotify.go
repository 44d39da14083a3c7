// Spotify API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	maxPageSize     = 50
	defaultPageSize = 20
)

// MaxTracksPerWrite is the largest number of identifiers accepted by one add-tracks call.
const MaxTracksPerWrite = 100

// DefaultScopes are the permissions needed to read private playlists and create the combined one.
var DefaultScopes = []string{"playlist-read-private", "playlist-modify-private"}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	ExternalURLs externalURLs         `json:"external_urls"`
	Tracks       simplePlaylistTracks `json:"tracks"`
	Images       []SpotifyImage       `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type trackRef struct {
	URI string `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is null for removed content.
type SpotifyPlaylistTrack struct {
	AddedAt string    `json:"added_at"`
	Track   *trackRef `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of playlist tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyPlaylist represents a created playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	// BaseURL overrides the Web API root, used by tests.
	BaseURL string
	// AuthURL overrides the accounts authorize endpoint.
	AuthURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// SpotifyService implements [Provider] for the Spotify Web API.
//
// Authorization uses the implicit grant: the service builds the authorize URL, and the
// resulting bearer token is attached with [SpotifyService.Authenticate]. Tokens are not refreshed.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	base       *http.Client
	httpClient *http.Client
	session    *models.Session
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service.
func NewSpotifyService(opts SpotifyOptions) *SpotifyService {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL := opts.AuthURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      scopes,
			Endpoint:    oauth2.Endpoint{AuthURL: authURL},
		},
		baseURL:    baseURL,
		base:       client,
		httpClient: client,
		logger:     logger,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthorizeURL returns the implicit grant authorization URL for user login.
func (s *SpotifyService) AuthorizeURL(state string) (string, error) {
	if s.config.ClientID == "" {
		return "", fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if s.config.RedirectURL == "" {
		return "", fmt.Errorf("%w: spotify redirect_uri", shared.ErrMissingCredentials)
	}
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token")), nil
}

// Authenticate attaches the session's access token to every subsequent request.
//
// The wrapped transport keeps the configured client's timeout.
func (s *SpotifyService) Authenticate(session *models.Session) error {
	if session == nil || session.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	s.session = session
	s.httpClient = &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(session.Token()),
			Base:   s.base.Transport,
		},
		Timeout: s.base.Timeout,
	}
	return nil
}

// doRequest performs an authenticated HTTP request to the Spotify API, encoding body as JSON when set.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.session == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func pageQuery(limit, offset int) string {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(clampLimit(limit)))
	q.Set("offset", fmt.Sprint(max(offset, 0)))
	return q.Encode()
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*models.PlaylistPage, error) {
	endpoint := "/me/playlists?" + pageQuery(limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &models.PlaylistPage{
		Total:  response.Total,
		Offset: response.Offset,
		Items:  make([]models.PlaylistSummary, 0, len(response.Items)),
	}
	for _, sp := range response.Items {
		summary := models.PlaylistSummary{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			URL:         sp.ExternalURLs.Spotify,
			TrackCount:  sp.Tracks.Total,
		}
		if len(sp.Images) > 0 {
			summary.ImageURL = sp.Images[0].URL
		}
		page.Items = append(page.Items, summary)
	}
	return page, nil
}

// PlaylistTracks retrieves one page of a playlist's track URIs.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), pageQuery(limit, offset))

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &TrackPage{
		Total:  response.Total,
		Offset: response.Offset,
		Items:  make([]models.TrackIdentifier, 0, len(response.Items)),
	}
	for _, item := range response.Items {
		var uri string
		if item.Track != nil {
			uri = item.Track.URI
		}
		page.Items = append(page.Items, models.TrackIdentifier(uri))
	}
	return page, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.DestinationPlaylist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := map[string]any{"name": name, "public": public}

	var created SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	if created.Name == "" {
		created.Name = name
	}
	return &models.DestinationPlaylist{
		ID:   created.ID,
		Name: created.Name,
		URL:  created.ExternalURLs.Spotify,
	}, nil
}

// AddTracks appends uris to the end of a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track uris provided", shared.ErrInvalidArgument)
	}
	if len(uris) > MaxTracksPerWrite {
		return fmt.Errorf("%w: maximum %d track uris allowed", shared.ErrInvalidArgument, MaxTracksPerWrite)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, map[string][]string{"uris": uris}, nil)
}
