// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
)

// TrackCall records one PlaylistTracks request.
type TrackCall struct {
	PlaylistID string
	Offset     int
	Limit      int
}

// CreateCall records one CreatePlaylist request.
type CreateCall struct {
	UserID string
	Name   string
	Public bool
}

// MockProvider is an in-memory test double for [services.Provider].
//
// Playlist tracks are served from Tracks in pages. TrackTotals overrides the reported total
// for a playlist, which lets tests simulate providers that report more items than they return.
type MockProvider struct {
	mu sync.Mutex

	User        *models.User
	Playlists   []models.PlaylistSummary
	Tracks      map[string][]models.TrackIdentifier
	TrackTotals map[string]int
	Destination *models.DestinationPlaylist

	UserErr      error
	PlaylistsErr error
	CreateErr    error
	// FailTracks returns an error for a given track page request, or nil.
	FailTracks func(playlistID string, offset int) error
	// FailAdd returns an error for the n-th (0 based) AddTracks call, or nil.
	FailAdd func(call int) error

	Session       *models.Session
	UserCalls     int
	PlaylistCalls []TrackCall
	TrackCalls    []TrackCall
	CreateCalls   []CreateCall
	Written       [][]string
}

var _ services.Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Authenticate(session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session == nil || session.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}
	m.Session = session
	return nil
}

func (m *MockProvider) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserCalls++
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User == nil {
		return &models.User{ID: "mock-user", DisplayName: "Mock User"}, nil
	}
	return m.User, nil
}

func (m *MockProvider) UserPlaylists(ctx context.Context, limit, offset int) (*models.PlaylistPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlaylistCalls = append(m.PlaylistCalls, TrackCall{Offset: offset, Limit: limit})
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}

	lo, hi := window(len(m.Playlists), offset, limit)
	return &models.PlaylistPage{
		Total:  len(m.Playlists),
		Offset: offset,
		Items:  append([]models.PlaylistSummary(nil), m.Playlists[lo:hi]...),
	}, nil
}

func (m *MockProvider) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackCalls = append(m.TrackCalls, TrackCall{PlaylistID: playlistID, Offset: offset, Limit: limit})
	if m.FailTracks != nil {
		if err := m.FailTracks(playlistID, offset); err != nil {
			return nil, err
		}
	}

	all := m.Tracks[playlistID]
	total := len(all)
	if t, ok := m.TrackTotals[playlistID]; ok {
		total = t
	}

	lo, hi := window(len(all), offset, limit)
	return &services.TrackPage{
		Total:  total,
		Offset: offset,
		Items:  append([]models.TrackIdentifier(nil), all[lo:hi]...),
	}, nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.DestinationPlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, CreateCall{UserID: userID, Name: name, Public: public})
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Destination != nil {
		return m.Destination, nil
	}
	return &models.DestinationPlaylist{
		ID:   "dest",
		Name: name,
		URL:  "https://open.spotify.com/playlist/dest",
	}, nil
}

func (m *MockProvider) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.Written)
	if m.FailAdd != nil {
		if err := m.FailAdd(call); err != nil {
			m.Written = append(m.Written, nil)
			return err
		}
	}
	m.Written = append(m.Written, append([]string(nil), uris...))
	return nil
}

// WrittenURIs flattens every successful AddTracks call in order.
func (m *MockProvider) WrittenURIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, chunk := range m.Written {
		out = append(out, chunk...)
	}
	return out
}

// NetworkCalls is the total number of provider calls made.
func (m *MockProvider) NetworkCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UserCalls + len(m.PlaylistCalls) + len(m.TrackCalls) + len(m.CreateCalls) + len(m.Written)
}

func window(n, offset, limit int) (int, int) {
	lo := min(max(offset, 0), n)
	hi := min(lo+max(limit, 0), n)
	return lo, hi
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
