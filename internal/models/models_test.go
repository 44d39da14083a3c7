package models

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/combitify/internal/shared"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestSession(t *testing.T) {
	t.Run("NewSessionFromRedirect", func(t *testing.T) {
		s, err := NewSessionFromRedirect("BQDtoken", "3600", now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.AccessToken != "BQDtoken" {
			t.Errorf("expected access token BQDtoken, got %s", s.AccessToken)
		}
		if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Errorf("expected expiry one hour from now, got %v", s.ExpiresAt)
		}
	})

	t.Run("NewSessionFromRedirect rejects bad input", func(t *testing.T) {
		tt := []struct {
			name      string
			token     string
			expiresIn string
		}{
			{name: "missing token", token: "", expiresIn: "3600"},
			{name: "non numeric expiry", token: "abc", expiresIn: "soon"},
			{name: "negative expiry", token: "abc", expiresIn: "-5"},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := NewSessionFromRedirect(tc.token, tc.expiresIn, now); err == nil {
					t.Error("expected error")
				}
			})
		}
	})

	t.Run("Valid", func(t *testing.T) {
		tt := []struct {
			name    string
			session *Session
			want    bool
		}{
			{name: "nil", session: nil, want: false},
			{name: "empty token", session: &Session{ExpiresAt: now.Add(time.Hour)}, want: false},
			{name: "zero expiry", session: &Session{AccessToken: "abc"}, want: false},
			{name: "expired", session: &Session{AccessToken: "abc", ExpiresAt: now.Add(-time.Second)}, want: false},
			{name: "expires exactly now", session: &Session{AccessToken: "abc", ExpiresAt: now}, want: false},
			{name: "future", session: &Session{AccessToken: "abc", ExpiresAt: now.Add(time.Minute)}, want: true},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := tc.session.Valid(now); got != tc.want {
					t.Errorf("Valid() = %v, want %v", got, tc.want)
				}
			})
		}
	})

	t.Run("Remaining and Token", func(t *testing.T) {
		s := &Session{AccessToken: "abc", ExpiresAt: now.Add(90 * time.Second)}
		if got := s.Remaining(now); got != 90*time.Second {
			t.Errorf("Remaining() = %v", got)
		}
		if got := s.Remaining(now.Add(time.Hour)); got != 0 {
			t.Errorf("Remaining() after expiry = %v", got)
		}

		tok := s.Token()
		if tok.AccessToken != "abc" || tok.TokenType != "Bearer" || !tok.Expiry.Equal(s.ExpiresAt) {
			t.Errorf("unexpected token %+v", tok)
		}
	})
}

func TestTrackIdentifier(t *testing.T) {
	tt := []struct {
		id   TrackIdentifier
		want bool
	}{
		{id: "spotify:track:4uLU6hMCjMI75M1A2tKUQC", want: true},
		{id: "", want: false},
		{id: "spotify:local:Artist:Album:Title:210", want: false},
		{id: "spotify:episode:512ojhOuo1ktJprKbVcKyQ", want: false},
		{id: "spotify:track:", want: false},
		{id: "spotify:track:short", want: false},
		{id: "spotify:track:4uLU6hMCjMI75M1A2tKU-C", want: false},
		{id: "spotify:track:4uLU6hMCjMI75M1A2tKUQCx", want: false},
		{id: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", want: false},
	}

	for _, tc := range tt {
		t.Run(string(tc.id), func(t *testing.T) {
			if got := tc.id.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	in := []TrackIdentifier{"a", "b", "c", "b", "c", "d", "a"}
	got := Dedupe(in)
	want := TrackList{"a", "b", "c", "d"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}

	if !reflect.DeepEqual(got.Strings(), []string{"a", "b", "c", "d"}) {
		t.Errorf("Strings() = %v", got.Strings())
	}

	if empty := Dedupe(nil); len(empty) != 0 {
		t.Errorf("expected empty list, got %v", empty)
	}
}

func TestSelectionSet(t *testing.T) {
	s := NewSelectionSet("p1", "p2", "p1")

	if s.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", s.Len())
	}

	if selected := s.Toggle("p3"); !selected {
		t.Error("expected p3 to be selected after toggle")
	}
	if selected := s.Toggle("p1"); selected {
		t.Error("expected p1 to be deselected after toggle")
	}

	if got, want := s.IDs(), []string{"p2", "p3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	ids := s.IDs()
	ids[0] = "mutated"
	if s.IDs()[0] != "p2" {
		t.Error("IDs() should return a copy")
	}

	s.Clear()
	if s.Len() != 0 || s.Has("p2") {
		t.Error("expected empty selection after Clear")
	}
}

func catalogWith(t *testing.T, total int, ids ...string) *PlaylistCatalog {
	t.Helper()
	c := NewPlaylistCatalog()
	page := &PlaylistPage{Total: total}
	for _, id := range ids {
		page.Items = append(page.Items, PlaylistSummary{ID: id, Name: "Playlist " + id, TrackCount: 10})
	}
	c.Append(page)
	return c
}

func TestPlaylistCatalog(t *testing.T) {
	t.Run("paging state", func(t *testing.T) {
		c := NewPlaylistCatalog()
		if !c.HasMore() {
			t.Error("empty catalog should ask for the first page")
		}

		c.Append(&PlaylistPage{Total: 3, Items: []PlaylistSummary{{ID: "a"}, {ID: "b"}}})
		if c.NextOffset() != 2 || !c.HasMore() {
			t.Errorf("expected offset 2 with more pages, got %d %v", c.NextOffset(), c.HasMore())
		}

		c.Append(&PlaylistPage{Total: 3, Offset: 2, Items: []PlaylistSummary{{ID: "c"}}})
		if c.HasMore() {
			t.Error("expected catalog to be complete")
		}
		if c.Len() != 3 || c.Total() != 3 {
			t.Errorf("expected 3 playlists, got %d/%d", c.Len(), c.Total())
		}
	})

	t.Run("empty account", func(t *testing.T) {
		c := NewPlaylistCatalog()
		c.Append(&PlaylistPage{Total: 0})
		if c.HasMore() {
			t.Error("expected no more pages for empty account")
		}
	})

	t.Run("items past the reported total are dropped", func(t *testing.T) {
		c := NewPlaylistCatalog()
		added := c.Append(&PlaylistPage{Total: 2, Items: []PlaylistSummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
		if added != 2 || c.Len() != 2 {
			t.Errorf("expected 2 playlists, added %d, len %d", added, c.Len())
		}
		if c.HasMore() || c.NextOffset() != 2 {
			t.Errorf("expected complete catalog at offset 2, got %d %v", c.NextOffset(), c.HasMore())
		}
	})

	t.Run("duplicate ids are skipped", func(t *testing.T) {
		c := catalogWith(t, 3, "a", "b")
		added := c.Append(&PlaylistPage{Total: 3, Items: []PlaylistSummary{{ID: "b"}, {ID: "c"}}})
		if added != 1 || c.Len() != 3 {
			t.Errorf("expected one new playlist, added %d, len %d", added, c.Len())
		}
	})

	t.Run("selection stays within loaded playlists", func(t *testing.T) {
		c := catalogWith(t, 2, "a", "b")

		if _, err := c.Toggle("zzz"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if err := c.Select("a", "zzz"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if c.SelectedCount() != 0 {
			t.Errorf("failed Select should not change selection, got %d", c.SelectedCount())
		}
	})

	t.Run("selected preserves selection order", func(t *testing.T) {
		c := catalogWith(t, 3, "a", "b", "c")

		if err := c.Select("c", "a"); err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		var got []string
		for _, pl := range c.Selected() {
			got = append(got, pl.ID)
		}
		if !reflect.DeepEqual(got, []string{"c", "a"}) {
			t.Errorf("Selected() order = %v", got)
		}
		if c.SelectedTrackCount() != 20 {
			t.Errorf("SelectedTrackCount() = %d", c.SelectedTrackCount())
		}
	})

	t.Run("ToggleAll", func(t *testing.T) {
		c := catalogWith(t, 3, "a", "b", "c")
		if _, err := c.Toggle("b"); err != nil {
			t.Fatal(err)
		}

		c.ToggleAll()
		if !c.AllSelected() {
			t.Fatal("expected all playlists selected")
		}
		if c.Selected()[0].ID != "b" {
			t.Error("previously selected playlist should stay first")
		}

		c.ToggleAll()
		if c.SelectedCount() != 0 {
			t.Error("expected selection cleared")
		}
	})
}

func TestTheme(t *testing.T) {
	if ParseTheme("light") != ThemeLight {
		t.Error("expected light theme")
	}
	if ParseTheme("anything") != ThemeDark {
		t.Error("expected dark theme as default")
	}
	if ThemeDark.Toggle() != ThemeLight || ThemeLight.Toggle() != ThemeDark {
		t.Error("Toggle() should flip between themes")
	}
}

func TestAggregationRun(t *testing.T) {
	run := NewAggregationRun("run-1", "validating_session", 2, now)
	if err := run.Validate(); err != nil {
		t.Fatalf("expected valid run, got %v", err)
	}

	finished := now.Add(time.Minute)
	run.Finish("done", "", &DestinationPlaylist{ID: "dest", URL: "https://open.spotify.com/playlist/dest"}, 250, 250, finished)

	s := run.Snapshot()
	if s.State != "done" || s.DestinationID != "dest" || s.Committed != 250 {
		t.Errorf("unexpected snapshot %+v", s)
	}
	if run.FinishedAt() == nil || !run.FinishedAt().Equal(finished) {
		t.Errorf("expected finished at %v", finished)
	}

	run.Finish("failed", "write-failed", nil, 10, 20, finished)
	if err := run.Validate(); err == nil {
		t.Error("expected committed > track count to be invalid")
	}

	if err := NewAggregationRun("", "done", 0, now).Validate(); err == nil {
		t.Error("expected missing id to be invalid")
	}
}
