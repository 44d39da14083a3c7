package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

func testPlaylists() []models.PlaylistSummary {
	return []models.PlaylistSummary{
		{ID: "pl1", Name: "Morning", URL: "https://open.spotify.com/playlist/pl1", TrackCount: 12, Description: "Coffee, then more coffee"},
		{ID: "pl2", Name: "Run | Fast", URL: "https://open.spotify.com/playlist/pl2", TrackCount: 1},
	}
}

func TestPlaylistExporters(t *testing.T) {
	t.Run("PlaylistsToCSV", func(t *testing.T) {
		data, err := PlaylistsToCSV(testPlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Name,Tracks,URL,Description" {
			t.Errorf("unexpected headers %q", lines[0])
		}
		if !strings.Contains(lines[1], `"Coffee, then more coffee"`) {
			t.Errorf("expected quoted description, got %q", lines[1])
		}
		if !strings.HasPrefix(lines[2], "pl2,Run | Fast,1,") {
			t.Errorf("unexpected row %q", lines[2])
		}
	})

	t.Run("PlaylistsToMarkdown", func(t *testing.T) {
		data, err := PlaylistsToMarkdown(testPlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Playlists",
			"**Playlists**: 2",
			"**Tracks**: 13",
			"| 1 | [Morning](https://open.spotify.com/playlist/pl1) | 12 | `pl1` |",
			`Run \| Fast`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("PlaylistsToMarkdown Empty", func(t *testing.T) {
		data, _ := PlaylistsToMarkdown(nil)
		if strings.Contains(string(data), "|---|") {
			t.Error("empty listing should not render a table")
		}
	})

	t.Run("PlaylistsToText", func(t *testing.T) {
		data, err := PlaylistsToText(testPlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "1. Morning (12 tracks) [pl1]") {
			t.Errorf("unexpected first line:\n%s", output)
		}
		if !strings.Contains(output, "2. Run | Fast (1 track) [pl2]") {
			t.Errorf("unexpected second line:\n%s", output)
		}
		if !strings.Contains(output, "Total: 2 playlists containing 13 tracks") {
			t.Errorf("missing total line:\n%s", output)
		}
	})

	t.Run("Playlists Dispatch", func(t *testing.T) {
		tt := []struct {
			format string
			want   string
		}{
			{format: "", want: "Total:"},
			{format: "text", want: "Total:"},
			{format: "CSV", want: "ID,Name"},
			{format: "markdown", want: "# Playlists"},
			{format: "md", want: "# Playlists"},
		}

		for _, tc := range tt {
			data, err := Playlists(tc.format, testPlaylists())
			if err != nil {
				t.Errorf("format %q: unexpected error %v", tc.format, err)
				continue
			}
			if !strings.Contains(string(data), tc.want) {
				t.Errorf("format %q: expected %q in output", tc.format, tc.want)
			}
		}

		if _, err := Playlists("xml", nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WritePlaylists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "playlists.csv")

		if err := WritePlaylists("csv", testPlaylists(), path); err != nil {
			t.Fatalf("WritePlaylists failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !strings.HasPrefix(string(data), "ID,Name,Tracks") {
			t.Errorf("unexpected file contents %q", data)
		}
	})
}

func TestSelectionSummary(t *testing.T) {
	tt := []struct {
		name     string
		selected []models.PlaylistSummary
		want     string
	}{
		{name: "Empty", want: "0 playlists selected containing total 0 tracks"},
		{name: "Single", selected: testPlaylists()[1:], want: "1 playlist selected containing total 1 track"},
		{name: "Many", selected: testPlaylists(), want: "2 playlists selected containing total 13 tracks"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectionSummary(tc.selected); got != tc.want {
				t.Errorf("SelectionSummary() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunFormatting(t *testing.T) {
	started := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	finished := started.Add(2500 * time.Millisecond)

	done := models.RunSnapshot{
		ID: "run-1", Sequence: 2, State: "done", SourceCount: 3, TrackCount: 250, Committed: 250,
		DestinationURL: "https://open.spotify.com/playlist/dest", StartedAt: started, FinishedAt: &finished,
	}
	failed := models.RunSnapshot{
		ID: "run-0", Sequence: 1, State: "failed", Reason: "write-failed", SourceCount: 1,
		TrackCount: 250, Committed: 100, StartedAt: started,
	}

	t.Run("RunToText", func(t *testing.T) {
		output := string(RunToText(done))
		for _, want := range []string{
			"Run: run-1",
			"State: done",
			"Sources: 3 playlists",
			"Tracks: 250 unique, 250 written",
			"Playlist: https://open.spotify.com/playlist/dest",
			"Duration: 2.5s",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("missing %q in:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Reason:") {
			t.Error("successful run should not print a reason")
		}

		output = string(RunToText(failed))
		if !strings.Contains(output, "Reason: write-failed") || strings.Contains(output, "Duration:") {
			t.Errorf("unexpected failed run output:\n%s", output)
		}
	})

	t.Run("RunsToText", func(t *testing.T) {
		output := string(RunsToText([]models.RunSnapshot{done, failed}))
		lines := strings.Split(strings.TrimSpace(output), "\n")

		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(lines))
		}
		if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[0], "PLAYLIST") {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "2 ") || !strings.Contains(lines[1], "https://open.spotify.com/playlist/dest") {
			t.Errorf("unexpected row %q", lines[1])
		}
		if !strings.Contains(lines[2], "write-failed") || !strings.HasSuffix(lines[2], "-") {
			t.Errorf("unexpected row %q", lines[2])
		}
	})

	t.Run("RunsToText Empty", func(t *testing.T) {
		if got := string(RunsToText(nil)); got != "No runs recorded\n" {
			t.Errorf("unexpected output %q", got)
		}
	})
}
