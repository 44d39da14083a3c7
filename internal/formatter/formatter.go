// package formatter renders playlist listings and run history as plain text, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

// Format names accepted by [Playlists].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatCSV, FormatMarkdown}

// Playlists renders a playlist listing in the named format.
func Playlists(format string, playlists []models.PlaylistSummary) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return PlaylistsToText(playlists)
	case FormatCSV:
		return PlaylistsToCSV(playlists)
	case FormatMarkdown, "md":
		return PlaylistsToMarkdown(playlists)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// PlaylistsToCSV converts playlists to CSV with columns: ID, Name, Tracks, URL, Description
func PlaylistsToCSV(playlists []models.PlaylistSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Tracks", "URL", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range playlists {
		record := []string{p.ID, p.Name, strconv.Itoa(p.TrackCount), p.URL, p.Description}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToMarkdown converts playlists to a Markdown table with a total line
func PlaylistsToMarkdown(playlists []models.PlaylistSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Playlists\n\n")
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n", len(playlists)))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", totalTracks(playlists)))

	if len(playlists) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Name | Tracks | ID |\n")
	buf.WriteString("|---|------|--------|----|\n")
	for i, p := range playlists {
		name := escapeCell(p.Name)
		if p.URL != "" {
			name = fmt.Sprintf("[%s](%s)", name, p.URL)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %d | `%s` |\n", i+1, name, p.TrackCount, p.ID))
	}

	return buf.Bytes(), nil
}

// PlaylistsToText converts playlists to a numbered plain text listing
func PlaylistsToText(playlists []models.PlaylistSummary) ([]byte, error) {
	var buf bytes.Buffer

	for i, p := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s (%d %s) [%s]\n", i+1, p.Name, p.TrackCount, shared.Pluralize(p.TrackCount, "track", "tracks"), p.ID))
	}

	tracks := totalTracks(playlists)
	buf.WriteString(fmt.Sprintf("\nTotal: %d %s containing %d %s\n",
		len(playlists), shared.Pluralize(len(playlists), "playlist", "playlists"),
		tracks, shared.Pluralize(tracks, "track", "tracks"),
	))

	return buf.Bytes(), nil
}

// SelectionSummary renders the "N playlists selected containing total M tracks" status line.
func SelectionSummary(selected []models.PlaylistSummary) string {
	tracks := totalTracks(selected)
	return fmt.Sprintf("%d %s selected containing total %d %s",
		len(selected), shared.Pluralize(len(selected), "playlist", "playlists"),
		tracks, shared.Pluralize(tracks, "track", "tracks"),
	)
}

// RunToText summarizes a single run.
func RunToText(run models.RunSnapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run: %s\n", run.ID))
	buf.WriteString(fmt.Sprintf("State: %s\n", run.State))
	if run.Reason != "" {
		buf.WriteString(fmt.Sprintf("Reason: %s\n", run.Reason))
	}
	buf.WriteString(fmt.Sprintf("Sources: %d %s\n", run.SourceCount, shared.Pluralize(run.SourceCount, "playlist", "playlists")))
	buf.WriteString(fmt.Sprintf("Tracks: %d unique, %d written\n", run.TrackCount, run.Committed))
	if run.DestinationURL != "" {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", run.DestinationURL))
	}
	buf.WriteString(fmt.Sprintf("Started: %s\n", run.StartedAt.Format(time.DateTime)))
	if run.FinishedAt != nil {
		buf.WriteString(fmt.Sprintf("Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)))
	}

	return buf.Bytes()
}

// RunsToText renders run history as an aligned table, newest first as given.
func RunsToText(runs []models.RunSnapshot) []byte {
	if len(runs) == 0 {
		return []byte("No runs recorded\n")
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%-4s %-19s %-20s %-16s %7s %7s  %s\n", "#", "STARTED", "STATE", "REASON", "TRACKS", "WRITTEN", "PLAYLIST"))

	for _, r := range runs {
		reason := r.Reason
		if reason == "" {
			reason = "-"
		}
		dest := r.DestinationURL
		if dest == "" {
			dest = "-"
		}
		buf.WriteString(fmt.Sprintf("%-4d %-19s %-20s %-16s %7d %7d  %s\n",
			r.Sequence, r.StartedAt.Format(time.DateTime), r.State, reason, r.TrackCount, r.Committed, dest))
	}

	return buf.Bytes()
}

// WritePlaylists renders playlists in the named format and writes them to path.
func WritePlaylists(format string, playlists []models.PlaylistSummary, path string) error {
	data, err := Playlists(format, playlists)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func totalTracks(playlists []models.PlaylistSummary) int {
	total := 0
	for _, p := range playlists {
		total += p.TrackCount
	}
	return total
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
