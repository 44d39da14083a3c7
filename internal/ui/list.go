package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

var (
	_ list.Item         = playlistItem{}
	_ list.Item         = loadMoreItem{}
	_ list.ItemDelegate = (*checkboxDelegate)(nil)
)

// playlistItem wraps [models.PlaylistSummary] with its selection state to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistSummary
	selected bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d %s", i.playlist.TrackCount, shared.Pluralize(i.playlist.TrackCount, "track", "tracks"))
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// loadMoreItem is the trailing row shown while the account has playlists that are not loaded.
type loadMoreItem struct {
	remaining int
}

func (i loadMoreItem) FilterValue() string { return "" }
func (i loadMoreItem) Title() string       { return "Load more" }
func (i loadMoreItem) Description() string {
	return fmt.Sprintf("%d more %s", i.remaining, shared.Pluralize(i.remaining, "playlist", "playlists"))
}

// checkboxDelegate renders playlists as a checkbox list.
type checkboxDelegate struct {
	palette *Palette
}

func (d *checkboxDelegate) Height() int                             { return 2 }
func (d *checkboxDelegate) Spacing() int                            { return 1 }
func (d *checkboxDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d *checkboxDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var title, desc string

	switch it := item.(type) {
	case playlistItem:
		box := "[ ]"
		if it.selected {
			box = "[x]"
		}
		title = fmt.Sprintf("%s %s", box, it.Title())
		desc = "    " + it.Description()
	case loadMoreItem:
		title = "  + " + it.Title()
		desc = "    " + it.Description()
	default:
		return
	}

	if index == m.Index() {
		fmt.Fprintf(w, "%s\n%s", d.palette.cursor.Render("> "+title), d.palette.help.Render("  "+desc))
		return
	}
	fmt.Fprintf(w, "%s\n%s", d.palette.text.Render("  "+title), d.palette.help.Render("  "+desc))
}

// catalogItems converts the catalog into list items, with a trailing load more row when needed.
func catalogItems(catalog *models.PlaylistCatalog) []list.Item {
	playlists := catalog.Playlists()
	items := make([]list.Item, 0, len(playlists)+1)

	for _, pl := range playlists {
		items = append(items, playlistItem{playlist: pl, selected: catalog.IsSelected(pl.ID)})
	}

	if catalog.HasMore() {
		items = append(items, loadMoreItem{remaining: max(catalog.Total()-catalog.NextOffset(), 0)})
	}

	return items
}
