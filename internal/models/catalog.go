package models

import (
	"fmt"

	"github.com/desertthunder/combitify/internal/shared"
)

// PlaylistCatalog is the collection of playlists loaded so far plus the user's selection.
//
// The catalog only grows. Selection changes are limited to loaded playlists so the
// selection is always a subset of the catalog.
type PlaylistCatalog struct {
	items     []PlaylistSummary
	index     map[string]int
	total     int
	received  int
	loaded    bool
	selection *SelectionSet
}

// NewPlaylistCatalog returns an empty catalog with nothing loaded.
func NewPlaylistCatalog() *PlaylistCatalog {
	return &PlaylistCatalog{
		index:     make(map[string]int),
		selection: NewSelectionSet(),
	}
}

// Append adds a page to the catalog and records the reported total.
// Playlists already present are skipped, as are items past the reported total.
// Returns the number of playlists added.
func (c *PlaylistCatalog) Append(page *PlaylistPage) int {
	if page == nil {
		return 0
	}

	items := page.Items
	if remaining := page.Total - c.received; len(items) > remaining {
		items = items[:max(remaining, 0)]
	}

	c.loaded = true
	c.total = page.Total
	c.received += len(items)

	added := 0
	for _, pl := range items {
		if _, ok := c.index[pl.ID]; ok {
			continue
		}
		c.index[pl.ID] = len(c.items)
		c.items = append(c.items, pl)
		added++
	}
	return added
}

// NextOffset is the offset of the next page to request.
func (c *PlaylistCatalog) NextOffset() int { return c.received }

// HasMore reports whether the provider has playlists that are not loaded yet.
func (c *PlaylistCatalog) HasMore() bool {
	return !c.loaded || c.received < c.total
}

// Total is the playlist count reported by the provider on the last page.
func (c *PlaylistCatalog) Total() int { return c.total }

// Len is the number of loaded playlists.
func (c *PlaylistCatalog) Len() int { return len(c.items) }

// Playlists returns a copy of the loaded playlists in display order.
func (c *PlaylistCatalog) Playlists() []PlaylistSummary {
	out := make([]PlaylistSummary, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the loaded playlist with id.
func (c *PlaylistCatalog) Get(id string) (PlaylistSummary, bool) {
	i, ok := c.index[id]
	if !ok {
		return PlaylistSummary{}, false
	}
	return c.items[i], true
}

// Toggle flips the selection state of a loaded playlist and returns whether it is now selected.
func (c *PlaylistCatalog) Toggle(id string) (bool, error) {
	if _, ok := c.index[id]; !ok {
		return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return c.selection.Toggle(id), nil
}

// Select adds each id to the selection, failing without changes if any id is not loaded.
func (c *PlaylistCatalog) Select(ids ...string) error {
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
	}
	for _, id := range ids {
		c.selection.Add(id)
	}
	return nil
}

// SelectAll selects every loaded playlist, keeping already selected ones first.
func (c *PlaylistCatalog) SelectAll() {
	for _, pl := range c.items {
		c.selection.Add(pl.ID)
	}
}

// DeselectAll clears the selection.
func (c *PlaylistCatalog) DeselectAll() { c.selection.Clear() }

// ToggleAll deselects everything when all loaded playlists are selected and selects all otherwise.
func (c *PlaylistCatalog) ToggleAll() {
	if c.AllSelected() {
		c.DeselectAll()
		return
	}
	c.SelectAll()
}

// AllSelected reports whether every loaded playlist is selected.
func (c *PlaylistCatalog) AllSelected() bool {
	return len(c.items) > 0 && c.selection.Len() == len(c.items)
}

// IsSelected reports whether id is selected.
func (c *PlaylistCatalog) IsSelected(id string) bool { return c.selection.Has(id) }

// SelectedCount is the number of selected playlists.
func (c *PlaylistCatalog) SelectedCount() int { return c.selection.Len() }

// Selected resolves the selection against the loaded playlists, in selection order.
func (c *PlaylistCatalog) Selected() []PlaylistSummary {
	ids := c.selection.IDs()
	out := make([]PlaylistSummary, 0, len(ids))
	for _, id := range ids {
		if pl, ok := c.Get(id); ok {
			out = append(out, pl)
		}
	}
	return out
}

// SelectedTrackCount sums the reported track counts of the selected playlists.
// Duplicates across playlists are counted each time.
func (c *PlaylistCatalog) SelectedTrackCount() int {
	total := 0
	for _, pl := range c.Selected() {
		total += pl.TrackCount
	}
	return total
}
