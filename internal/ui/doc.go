// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for combining playlists:
//  1. [PlaylistView] : Checkbox list of the user's playlists, loaded a page at a time
//  2. [RunView] : Spinner with real-time progress while the engine runs
//  3. [ResultView] : Link to the combined playlist or the failure reason
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Engine, providing non-blocking status reporting during runs.
//
// The dark and light palettes are toggled with t; the choice is handed to [Options.SaveTheme] so the caller can persist it.
//
// Keyboard navigation uses vim-style bindings (j/k, space, a, m, c, o, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
