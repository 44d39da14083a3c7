package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsLoaded MsgKind = iota
	MsgProgressUpdate
	MsgRunComplete
	MsgThemeSaved
	MsgBrowserOpened
)

type playlistsLoaded struct {
	page *models.PlaylistPage
	err  error
}

type runComplete struct {
	result *tasks.RunResult
	err    error
}

// playlistsLoadedMsg is the constructor for [MsgPlaylistsLoaded]
func playlistsLoadedMsg(page *models.PlaylistPage, err error) Msg {
	return Msg{kind: MsgPlaylistsLoaded, data: playlistsLoaded{page, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runComplete{result, err}}
}

// themeSavedMsg is the constructor for [MsgThemeSaved]
func themeSavedMsg(err error) Msg {
	return Msg{kind: MsgThemeSaved, data: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}

func msgError(data any) error {
	if err, ok := data.(error); ok {
		return err
	}
	return nil
}
