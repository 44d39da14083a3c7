package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

// ProgressUpdate represents a progress event during a combine run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   State  // Run state the update belongs to
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display; empty clears the indicator
	Data    any    // Optional phase-specific data for advanced UIs
}

// ProgressFunc receives progress updates synchronously on the run's goroutine.
type ProgressFunc func(ProgressUpdate)

// ChannelProgress adapts progress to a channel.
//
// Sends never block: when the channel is full the update is dropped.
func ChannelProgress(ch chan<- ProgressUpdate) ProgressFunc {
	if ch == nil {
		return nil
	}
	return func(update ProgressUpdate) {
		select {
		case ch <- update:
		default:
		}
	}
}

func (f ProgressFunc) send(update ProgressUpdate) {
	if f != nil {
		f(update)
	}
}

// State is a step of the combine run state machine.
type State int

const (
	Idle State = iota
	ValidatingSession
	FetchingTracks
	CreatingDestination
	WritingTracks
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ValidatingSession:
		return "validating_session"
	case FetchingTracks:
		return "fetching_tracks"
	case CreatingDestination:
		return "creating_destination"
	case WritingTracks:
		return "writing_tracks"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

func validatingSessionUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidatingSession,
		Step:    1,
		Total:   1,
		Message: "Checking session...",
	}
}

func fetchingTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingTracks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Loading tracks from %d %s...", total, shared.Pluralize(total, "playlist", "playlists")),
	}
}

func loadingPlaylistUpdate(step, total int, pl models.PlaylistSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loading tracks of playlist \"%s\" (%s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func creatingDestinationUpdate(name string, public bool, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatingDestination,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating %s playlist %q for %d tracks...", strings.ToLower(shared.VisibilityString(public)), name, tracks),
	}
}

func writingTracksUpdate(step, total, committed, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritingTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %d of %d tracks...", step, total, committed, tracks),
	}
}

func doneUpdate(dest *models.DestinationPlaylist) ProgressUpdate {
	return ProgressUpdate{Phase: Done, Step: 1, Total: 1, Data: dest}
}

func failedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Message: err.Error(), Data: err}
}
