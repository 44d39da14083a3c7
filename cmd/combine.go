package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/desertthunder/combitify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runSummary is the JSON shape printed by `combine --json`.
type runSummary struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	URL       string `json:"url,omitempty"`
	Sources   int    `json:"sources"`
	Tracks    int    `json:"tracks"`
	Committed int    `json:"committed"`
	Duration  string `json:"duration"`
}

func newRunSummary(result *tasks.RunResult) runSummary {
	return runSummary{
		ID:        result.ID,
		State:     result.State.String(),
		Reason:    result.Reason,
		URL:       result.URL(),
		Sources:   result.Sources,
		Tracks:    result.Tracks,
		Committed: result.Committed,
		Duration:  result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String(),
	}
}

// Combine merges the selected playlists into a new playlist.
//
// Playlists are chosen with --id (repeatable) or --all. Every playlist is loaded first so that
// ids can be checked against the account before anything is written.
func (r *Runner) Combine(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	all := cmd.Bool("all")
	useJSON := cmd.Bool("json")

	if len(ids) == 0 && !all {
		return fmt.Errorf("%w: pass --id at least once or --all", shared.ErrMissingArgument)
	}
	if len(ids) > 0 && all {
		return fmt.Errorf("%w: cannot combine --id with --all", shared.ErrInvalidArgument)
	}

	engine, err := r.newEngine(cmd.String("name"), cmd.Bool("public"), nil)
	if err != nil {
		return err
	}

	catalog := models.NewPlaylistCatalog()
	if err := engine.LoadAllPlaylists(ctx, catalog); err != nil {
		return err
	}

	if all {
		catalog.SelectAll()
	} else if err := catalog.Select(ids...); err != nil {
		return err
	}

	selected := catalog.Selected()
	r.logger.Info("combining playlists", "playlists", len(selected), "tracks", catalog.SelectedTrackCount())

	var progress tasks.ProgressFunc
	if !useJSON {
		progress = r.printProgress
	}

	result, runErr := engine.Run(ctx, selected, progress)

	if useJSON {
		if err := r.writeJSON(newRunSummary(result), true); err != nil {
			return err
		}
		return runErr
	}

	if runErr != nil {
		r.writePlainln("✗ Combine failed (%s)", result.Reason)
		var writeErr *tasks.WriteFailedError
		if errors.As(runErr, &writeErr) {
			r.writePlain("  %d of %d tracks were written to %s\n", result.Committed, result.Tracks, result.URL())
		}
		return runErr
	}

	if result.State == tasks.Idle {
		r.writePlain("No playlists selected, nothing to do\n")
		return nil
	}

	r.writePlainln("✓ Combined %d %s into %d unique tracks", result.Sources, shared.Pluralize(result.Sources, "playlist", "playlists"), result.Tracks)
	r.writePlain("  Playlist: %s\n", result.URL())

	if cmd.Bool("open") && result.URL() != "" {
		if err := r.openURL(result.URL()); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return nil
}

// printProgress writes progress messages as they arrive. The outcome is printed by the caller.
func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	if update.Message == "" {
		return
	}
	if update.Phase.Terminal() {
		return
	}
	r.writePlain("→ %s\n", update.Message)
}
