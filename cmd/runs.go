package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/combitify/internal/formatter"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runs lists recorded combine runs, newest first.
func (r *Runner) Runs(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureServices(); err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if state := cmd.String("state"); state != "" {
		criteria["state"] = state
	}

	runs, err := r.runs.List(criteria)
	if err != nil {
		return err
	}

	snapshots := make([]models.RunSnapshot, len(runs))
	for i, run := range runs {
		snapshots[i] = run.Snapshot()
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshots, cmd.Bool("pretty"))
	}

	return r.writeRaw(formatter.RunsToText(snapshots))
}

// RunShow prints a single run.
func (r *Runner) RunShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	if err := r.ensureServices(); err != nil {
		return err
	}

	run, err := r.runs.Get(id)
	if err != nil {
		return err
	}

	return r.writeRaw(formatter.RunToText(run.Snapshot()))
}

// RunDelete removes a run from the history.
func (r *Runner) RunDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	if err := r.ensureServices(); err != nil {
		return err
	}

	if err := r.runs.Delete(id); err != nil {
		return err
	}

	return r.writePlain("✓ Run %s deleted\n", id)
}
