package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/combitify/internal/formatter"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's playlists, a page at a time unless --all or --limit asks for more.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	output := cmd.String("output")

	engine, err := r.newEngine("", false, nil)
	if err != nil {
		return err
	}

	catalog := models.NewPlaylistCatalog()
	if err := r.loadCatalog(ctx, engine, catalog, cmd.Bool("all"), limit); err != nil {
		return err
	}

	playlists := catalog.Playlists()
	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}
	r.logger.Infof("listing %v of %v spotify playlists", len(playlists), catalog.Total())

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if output != "" {
		if err := formatter.WritePlaylists(cmd.String("format"), playlists, output); err != nil {
			return err
		}
		return r.writePlain("✓ %d playlists written to %s\n", len(playlists), output)
	}

	data, err := formatter.Playlists(cmd.String("format"), playlists)
	if err != nil {
		return err
	}
	if err := r.writeRaw(data); err != nil {
		return err
	}

	if catalog.HasMore() && limit == 0 {
		r.writePlain("\n%d more not shown, use --all to load every playlist\n", catalog.Total()-catalog.NextOffset())
	}
	return nil
}

// loadCatalog loads the first page, then every page when all is set, or enough pages to hold limit playlists.
func (r *Runner) loadCatalog(ctx context.Context, engine *tasks.Engine, catalog *models.PlaylistCatalog, all bool, limit int) error {
	if all {
		return engine.LoadAllPlaylists(ctx, catalog)
	}

	if _, err := engine.ListPlaylists(ctx, catalog); err != nil {
		return err
	}

	for limit > catalog.Len() && catalog.HasMore() {
		before := catalog.NextOffset()
		if _, err := engine.ListPlaylists(ctx, catalog); err != nil {
			return err
		}
		if catalog.NextOffset() == before {
			return fmt.Errorf("playlist listing stopped at offset %d of %d", before, catalog.Total())
		}
	}

	return nil
}
