package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
)

// DefaultTrackPageSize is the number of playlist tracks requested per page.
const DefaultTrackPageSize = 20

// TrackAggregator collects the track identifiers of several playlists into one list.
type TrackAggregator struct {
	provider services.Provider
	pageSize int
	logger   *log.Logger
}

// NewTrackAggregator creates an aggregator. A non-positive pageSize uses [DefaultTrackPageSize].
func NewTrackAggregator(provider services.Provider, pageSize int, logger *log.Logger) *TrackAggregator {
	if pageSize <= 0 {
		pageSize = DefaultTrackPageSize
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &TrackAggregator{provider: provider, pageSize: pageSize, logger: logger}
}

// Aggregate visits playlists in order, one at a time, and returns their valid track identifiers
// in the order received with duplicates removed (first seen wins).
//
// progress receives one update per playlist entered. Identifiers that are missing or do not
// have the track URI shape are dropped.
func (a *TrackAggregator) Aggregate(ctx context.Context, playlists []models.PlaylistSummary, progress ProgressFunc) (models.TrackList, error) {
	var ids []models.TrackIdentifier

	for i, pl := range playlists {
		progress.send(loadingPlaylistUpdate(i+1, len(playlists), pl))

		loaded, dropped := 0, 0
		for items, err := range FetchAllPages(ctx, pl.ID, a.pageSize, a.trackPages(pl.ID)) {
			if err != nil {
				return nil, err
			}
			for _, id := range items {
				if !id.Valid() {
					dropped++
					continue
				}
				ids = append(ids, id)
				loaded++
			}
		}

		a.logger.Debug("loaded tracks", "playlist", pl.ID, "name", pl.Name, "count", loaded, "dropped", dropped)
	}

	return models.Dedupe(ids), nil
}

func (a *TrackAggregator) trackPages(playlistID string) PageFunc[models.TrackIdentifier] {
	return func(ctx context.Context, offset, limit int) (*Page[models.TrackIdentifier], error) {
		page, err := a.provider.PlaylistTracks(ctx, playlistID, limit, offset)
		if err != nil {
			return nil, err
		}
		return &Page[models.TrackIdentifier]{Total: page.Total, Items: page.Items}, nil
	}
}
