package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultChunkSize is the number of identifiers sent per write call.
const DefaultChunkSize = services.MaxTracksPerWrite

// BatchWriter appends a track list to a playlist in contiguous chunks.
type BatchWriter struct {
	provider  services.Provider
	chunkSize int
	limiter   *rate.Limiter
	logger    *log.Logger
}

// NewBatchWriter creates a writer sending chunkSize identifiers per call.
//
// chunkSize must be within 1..[services.MaxTracksPerWrite]. Calls are paced to writesPerSecond;
// zero disables pacing.
func NewBatchWriter(provider services.Provider, chunkSize int, writesPerSecond float64, logger *log.Logger) (*BatchWriter, error) {
	if chunkSize < 1 || chunkSize > services.MaxTracksPerWrite {
		return nil, fmt.Errorf("%w: chunk size must be between 1 and %d, got %d",
			shared.ErrInvalidArgument, services.MaxTracksPerWrite, chunkSize)
	}
	if writesPerSecond < 0 {
		return nil, fmt.Errorf("%w: writes per second must not be negative", shared.ErrInvalidArgument)
	}
	if logger == nil {
		logger = shared.NopLogger()
	}

	limit := rate.Inf
	if writesPerSecond > 0 {
		limit = rate.Limit(writesPerSecond)
	}

	return &BatchWriter{
		provider:  provider,
		chunkSize: chunkSize,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}, nil
}

// Chunks is the number of write calls needed for n tracks.
func (w *BatchWriter) Chunks(n int) int {
	return (n + w.chunkSize - 1) / w.chunkSize
}

// WriteTracks appends tracks to the destination playlist, one chunk at a time and in order.
//
// It returns the number of tracks committed. On failure it stops immediately and returns a
// [*WriteFailedError]; chunks already written are not rolled back.
func (w *BatchWriter) WriteTracks(ctx context.Context, destinationID string, tracks models.TrackList) (int, error) {
	return w.writeTracks(ctx, destinationID, tracks, nil)
}

func (w *BatchWriter) writeTracks(ctx context.Context, destinationID string, tracks models.TrackList, progress ProgressFunc) (int, error) {
	chunks := w.Chunks(len(tracks))
	committed := 0
	index := 0

	for chunk := range slices.Chunk(tracks.Strings(), w.chunkSize) {
		if err := w.limiter.Wait(ctx); err != nil {
			return committed, &WriteFailedError{
				DestinationID: destinationID,
				ChunkIndex:    index,
				Committed:     committed,
				Err:           err,
			}
		}

		if err := w.provider.AddTracks(ctx, destinationID, chunk); err != nil {
			return committed, &WriteFailedError{
				DestinationID: destinationID,
				ChunkIndex:    index,
				Committed:     committed,
				StatusCode:    statusCode(err),
				Err:           err,
			}
		}

		committed += len(chunk)
		index++
		w.logger.Debug("wrote chunk", "playlist", destinationID, "chunk", index, "of", chunks, "size", len(chunk))
		progress.send(writingTracksUpdate(index, chunks, committed, len(tracks)))
	}

	return committed, nil
}
