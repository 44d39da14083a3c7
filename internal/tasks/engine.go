package tasks

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/services"
	"github.com/desertthunder/combitify/internal/shared"
)

const (
	// DefaultPlaylistName is the name given to the combined playlist.
	DefaultPlaylistName = "Combined Playlist"
	// PlaylistPageSize is the number of playlists requested per page.
	PlaylistPageSize = 20
)

// SessionSource provides the stored session. Implementations return [shared.ErrSessionNotFound] when none exists.
type SessionSource interface {
	Load(ctx context.Context) (*models.Session, error)
}

// RunRecorder persists run metadata at the start and end of a run.
type RunRecorder interface {
	RecordStart(ctx context.Context, run *models.AggregationRun) error
	RecordFinish(ctx context.Context, run *models.AggregationRun) error
}

// EngineOptions configures an [Engine]. Zero values use the defaults.
type EngineOptions struct {
	PlaylistName    string
	Public          bool
	PageSize        int
	ChunkSize       int
	WritesPerSecond float64
	Recorder        RunRecorder
	Logger          *log.Logger
	Now             func() time.Time
}

// RunResult describes the outcome of [Engine.Run].
type RunResult struct {
	ID          string
	State       State
	Reason      string
	Destination *models.DestinationPlaylist
	Sources     int
	Tracks      int
	Committed   int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// URL is the destination playlist's external link, empty unless a playlist was created.
func (r *RunResult) URL() string {
	if r == nil || r.Destination == nil {
		return ""
	}
	return r.Destination.URL
}

// Engine combines selected playlists into a new playlist.
//
// Runs execute on the caller's goroutine and every provider call is sequential. There are no
// retries: a failed run ends in [Failed] and a new run starts from scratch.
type Engine struct {
	provider   services.Provider
	sessions   SessionSource
	aggregator *TrackAggregator
	writer     *BatchWriter
	recorder   RunRecorder
	name       string
	public     bool
	logger     *log.Logger
	now        func() time.Time
}

// NewEngine creates an Engine that reads its session from sessions.
func NewEngine(provider services.Provider, sessions SessionSource, opts EngineOptions) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if sessions == nil {
		return nil, fmt.Errorf("%w: session source", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	writer, err := NewBatchWriter(provider, chunkSize, opts.WritesPerSecond, logger)
	if err != nil {
		return nil, err
	}

	name := opts.PlaylistName
	if name == "" {
		name = DefaultPlaylistName
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		provider:   provider,
		sessions:   sessions,
		aggregator: NewTrackAggregator(provider, opts.PageSize, logger),
		writer:     writer,
		recorder:   opts.Recorder,
		name:       name,
		public:     opts.Public,
		logger:     logger,
		now:        now,
	}, nil
}

// Session returns the stored session when it is still valid, and [shared.ErrNotAuthenticated] otherwise.
func (e *Engine) Session(ctx context.Context) (*models.Session, error) {
	session, err := e.sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: no stored session", shared.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if !session.Valid(e.now()) {
		return nil, fmt.Errorf("%w: session expired", shared.ErrNotAuthenticated)
	}
	return session, nil
}

// HasValidSession reports whether a stored session exists and has not expired.
func (e *Engine) HasValidSession(ctx context.Context) bool {
	_, err := e.Session(ctx)
	return err == nil
}

func (e *Engine) authenticate(ctx context.Context) (*models.Session, error) {
	session, err := e.Session(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.provider.Authenticate(session); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return session, nil
}

// ListPlaylists loads the next page of the user's playlists into catalog and returns it.
func (e *Engine) ListPlaylists(ctx context.Context, catalog *models.PlaylistCatalog) (*models.PlaylistPage, error) {
	if _, err := e.authenticate(ctx); err != nil {
		return nil, err
	}

	offset := catalog.NextOffset()
	page, err := e.provider.UserPlaylists(ctx, PlaylistPageSize, offset)
	if err != nil {
		return nil, &FetchFailedError{ResourceID: "playlists", Offset: offset, StatusCode: statusCode(err), Err: err}
	}

	added := catalog.Append(page)
	e.logger.Debug("loaded playlists", "offset", offset, "added", added, "total", page.Total)
	return page, nil
}

// LoadAllPlaylists loads every remaining playlist into catalog.
func (e *Engine) LoadAllPlaylists(ctx context.Context, catalog *models.PlaylistCatalog) error {
	if _, err := e.authenticate(ctx); err != nil {
		return err
	}
	if !catalog.HasMore() {
		return nil
	}

	for _, err := range e.playlistPages(ctx, catalog) {
		if err != nil {
			return err
		}
	}
	return nil
}

// playlistPages pages through the playlists not yet in catalog, appending each page as it arrives.
func (e *Engine) playlistPages(ctx context.Context, catalog *models.PlaylistCatalog) iter.Seq2[[]models.PlaylistSummary, error] {
	start := catalog.NextOffset()
	fetch := func(ctx context.Context, offset, limit int) (*Page[models.PlaylistSummary], error) {
		page, err := e.provider.UserPlaylists(ctx, limit, start+offset)
		if err != nil {
			return nil, err
		}
		catalog.Append(page)
		return &Page[models.PlaylistSummary]{Total: max(page.Total-start, 0), Items: page.Items}, nil
	}
	return FetchAllPages(ctx, "playlists", PlaylistPageSize, fetch)
}

// Run combines the tracks of selected into a newly created playlist.
//
// The run moves through [ValidatingSession], [FetchingTracks], [CreatingDestination] and
// [WritingTracks] to [Done], or stops in [Failed]. progress receives an update on every transition
// and once per playlist while fetching. An empty selection is a no-op that returns an [Idle]
// result without contacting the provider.
func (e *Engine) Run(ctx context.Context, selected []models.PlaylistSummary, progress ProgressFunc) (*RunResult, error) {
	if len(selected) == 0 {
		return &RunResult{State: Idle}, nil
	}

	snapshot := slices.Clone(selected)
	result := &RunResult{
		ID:        shared.GenerateID(),
		State:     ValidatingSession,
		Sources:   len(snapshot),
		StartedAt: e.now(),
	}
	logger := shared.WithLogger(e.logger, "run", result.ID)
	run := models.NewAggregationRun(result.ID, result.State.String(), result.Sources, result.StartedAt)
	e.recordStart(ctx, logger, run)

	finish := func(err error) (*RunResult, error) {
		result.FinishedAt = e.now()
		if err != nil {
			logger.Error("run failed", "state", result.State, "reason", Reason(err), "error", err)
			result.State = Failed
			result.Reason = Reason(err)
			progress.send(failedUpdate(err))
		} else {
			result.State = Done
			progress.send(doneUpdate(result.Destination))
			logger.Info("run complete", "tracks", result.Tracks, "url", result.URL())
		}

		run.Finish(result.State.String(), result.Reason, result.Destination, result.Tracks, result.Committed, result.FinishedAt)
		e.recordFinish(ctx, logger, run)
		return result, err
	}

	progress.send(validatingSessionUpdate())
	session, err := e.authenticate(ctx)
	if err != nil {
		return finish(err)
	}

	result.State = FetchingTracks
	progress.send(fetchingTracksUpdate(len(snapshot)))
	tracks, err := e.aggregator.Aggregate(ctx, snapshot, progress)
	if err != nil {
		return finish(err)
	}
	result.Tracks = len(tracks)
	logger.Debug("aggregated tracks", "playlists", len(snapshot), "tracks", len(tracks))

	result.State = CreatingDestination
	progress.send(creatingDestinationUpdate(e.name, e.public, len(tracks)))
	dest, err := e.createDestination(ctx, session)
	if err != nil {
		return finish(err)
	}
	result.Destination = dest

	result.State = WritingTracks
	progress.send(writingTracksUpdate(0, e.writer.Chunks(len(tracks)), 0, len(tracks)))
	committed, err := e.writer.writeTracks(ctx, dest.ID, tracks, progress)
	result.Committed = committed
	return finish(err)
}

func (e *Engine) createDestination(ctx context.Context, session *models.Session) (*models.DestinationPlaylist, error) {
	userID := session.UserID
	if userID == "" {
		user, err := e.provider.CurrentUser(ctx)
		if err != nil {
			return nil, &CreateFailedError{StatusCode: statusCode(err), Err: err}
		}
		userID = user.ID
	}

	dest, err := e.provider.CreatePlaylist(ctx, userID, e.name, e.public)
	if err != nil {
		return nil, &CreateFailedError{UserID: userID, StatusCode: statusCode(err), Err: err}
	}
	return dest, nil
}

func (e *Engine) recordStart(ctx context.Context, logger *log.Logger, run *models.AggregationRun) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordStart(ctx, run); err != nil {
		logger.Warn("failed to record run start", "error", err)
	}
}

func (e *Engine) recordFinish(ctx context.Context, logger *log.Logger, run *models.AggregationRun) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordFinish(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record run finish", "error", err)
	}
}
