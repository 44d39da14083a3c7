package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/combitify/internal/models"
	"github.com/desertthunder/combitify/internal/shared"
)

// RunRepository implements models.Repository[*models.AggregationRun] for run history.
//
// Handles run CRUD operations with soft delete support. It also satisfies tasks.RunRecorder.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.AggregationRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, sequence, state, reason, destination_id, destination_url, source_count, track_count,
	committed, started_at, finished_at, created_at, updated_at, deleted_at`

// Create inserts a new run with the next sequence. A run without an ID gets a generated one.
func (r *RunRepository) Create(run *models.AggregationRun) error {
	return r.create(context.Background(), run)
}

// RecordStart stores a run when it begins.
func (r *RunRepository) RecordStart(ctx context.Context, run *models.AggregationRun) error {
	return r.create(ctx, run)
}

// RecordFinish stores the terminal state of a run.
func (r *RunRepository) RecordFinish(ctx context.Context, run *models.AggregationRun) error {
	return r.update(ctx, run)
}

func (r *RunRepository) create(ctx context.Context, run *models.AggregationRun) error {
	sequence, err := NextSequence(r.db, "aggregation_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s := run.Snapshot()
	query := `INSERT INTO aggregation_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.Sequence,
		s.State,
		s.Reason,
		s.DestinationID,
		s.DestinationURL,
		s.SourceCount,
		s.TrackCount,
		s.Committed,
		s.StartedAt,
		nullTime(s.FinishedAt),
		s.CreatedAt,
		s.UpdatedAt,
		nullTime(s.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.AggregationRun, error) {
	query := `SELECT ` + runColumns + ` FROM aggregation_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the run's mutable fields
func (r *RunRepository) Update(run *models.AggregationRun) error {
	return r.update(context.Background(), run)
}

func (r *RunRepository) update(ctx context.Context, run *models.AggregationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)
	s := run.Snapshot()

	query := `
		UPDATE aggregation_runs
		SET state = ?, reason = ?, destination_id = ?, destination_url = ?, source_count = ?,
			track_count = ?, committed = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		s.State,
		s.Reason,
		s.DestinationID,
		s.DestinationURL,
		s.SourceCount,
		s.TrackCount,
		s.Committed,
		nullTime(s.FinishedAt),
		now,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, s.ID)
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE aggregation_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "state" and "reason" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.AggregationRun, error) {
	query := `SELECT ` + runColumns + ` FROM aggregation_runs WHERE deleted_at IS NULL`
	args := []any{}

	if state, ok := criteria["state"].(string); ok && state != "" {
		query += " AND state = ?"
		args = append(args, state)
	}

	if reason, ok := criteria["reason"].(string); ok && reason != "" {
		query += " AND reason = ?"
		args = append(args, reason)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AggregationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.AggregationRun]
func scanRun(row scanner) (*models.AggregationRun, error) {
	var (
		s          models.RunSnapshot
		finishedAt sql.NullTime
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.Sequence, &s.State, &s.Reason, &s.DestinationID, &s.DestinationURL,
		&s.SourceCount, &s.TrackCount, &s.Committed, &s.StartedAt, &finishedAt,
		&s.CreatedAt, &s.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Time
	}

	return models.RestoreAggregationRun(s), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
