package models

import (
	"fmt"
	"time"
)

// RunSnapshot is the plain, serializable view of an [AggregationRun].
type RunSnapshot struct {
	ID             string     `json:"id"`
	Sequence       int        `json:"sequence"`
	State          string     `json:"state"`
	Reason         string     `json:"reason,omitempty"`
	DestinationID  string     `json:"destination_id,omitempty"`
	DestinationURL string     `json:"destination_url,omitempty"`
	SourceCount    int        `json:"source_count"`
	TrackCount     int        `json:"track_count"`
	Committed      int        `json:"committed"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"-"`
}

// AggregationRun records the outcome of one combine run. Only metadata is kept;
// the tracks themselves live on the provider.
type AggregationRun struct {
	s RunSnapshot
}

// NewAggregationRun creates a run in the given starting state.
func NewAggregationRun(id, state string, sourceCount int, startedAt time.Time) *AggregationRun {
	return &AggregationRun{s: RunSnapshot{
		ID:          id,
		State:       state,
		SourceCount: sourceCount,
		StartedAt:   startedAt,
		CreatedAt:   startedAt,
		UpdatedAt:   startedAt,
	}}
}

// RestoreAggregationRun rebuilds a run from persisted values.
func RestoreAggregationRun(s RunSnapshot) *AggregationRun {
	return &AggregationRun{s: s}
}

func (r *AggregationRun) ID() string                { return r.s.ID }
func (r *AggregationRun) Sequence() int             { return r.s.Sequence }
func (r *AggregationRun) State() string             { return r.s.State }
func (r *AggregationRun) Reason() string            { return r.s.Reason }
func (r *AggregationRun) CreatedAt() time.Time      { return r.s.CreatedAt }
func (r *AggregationRun) UpdatedAt() time.Time      { return r.s.UpdatedAt }
func (r *AggregationRun) StartedAt() time.Time      { return r.s.StartedAt }
func (r *AggregationRun) FinishedAt() *time.Time    { return r.s.FinishedAt }
func (r *AggregationRun) DeletedAt() *time.Time     { return r.s.DeletedAt }
func (r *AggregationRun) Snapshot() RunSnapshot     { return r.s }
func (r *AggregationRun) SetID(id string)           { r.s.ID = id }
func (r *AggregationRun) SetSequence(seq int)       { r.s.Sequence = seq }
func (r *AggregationRun) SetUpdatedAt(t time.Time)  { r.s.UpdatedAt = t }
func (r *AggregationRun) SetDeletedAt(t *time.Time) { r.s.DeletedAt = t }

// Finish records the terminal state of the run.
func (r *AggregationRun) Finish(state, reason string, dest *DestinationPlaylist, trackCount, committed int, at time.Time) {
	r.s.State = state
	r.s.Reason = reason
	r.s.TrackCount = trackCount
	r.s.Committed = committed
	if dest != nil {
		r.s.DestinationID = dest.ID
		r.s.DestinationURL = dest.URL
	}
	r.s.FinishedAt = &at
	r.s.UpdatedAt = at
}

// Validate checks the run for required fields and consistent counts.
func (r *AggregationRun) Validate() error {
	if r.s.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.s.State == "" {
		return fmt.Errorf("run state is required")
	}
	if r.s.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	if r.s.Committed > r.s.TrackCount {
		return fmt.Errorf("committed tracks (%d) exceed track count (%d)", r.s.Committed, r.s.TrackCount)
	}
	return nil
}
