package stage

import (
	"context"
	"time"

	"songaday/internal/assembly"
	"songaday/internal/merge"
)

// Handler is one step of a pipeline run. Execute reads and extends the run
// context; it never reaches for shared state.
type Handler interface {
	// Name is the stage recorded on the run token while Execute runs.
	Name() string
	Execute(context.Context, *Run) error
	HealthCheck(context.Context) Health
}

// Run is the context of one pipeline execution, passed explicitly from
// stage to stage.
type Run struct {
	ID         string
	TokenID    int64
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Cells is the number of feed cells the fetch stage decoded.
	Cells   int
	Records []assembly.Record
	Stats   merge.Stats
}

// Finished reports whether the run reached completion.
func (r *Run) Finished() bool {
	return r != nil && !r.FinishedAt.IsZero()
}

// SongCount is the count recorded on the run token.
func (r *Run) SongCount() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}
