package runs

import "context"

// Repo defines persistence operations for runs.
type Repo interface {
	Create(ctx context.Context, run Run) error
	GetByID(ctx context.Context, runID string) (Run, error)
	UpdateStatus(ctx context.Context, runID, status string, upd StatusUpdate) error
	List(ctx context.Context, limit, offset int) ([]Run, error)
}
