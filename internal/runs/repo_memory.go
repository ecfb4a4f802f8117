package runs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores runs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Run
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Run)}
}

func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}
	r.byID[run.ID] = run
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[runID]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

// UpdateStatus applies the status and any set fields of upd.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, runID, status string, upd StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.byID[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	run.Status = status
	if upd.ProjectARN != nil {
		run.ProjectARN = *upd.ProjectARN
	}
	if upd.InvocationARN != nil {
		run.InvocationARN = *upd.InvocationARN
	}
	if upd.ResultURI != nil {
		run.ResultURI = *upd.ResultURI
	}
	if upd.RowCount != nil {
		run.RowCount = *upd.RowCount
	}
	if upd.ErrorCode != nil {
		run.ErrorCode = *upd.ErrorCode
	}
	if upd.ErrorMessage != nil {
		msg := *upd.ErrorMessage
		run.ErrorMessage = &msg
	}
	if upd.StartedAt != nil {
		run.StartedAt = upd.StartedAt
	} else if status == StatusProcessing && run.StartedAt == nil {
		run.StartedAt = &now
	}
	if upd.CompletedAt != nil {
		run.CompletedAt = upd.CompletedAt
	} else if run.Terminal() && run.CompletedAt == nil {
		run.CompletedAt = &now
	}
	run.UpdatedAt = now
	r.byID[runID] = run
	return nil
}

// List returns runs newest first with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	all := make([]Run, 0, len(r.byID))
	for _, run := range r.byID {
		all = append(all, run)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []Run{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
