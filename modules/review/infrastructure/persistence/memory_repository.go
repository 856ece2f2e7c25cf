package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
)

// MemoryPendingChangeRepository is an in-process store used by tests and by
// the CLI's dry-run mode. It holds deep copies so callers cannot mutate
// stored records through retained pointers.
type MemoryPendingChangeRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*pendingchange.PendingChange
}

func NewMemoryPendingChangeRepository() *MemoryPendingChangeRepository {
	return &MemoryPendingChangeRepository{
		records: map[uuid.UUID]*pendingchange.PendingChange{},
	}
}

func clonePendingChange(pc *pendingchange.PendingChange) *pendingchange.PendingChange {
	cp := *pc
	cp.OriginalData = append(json.RawMessage(nil), pc.OriginalData...)
	cp.ProposedData = append(json.RawMessage(nil), pc.ProposedData...)
	if pc.ReviewedAt != nil {
		t := *pc.ReviewedAt
		cp.ReviewedAt = &t
	}
	if pc.ConflictDetails != nil {
		cp.ConflictDetails = make([]pendingchange.ConflictDetail, len(pc.ConflictDetails))
		for i, d := range pc.ConflictDetails {
			cp.ConflictDetails[i] = pendingchange.ConflictDetail{
				Field:         d.Field,
				CurrentValue:  append(json.RawMessage(nil), d.CurrentValue...),
				ProposedValue: append(json.RawMessage(nil), d.ProposedValue...),
			}
		}
	}
	cp.RevisionHistory = append([]pendingchange.RevisionEntry(nil), pc.RevisionHistory...)
	return &cp
}

func (r *MemoryPendingChangeRepository) Create(_ context.Context, pc *pendingchange.PendingChange) (*pendingchange.PendingChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[pc.ID] = clonePendingChange(pc)
	return clonePendingChange(pc), nil
}

func (r *MemoryPendingChangeRepository) GetByID(_ context.Context, id uuid.UUID) (*pendingchange.PendingChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pc, ok := r.records[id]
	if !ok {
		return nil, pendingchange.ErrNotFound
	}
	return clonePendingChange(pc), nil
}

func (r *MemoryPendingChangeRepository) Update(_ context.Context, pc *pendingchange.PendingChange) (*pendingchange.PendingChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[pc.ID]; !ok {
		return nil, pendingchange.ErrNotFound
	}
	r.records[pc.ID] = clonePendingChange(pc)
	return clonePendingChange(pc), nil
}

func (r *MemoryPendingChangeRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return pendingchange.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *MemoryPendingChangeRepository) List(_ context.Context, params *pendingchange.FindParams) ([]*pendingchange.PendingChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*pendingchange.PendingChange
	for _, pc := range r.records {
		if matches(pc, params) {
			matched = append(matched, pc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}

	out := make([]*pendingchange.PendingChange, len(matched))
	for i, pc := range matched {
		out[i] = clonePendingChange(pc)
	}
	return out, nil
}

func (r *MemoryPendingChangeRepository) Count(_ context.Context, params *pendingchange.FindParams) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, pc := range r.records {
		if matches(pc, params) {
			count++
		}
	}
	return count, nil
}

func matches(pc *pendingchange.PendingChange, params *pendingchange.FindParams) bool {
	if params == nil {
		return true
	}
	if params.SubmittedByUserID != uuid.Nil && pc.SubmittedByUserID != params.SubmittedByUserID {
		return false
	}
	if params.ResourceType != "" && pc.ResourceType != params.ResourceType {
		return false
	}
	if params.ResourceID != uuid.Nil && pc.ResourceID != params.ResourceID {
		return false
	}
	if params.Status != "" && pc.Status != params.Status {
		return false
	}
	return true
}
