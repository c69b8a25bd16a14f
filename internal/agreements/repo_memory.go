package agreements

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data []Agreement
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Seed replaces the stored agreements. Test helper.
func (r *MemoryRepo) Seed(agreements []Agreement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]Agreement(nil), agreements...)
}

// List returns agreements newest first, honoring limit.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Agreement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]Agreement, len(r.data))
	copy(out, r.data)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
