package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// MemoryRepository keeps entities in process memory. It backs the server when
// no DSN is configured and the end-to-end tests.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Entity
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[int64]Entity{}, now: time.Now}
}

func (r *MemoryRepository) lookup(owner, kind string, id int64) (Entity, error) {
	e, ok := r.items[id]
	if !ok || e.Owner != owner || e.Kind != kind {
		return Entity{}, fmt.Errorf("%s %d: %w", kind, id, common.ErrNotFound)
	}
	return e, nil
}

func (r *MemoryRepository) Create(_ context.Context, owner, kind string, payload json.RawMessage) (Entity, error) {
	if _, err := decodeObject(payload); err != nil {
		return Entity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	e := Entity{
		ID:        r.nextID,
		Owner:     owner,
		Kind:      kind,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.items[e.ID] = e
	return e, nil
}

func (r *MemoryRepository) Update(_ context.Context, owner, kind string, id int64, patch map[string]any) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(owner, kind, id)
	if err != nil {
		return Entity{}, err
	}
	merged, err := mergePatch(e.Payload, patch)
	if err != nil {
		return Entity{}, err
	}
	e.Payload = merged
	e.UpdatedAt = r.now()
	r.items[id] = e
	return e, nil
}

func (r *MemoryRepository) Delete(_ context.Context, owner, kind string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(owner, kind, id); err != nil {
		return err
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, owner, kind string) ([]Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entity, 0)
	for _, e := range r.items {
		if e.Owner == owner && e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
