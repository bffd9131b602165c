// Package entities stores the authoritative copy of synced entities on the
// development server. Every row belongs to an owner (the token subject) and a
// kind; ids are assigned by the store and never reused.
package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
)

type Entity struct {
	ID        int64
	Owner     string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, owner, kind string, payload json.RawMessage) (Entity, error)
	// Update merges patch into the stored payload; a nil value removes the key.
	// It returns common.ErrNotFound for an unknown id.
	Update(ctx context.Context, owner, kind string, id int64, patch map[string]any) (Entity, error)
	// Delete returns common.ErrNotFound for an unknown id.
	Delete(ctx context.Context, owner, kind string, id int64) error
	// List returns the entities of owner and kind ordered by id.
	List(ctx context.Context, owner, kind string) ([]Entity, error)
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// mergePatch applies patch to the JSON object base.
func mergePatch(base json.RawMessage, patch map[string]any) (json.RawMessage, error) {
	fields, err := decodeObject(base)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	return out, nil
}
