package models

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// ApplyPatch overlays patch onto the JSON form of base and decodes the result
// into a fresh P. A nil value in patch clears the field.
func ApplyPatch[P any](base P, patch map[string]any) (P, error) {
	var zero P

	raw, err := json.Marshal(base)
	if err != nil {
		return zero, fmt.Errorf("encode payload: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("%w: payload is not an object", common.ErrInvalidPayload)
	}

	for k, v := range patch {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	var out P
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	return out, nil
}

// PatchOf converts a payload struct into a patch map carrying its non-empty
// fields.
func PatchOf(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, fmt.Errorf("%w: patch is not an object", common.ErrInvalidPayload)
	}
	return patch, nil
}
