package listctl

import (
	"encoding/json"
	"fmt"
)

// MergeJSON shallow-merges the top-level keys of patch into entity.
func MergeJSON[E any](entity E, patch json.RawMessage) (E, error) {
	var merged E
	base, err := json.Marshal(entity)
	if err != nil {
		return merged, fmt.Errorf("listctl: encode entity: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return merged, fmt.Errorf("listctl: entity is not an object: %w", err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return merged, fmt.Errorf("listctl: patch is not an object: %w", err)
	}
	for k, v := range overlay {
		fields[k] = v
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return merged, err
	}
	if err := json.Unmarshal(out, &merged); err != nil {
		return merged, fmt.Errorf("listctl: apply patch: %w", err)
	}
	return merged, nil
}
