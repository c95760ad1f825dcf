package store

import (
	"encoding/json"
	"fmt"

	"github.com/pablobm/calculate/internal/trace"
)

// marshalInputs stores operand sums as canonical JSON so identical events
// produce identical rows.
func marshalInputs(inputs map[string]string) (string, error) {
	if inputs == nil {
		inputs = map[string]string{}
	}
	data, err := trace.MarshalCanonical(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	return string(data), nil
}

func unmarshalInputs(s string) (map[string]string, error) {
	inputs := map[string]string{}
	if err := json.Unmarshal([]byte(s), &inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	return inputs, nil
}
