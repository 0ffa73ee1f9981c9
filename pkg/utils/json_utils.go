package utils

import (
	"encoding/json"
	"fmt"
)

// ToRawMessage marshals a value into the raw JSON form queue payloads
// are published as.
func ToRawMessage(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal queue payload: %w", err)
	}
	return json.RawMessage(data), nil
}
