package journal

import (
	"encoding/json"
	"fmt"
)

// marshalLineItems serializes receipt descriptions. A nil slice is stored
// as "[]" so the column never holds null.
func marshalLineItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal line items: %w", err)
	}
	return string(data), nil
}

// unmarshalLineItems deserializes receipt descriptions.
func unmarshalLineItems(data string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	return items, nil
}
