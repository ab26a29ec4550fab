package monitor

import (
	"bytes"
	"encoding/json"
)

// parsePayload performs a best-effort structured extraction from a raw tool
// result so detectors can scan real values. Failures yield nil ("no
// payload") and the event simply skips domain-value scanning — a malformed
// result is never an error.
func parsePayload(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any, []any:
		return v
	case []byte:
		return decodeJSONPayload(v)
	case string:
		return decodeJSONPayload([]byte(v))
	default:
		// Typed structs from in-process tools: round-trip through JSON.
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return decodeJSONPayload(b)
	}
}

// decodeJSONPayload decodes a JSON object or array. Scalars are ignored:
// there is nothing in them for the field scanners to walk.
func decodeJSONPayload(b []byte) any {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil
	}
	return out
}
