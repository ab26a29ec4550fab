package redact

import (
	"fmt"
	"reflect"
)

// Deep returns a redacted copy of a JSON-shaped value (nil, bool, numbers,
// string, []any, map[string]any). Sensitive map keys have their values
// replaced outright; string leaves pass through Strings; containers preserve
// shape. Container identities are tracked so that a repeated reference —
// including a self-referential cycle — maps to the same already-built output
// instead of recursing forever. Values of other Go types are stringified and
// scrubbed as a best effort.
func (r *Redactor) Deep(v any) any {
	return r.deepValue(v, make(map[uintptr]any))
}

func (r *Redactor) deepValue(v any, visited map[uintptr]any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case string:
		return r.Strings(val)
	case map[string]any:
		ptr := containerID(val)
		if ptr != 0 {
			if out, ok := visited[ptr]; ok {
				return out
			}
		}
		out := make(map[string]any, len(val))
		if ptr != 0 {
			visited[ptr] = out
		}
		for k, item := range val {
			if r.isSensitiveKey(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = r.deepValue(item, visited)
		}
		return out
	case []any:
		ptr := containerID(val)
		if ptr != 0 {
			if out, ok := visited[ptr]; ok {
				return out
			}
		}
		out := make([]any, len(val))
		if ptr != 0 {
			visited[ptr] = out
		}
		for i, item := range val {
			out[i] = r.deepValue(item, visited)
		}
		return out
	default:
		return r.Strings(fmt.Sprint(val))
	}
}

// containerID returns a stable identity for a map or slice, or 0 when the
// container is empty (an empty container cannot participate in a cycle, and
// zero-capacity slices may share a data pointer).
func containerID(v any) uintptr {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Len() == 0 {
			return 0
		}
		return rv.Pointer()
	case reflect.Slice:
		if rv.Len() == 0 {
			return 0
		}
		return rv.Pointer()
	default:
		return 0
	}
}
