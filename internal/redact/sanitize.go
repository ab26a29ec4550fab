package redact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	vigilotel "github.com/vigil-io/vigil/internal/otel"
)

var tracer = vigilotel.Tracer("github.com/vigil-io/vigil/internal/redact")

const (
	// MaxStringLen is the per-string cap applied during sanitization.
	MaxStringLen = 1000
	// MaxArrayLen is the per-array element cap applied during sanitization.
	MaxArrayLen = 200

	truncationMarker = "...[truncated]"
	cycleMarker      = "[cycle]"
)

// Sanitize deep-redacts a value and bounds its serialized size. Strings longer
// than MaxStringLen are cut with a marker suffix, arrays longer than
// MaxArrayLen are cut with a marker entry, and if the JSON form still exceeds
// maxLen the whole value collapses to {"truncated": true, "preview": ...}.
//
// Sanitize never panics: on any internal failure (non-serializable input,
// unexpected shapes) it degrades to the value's redacted, truncated string
// form rather than losing the record.
func (r *Redactor) Sanitize(ctx context.Context, v any, maxLen int) (out any) {
	_, span := tracer.Start(ctx, "redact.sanitize")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			span.SetAttributes(attribute.Bool("sanitize.degraded", true))
			out = r.fallback(v, maxLen)
		}
	}()

	redacted := truncateValue(r.Deep(v), make(map[uintptr]bool))

	serialized, err := json.Marshal(redacted)
	if err != nil {
		span.SetAttributes(attribute.Bool("sanitize.degraded", true))
		return r.fallback(v, maxLen)
	}
	span.SetAttributes(attribute.Int("sanitize.size_bytes", len(serialized)))

	if len(serialized) > maxLen {
		span.SetAttributes(attribute.Bool("sanitize.collapsed", true))
		return map[string]any{
			"truncated": true,
			"preview":   clipString(string(serialized), maxLen),
		}
	}
	return redacted
}

// fallback redacts the value's string form and clips it to maxLen. Reached
// only on serialization failures; the deep walker itself is cycle-safe.
func (r *Redactor) fallback(v any, maxLen int) string {
	return clipString(r.Strings(fmt.Sprint(v)), maxLen)
}

// truncateValue applies the per-string and per-array caps recursively.
// Repeated container references (cycles included) are replaced with a marker
// so the result is always serializable.
func truncateValue(v any, visited map[uintptr]bool) any {
	switch val := v.(type) {
	case string:
		if len(val) > MaxStringLen {
			return clipString(val, MaxStringLen) + truncationMarker
		}
		return val
	case map[string]any:
		ptr := containerID(val)
		if ptr != 0 {
			if visited[ptr] {
				return cycleMarker
			}
			visited[ptr] = true
			defer delete(visited, ptr)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = truncateValue(item, visited)
		}
		return out
	case []any:
		ptr := containerID(val)
		if ptr != 0 {
			if visited[ptr] {
				return cycleMarker
			}
			visited[ptr] = true
			defer delete(visited, ptr)
		}
		n := len(val)
		if n > MaxArrayLen {
			out := make([]any, 0, MaxArrayLen+1)
			for _, item := range val[:MaxArrayLen] {
				out = append(out, truncateValue(item, visited))
			}
			return append(out, fmt.Sprintf("[truncated %d items]", n-MaxArrayLen))
		}
		out := make([]any, n)
		for i, item := range val {
			out[i] = truncateValue(item, visited)
		}
		return out
	default:
		return v
	}
}

// clipString cuts s to at most maxLen bytes, keeping the result valid UTF-8.
func clipString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxLen], "")
}
