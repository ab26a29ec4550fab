package redact

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_PassThroughSmallValues(t *testing.T) {
	r := MustNewRedactor()

	in := map[string]any{"city": "Oslo", "temp": 12.5}
	out := r.Sanitize(context.Background(), in, 3000)
	assert.Equal(t, in, out)
}

func TestSanitize_RedactsBeforeBounding(t *testing.T) {
	r := MustNewRedactor()

	in := map[string]any{"password": "hunter2hunter2"}
	out := r.Sanitize(context.Background(), in, 3000).(map[string]any)
	assert.Equal(t, Placeholder, out["password"])
}

func TestSanitize_LongStringTruncated(t *testing.T) {
	r := MustNewRedactor()

	in := map[string]any{"body": strings.Repeat("x", MaxStringLen+500)}
	out := r.Sanitize(context.Background(), in, 100000).(map[string]any)

	body := out["body"].(string)
	assert.True(t, strings.HasSuffix(body, truncationMarker))
	assert.Len(t, body, MaxStringLen+len(truncationMarker))
}

func TestSanitize_LongArrayTruncated(t *testing.T) {
	r := MustNewRedactor()

	items := make([]any, MaxArrayLen+30)
	for i := range items {
		items[i] = i
	}
	out := r.Sanitize(context.Background(), map[string]any{"items": items}, 1000000).(map[string]any)

	got := out["items"].([]any)
	require.Len(t, got, MaxArrayLen+1)
	assert.Equal(t, "[truncated 30 items]", got[MaxArrayLen])
}

func TestSanitize_CollapsesOversizePayload(t *testing.T) {
	r := MustNewRedactor()

	in := map[string]any{"blob": strings.Repeat("abc ", 200)}
	out := r.Sanitize(context.Background(), in, 100).(map[string]any)

	assert.Equal(t, true, out["truncated"])
	preview := out["preview"].(string)
	assert.LessOrEqual(t, len(preview), 100)
}

func TestSanitize_CyclicValueIsSerializable(t *testing.T) {
	r := MustNewRedactor()

	in := map[string]any{"name": "loop"}
	in["self"] = in

	out := r.Sanitize(context.Background(), in, 3000)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), cycleMarker)
	assert.Contains(t, string(data), "loop")
}

func TestSanitize_NonSerializableFallsBack(t *testing.T) {
	r := MustNewRedactor()

	out := r.Sanitize(context.Background(), map[string]any{"ratio": math.NaN()}, 3000)
	_, isString := out.(string)
	assert.True(t, isString, "non-serializable input degrades to a string form")
}

func TestClipString_UTF8Boundary(t *testing.T) {
	s := strings.Repeat("é", 10)
	clipped := clipString(s, 11)
	assert.True(t, len(clipped) <= 11)
	assert.True(t, strings.HasPrefix(s, clipped))
}
