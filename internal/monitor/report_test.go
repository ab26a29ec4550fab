package monitor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_Empty(t *testing.T) {
	m := New()
	sum := m.Summary(context.Background())

	assert.Zero(t, sum.Totals.AllTime)
	assert.Zero(t, sum.Totals.LastHour)
	assert.Empty(t, sum.Tools)
	assert.Empty(t, sum.RecentEvents)
	assert.Empty(t, sum.RecentAnomalies)
	assert.Empty(t, sum.Turns.Recent)
	assert.Zero(t, sum.Turns.Validations.Total)
}

func TestSummary_ToolStats(t *testing.T) {
	clock := newTestClock()
	m := New(WithClock(clock.Now))
	ctx := context.Background()

	id := m.StartToolCall(ctx, "fetch", nil)
	clock.Advance(40 * time.Millisecond)
	m.EndToolCall(ctx, id, nil, true, "")

	id = m.StartToolCall(ctx, "fetch", nil)
	clock.Advance(80 * time.Millisecond)
	m.EndToolCall(ctx, id, nil, false, "timeout")

	completeCall(m, "translate", nil, true, "")

	sum := m.Summary(ctx)
	assert.Equal(t, 3, sum.Totals.AllTime)
	assert.Equal(t, 3, sum.Totals.LastHour)

	fetch := sum.Tools["fetch"]
	assert.Equal(t, 2, fetch.Count)
	assert.Equal(t, 1, fetch.Errors)
	assert.InDelta(t, 60.0, fetch.AvgLatencyMS, 1e-9)

	assert.Equal(t, 1, sum.Tools["translate"].Count)
}

func TestSummary_LastHourWindow(t *testing.T) {
	clock := newTestClock()
	m := New(WithClock(clock.Now))
	ctx := context.Background()

	completeCall(m, "fetch", nil, true, "")
	clock.Advance(2 * time.Hour)
	completeCall(m, "fetch", nil, true, "")

	sum := m.Summary(ctx)
	assert.Equal(t, 2, sum.Totals.AllTime)
	assert.Equal(t, 1, sum.Totals.LastHour)
	assert.Equal(t, 1, sum.Tools["fetch"].Count, "hourly stats exclude the old call")
}

func TestSummary_PendingCallCounted(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.StartToolCall(ctx, "slow", nil)

	sum := m.Summary(ctx)
	assert.Equal(t, 1, sum.Tools["slow"].Count)
	assert.Zero(t, sum.Tools["slow"].Errors)
	assert.Zero(t, sum.Tools["slow"].AvgLatencyMS, "pending calls contribute no latency")
}

func TestSummary_Rates(t *testing.T) {
	clock := newTestClock()
	m := New(WithClock(clock.Now))
	ctx := context.Background()

	seedBaseline(m, clock, "search")
	completeCall(m, "search", nil, true, "")
	completeCall(m, "search", nil, true, "")

	sum := m.Summary(ctx)
	rate := sum.Rates["search"]
	assert.Equal(t, 2, rate.ThisMinute)
	assert.InDelta(t, 1.0, rate.BaselineAvg, 1e-9)
}

func TestSummary_SnapshotDoesNotAliasLiveState(t *testing.T) {
	m := New()
	ctx := context.Background()

	id := m.StartAssistantTurn(ctx, "q")
	m.NoteToolUsed(id, "lookup")

	sum := m.Summary(ctx)
	m.NoteToolUsed(id, "another")
	m.ProvideGroundTruth(id, map[string]float64{"total": 9})

	turn := sum.Turns.Recent[0]
	assert.Equal(t, []string{"lookup"}, turn.ToolsUsed)
	assert.Empty(t, turn.GroundedNumbers)
}

func TestSummary_ValidationTotalsSpanAllRetainedTurns(t *testing.T) {
	m := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id := m.StartAssistantTurn(ctx, "q")
		m.ValidateNumber(ctx, id, "total", Float64(10), Float64(10), 0)
		m.ValidateNumber(ctx, id, "seats", Float64(5), Float64(9), 1)
	}

	sum := m.Summary(ctx)
	assert.Equal(t, 6, sum.Turns.Validations.Total)
	assert.Equal(t, 3, sum.Turns.Validations.OK)
	assert.Equal(t, 3, sum.Turns.Validations.Failed)
}

func TestSummary_SerializesToJSON(t *testing.T) {
	m := New()
	ctx := context.Background()

	completeCall(m, "check_stock", map[string]any{"available": -1.0}, true, "")
	id := m.StartAssistantTurn(ctx, "q")
	m.EndAssistantTurn(ctx, id, "total: 3")

	data, err := json.Marshal(m.Summary(ctx))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recent_events"`)
	assert.Contains(t, string(data), `"negative_domain_value"`)
}

func TestAnomalies_OldestFirst(t *testing.T) {
	m := New()
	ctx := context.Background()

	completeCall(m, "a_tool", map[string]any{"available": -1.0}, true, "")
	completeCall(m, "b_tool", map[string]any{"reserved": -1.0}, true, "")

	anomalies := m.Anomalies(ctx)
	require.Len(t, anomalies, 2)
	assert.Equal(t, "a_tool", anomalies[0].Details["tool"])
	assert.Equal(t, "b_tool", anomalies[1].Details["tool"])
}
