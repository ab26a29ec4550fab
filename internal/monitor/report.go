package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Summary is a point-in-time snapshot of everything the engine retains.
// Plain nested data throughout: it is the sole contract with whatever
// rendering layer sits on top, and must serialize to any wire format intact.
type Summary struct {
	GeneratedAt     time.Time             `json:"generated_at"`
	Totals          Totals                `json:"totals"`
	Tools           map[string]ToolStats  `json:"tools"`
	Rates           map[string]RateWindow `json:"rates"`
	RecentEvents    []ToolCallEvent       `json:"recent_events"`
	RecentAnomalies []Anomaly             `json:"recent_anomalies"`
	Turns           TurnSummary           `json:"turns"`
}

// Totals are engine-wide event counts.
type Totals struct {
	AllTime  int `json:"all_time"`
	LastHour int `json:"last_hour"`
}

// ToolStats aggregates one tool's activity over the last hour.
type ToolStats struct {
	Count        int     `json:"count"`
	Errors       int     `json:"errors"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// RateWindow is one tool's current-minute count against its trailing
// baseline, using the same windowing as the spike detector.
type RateWindow struct {
	ThisMinute  int     `json:"this_minute"`
	BaselineAvg float64 `json:"baseline_avg"`
}

// TurnSummary is the assistant-turn view: recent turns plus validation
// totals across every retained turn.
type TurnSummary struct {
	Recent      []AssistantTurn  `json:"recent"`
	Validations ValidationTotals `json:"validations"`
}

// ValidationTotals counts claim-vs-truth checks across retained turns.
type ValidationTotals struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// Summary builds the snapshot under a single brief lock window so readers
// observe a consistent view without starving writers.
func (m *Monitor) Summary(ctx context.Context) Summary {
	_, span := tracer.Start(ctx, "monitor.summary")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hourAgo := now.Add(-time.Hour)
	currentMinute := now.Unix() / 60

	s := Summary{
		GeneratedAt: now,
		Totals:      Totals{AllTime: m.totalEvents},
		Tools:       make(map[string]ToolStats),
		Rates:       make(map[string]RateWindow),
	}

	// Per-tool hourly stats with a running average so no duration list is
	// ever materialized.
	latencySamples := make(map[string]int)
	for i := 0; i < m.events.len(); i++ {
		ev := m.events.at(i)
		if !ev.Timestamp.After(hourAgo) {
			continue
		}
		s.Totals.LastHour++
		stats := s.Tools[ev.Tool]
		stats.Count++
		if ev.completed {
			if !ev.Success {
				stats.Errors++
			}
			latencySamples[ev.Tool]++
			stats.AvgLatencyMS += (float64(ev.DurationMS) - stats.AvgLatencyMS) / float64(latencySamples[ev.Tool])
		}
		s.Tools[ev.Tool] = stats
	}

	for tool := range s.Tools {
		counts := m.minuteCounts(tool)
		s.Rates[tool] = RateWindow{
			ThisMinute:  counts[currentMinute],
			BaselineAvg: baselineAverage(counts, currentMinute),
		}
	}

	for _, ev := range m.events.lastN(recentWindow) {
		s.RecentEvents = append(s.RecentEvents, *ev)
	}
	for _, a := range m.anomalies.lastN(recentWindow) {
		s.RecentAnomalies = append(s.RecentAnomalies, *a)
	}
	for _, turn := range m.turns.lastN(recentWindow) {
		s.Turns.Recent = append(s.Turns.Recent, copyTurn(turn))
	}
	for i := 0; i < m.turns.len(); i++ {
		for _, check := range m.turns.at(i).Validations {
			s.Turns.Validations.Total++
			if check.OK {
				s.Turns.Validations.OK++
			} else {
				s.Turns.Validations.Failed++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("summary.events", s.Totals.AllTime),
		attribute.Int("summary.anomalies", len(s.RecentAnomalies)),
		attribute.Int("summary.turns", len(s.Turns.Recent)),
	)
	return s
}

// copyTurn clones a turn so snapshot holders never alias the live slices and
// maps that later ProvideGroundTruth/ValidateNumber calls mutate.
func copyTurn(turn *AssistantTurn) AssistantTurn {
	out := *turn
	out.ToolsUsed = append([]string(nil), turn.ToolsUsed...)
	out.Validations = append([]ValidationCheck(nil), turn.Validations...)
	out.ExtractedNumbers = make(map[string]float64, len(turn.ExtractedNumbers))
	for k, v := range turn.ExtractedNumbers {
		out.ExtractedNumbers[k] = v
	}
	out.GroundedNumbers = make(map[string]float64, len(turn.GroundedNumbers))
	for k, v := range turn.GroundedNumbers {
		out.GroundedNumbers[k] = v
	}
	return out
}

// Anomalies returns value copies of every retained anomaly, oldest first.
func (m *Monitor) Anomalies(ctx context.Context) []Anomaly {
	_, span := tracer.Start(ctx, "monitor.anomalies")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Anomaly, 0, m.anomalies.len())
	for i := 0; i < m.anomalies.len(); i++ {
		out = append(out, *m.anomalies.at(i))
	}
	span.SetAttributes(attribute.Int("anomaly.count", len(out)))
	return out
}
