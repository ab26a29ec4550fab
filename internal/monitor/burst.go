package monitor

import "fmt"

// detectErrorBurst inspects the tool's last burstSampleSize finalized events
// across all time. A fixed small sample, not a time window: a slow tool that
// suddenly fails every call should alarm just as fast as a busy one.
func (m *Monitor) detectErrorBurst(ev *ToolCallEvent) []*Anomaly {
	var sample []*ToolCallEvent
	for i := m.events.len() - 1; i >= 0 && len(sample) < burstSampleSize; i-- {
		e := m.events.at(i)
		if e.Tool == ev.Tool && e.completed {
			sample = append(sample, e)
		}
	}
	if len(sample) < burstSampleSize {
		return nil
	}

	failures := 0
	for _, e := range sample {
		if !e.Success {
			failures++
		}
	}
	if float64(failures) < burstFailureRatio*float64(len(sample)) {
		return nil
	}

	return []*Anomaly{m.newAnomaly(
		AnomalyErrorBurst,
		fmt.Sprintf("error burst for %s: %d of last %d calls failed", ev.Tool, failures, len(sample)),
		map[string]any{
			"tool":        ev.Tool,
			"failures":    failures,
			"sample_size": len(sample),
		},
	)}
}
