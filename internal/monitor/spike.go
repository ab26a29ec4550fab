package monitor

import "fmt"

// minuteCounts buckets every retained event for one tool into 1-minute
// buckets keyed by floor-divided Unix timestamp. Recomputed from the event
// log on demand; at the default retention bound this is cheap, and a true
// streaming counter only pays off if retention grows substantially.
func (m *Monitor) minuteCounts(tool string) map[int64]int {
	counts := make(map[int64]int)
	for i := 0; i < m.events.len(); i++ {
		ev := m.events.at(i)
		if ev.Tool != tool {
			continue
		}
		counts[ev.Timestamp.Unix()/60]++
	}
	return counts
}

// baselineAverage is the mean per-minute count over the trailing
// spikeWindowMinutes complete minutes, excluding the current one.
func baselineAverage(counts map[int64]int, currentMinute int64) float64 {
	sum := 0
	for i := int64(1); i <= spikeWindowMinutes; i++ {
		sum += counts[currentMinute-i]
	}
	return float64(sum) / float64(spikeWindowMinutes)
}

// detectRateSpike fires when the current minute's call count for the tool
// clears the absolute floor AND exceeds spikeFactor times a non-zero trailing
// baseline. Both gates are required: without the floor, any call against a
// near-zero baseline looks like an infinite multiple.
func (m *Monitor) detectRateSpike(ev *ToolCallEvent) []*Anomaly {
	counts := m.minuteCounts(ev.Tool)
	currentMinute := m.now().Unix() / 60
	thisMinute := counts[currentMinute]
	baseline := baselineAverage(counts, currentMinute)

	if thisMinute < spikeMinAbsolute || baseline <= 0 || float64(thisMinute) <= baseline*spikeFactor {
		return nil
	}

	return []*Anomaly{m.newAnomaly(
		AnomalyRateSpike,
		fmt.Sprintf("call rate spike for %s: %d calls this minute vs %.2f/min baseline", ev.Tool, thisMinute, baseline),
		map[string]any{
			"tool":         ev.Tool,
			"this_minute":  thisMinute,
			"baseline_avg": baseline,
			"factor":       spikeFactor,
		},
	)}
}
