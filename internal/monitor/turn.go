package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// Float64 returns a pointer to v. Convenience for the optional claimed/truth
// arguments of ValidateNumber.
func Float64(v float64) *float64 { return &v }

// StartAssistantTurn opens a turn for one user-request-to-answer cycle and
// returns its id. The user message is redacted before retention; the oldest
// turn is evicted once the log is at capacity.
func (m *Monitor) StartAssistantTurn(ctx context.Context, userMessage any) string {
	turn := &AssistantTurn{
		ID:               uuid.New().String(),
		Timestamp:        m.now(),
		UserMessage:      m.redactor.Sanitize(ctx, userMessage, argsSanitizeLimit),
		ExtractedNumbers: make(map[string]float64),
		GroundedNumbers:  make(map[string]float64),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if evicted, wasFull := m.turns.push(turn); wasFull {
		delete(m.turnByID, evicted.ID)
	}
	m.turnByID[turn.ID] = turn
	return turn.ID
}

// NoteToolUsed records that the turn invoked the named tool. Idempotent: a
// tool appears once no matter how many times it ran. Unknown turn ids are a
// silent no-op.
func (m *Monitor) NoteToolUsed(turnID, tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn, ok := m.turnByID[turnID]
	if !ok {
		return
	}
	for _, used := range turn.ToolsUsed {
		if used == tool {
			return
		}
	}
	turn.ToolsUsed = append(turn.ToolsUsed, tool)
}

// EndAssistantTurn closes the turn with the agent's final answer, extracts
// its numeric claims, and flags an unsupported-claim anomaly when the answer
// asserts numbers without any tool having been used. Ground truth and
// validation calls remain legal after the turn ends.
func (m *Monitor) EndAssistantTurn(ctx context.Context, turnID string, assistantMessage any) {
	ctx, span := tracer.Start(ctx, "monitor.end_assistant_turn")
	defer span.End()

	raw := textOf(assistantMessage)
	extracted := extractNumbers(raw)
	sanitized := m.redactor.Sanitize(ctx, assistantMessage, argsSanitizeLimit)

	m.mu.Lock()
	defer m.mu.Unlock()

	turn, ok := m.turnByID[turnID]
	if !ok || turn.ended {
		return
	}

	turn.ended = true
	turn.AssistantMessage = sanitized
	turn.rawText = raw
	turn.ExtractedNumbers = extracted

	if len(extracted) > 0 && len(turn.ToolsUsed) == 0 {
		labels := make([]string, 0, len(extracted))
		for label := range extracted {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		m.appendAnomalyLocked(ctx, m.newAnomaly(
			AnomalyUnsupportedClaim,
			fmt.Sprintf("answer asserts %d numeric claim(s) without any tool call", len(extracted)),
			map[string]any{
				"turn_id": turn.ID,
				"labels":  labels,
			},
		))
	}
}

// ProvideGroundTruth merges caller-supplied label-to-value pairs into the
// turn's grounded numbers. The caller is responsible for sourcing these from
// actual tool results.
func (m *Monitor) ProvideGroundTruth(turnID string, numbers map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn, ok := m.turnByID[turnID]
	if !ok {
		return
	}
	for label, value := range numbers {
		turn.GroundedNumbers[label] = value
	}
}

// ValidateNumber appends a claim-vs-truth check to the turn. When both values
// are present and the difference exceeds the tolerance, a claim-mismatch
// anomaly is emitted; when either value is absent the check simply records
// ok=false with no delta.
func (m *Monitor) ValidateNumber(ctx context.Context, turnID, label string, claimed, truth *float64, tolerance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn, ok := m.turnByID[turnID]
	if !ok {
		return
	}
	m.validateLocked(ctx, turn, label, claimed, truth, tolerance)
}

// AutoValidateFromAnswer validates the given label against truth using the
// number already extracted from the turn's answer, falling back to a fresh
// scan of the raw answer text.
func (m *Monitor) AutoValidateFromAnswer(ctx context.Context, turnID, label string, truth, tolerance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn, ok := m.turnByID[turnID]
	if !ok {
		return
	}

	var claimed *float64
	if v, ok := turn.ExtractedNumbers[label]; ok {
		claimed = &v
	} else if v, ok := extractNumbers(turn.rawText)[label]; ok {
		claimed = &v
	}
	m.validateLocked(ctx, turn, label, claimed, &truth, tolerance)
}

func (m *Monitor) validateLocked(ctx context.Context, turn *AssistantTurn, label string, claimed, truth *float64, tolerance float64) {
	check := ValidationCheck{
		Label:     label,
		AI:        claimed,
		Tool:      truth,
		Tolerance: tolerance,
	}

	if claimed != nil && truth != nil {
		diff := *claimed - *truth
		within := math.Abs(diff) <= math.Abs(tolerance)
		check.Delta = &ValidationDelta{
			AI:              *claimed,
			Tool:            *truth,
			Diff:            diff,
			WithinTolerance: within,
		}
		check.OK = within
	}

	turn.Validations = append(turn.Validations, check)

	if check.Delta != nil && !check.OK {
		m.appendAnomalyLocked(ctx, m.newAnomaly(
			AnomalyClaimMismatch,
			fmt.Sprintf("claim %q (=%v) disagrees with tool ground truth (=%v)", label, *claimed, *truth),
			map[string]any{
				"turn_id":   turn.ID,
				"label":     label,
				"ai":        *claimed,
				"tool":      *truth,
				"tolerance": tolerance,
				"diff":      check.Delta.Diff,
			},
		))
	}
}
