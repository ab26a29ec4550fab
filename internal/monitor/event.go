package monitor

import "time"

// ToolCallEvent records one capability invocation. Created in a pending state
// by StartToolCall, finalized exactly once by EndToolCall, and treated as
// immutable afterwards. Args and Result are stored redacted and size-capped;
// the parsed payload used for anomaly scanning is never retained beyond the
// detector pass.
type ToolCallEvent struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Tool         string    `json:"tool"`
	Args         any       `json:"args,omitempty"`
	Result       any       `json:"result,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMS   int64     `json:"duration_ms"`

	completed     bool
	parsedPayload any
}

// AnomalyType classifies a flagged abnormal condition.
type AnomalyType string

const (
	AnomalyNegativeDomainValue AnomalyType = "negative_domain_value"
	AnomalyRateSpike           AnomalyType = "rate_spike"
	AnomalyErrorBurst          AnomalyType = "error_burst"
	AnomalyClaimMismatch       AnomalyType = "claim_mismatch"
	AnomalyUnsupportedClaim    AnomalyType = "unsupported_claim"
)

// Anomaly is a detected abnormal condition surfaced for operator review.
// Anomalies are data, not errors: the engine never raises them to callers.
type Anomaly struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      AnomalyType    `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// AssistantTurn tracks one user-request-to-answer cycle: which tools the
// agent used and how its stated numeric claims compare to tool-sourced
// ground truth.
type AssistantTurn struct {
	ID               string             `json:"id"`
	Timestamp        time.Time          `json:"timestamp"`
	UserMessage      any                `json:"user_message,omitempty"`
	AssistantMessage any                `json:"assistant_message,omitempty"`
	ToolsUsed        []string           `json:"tools_used,omitempty"`
	ExtractedNumbers map[string]float64 `json:"extracted_numbers,omitempty"`
	GroundedNumbers  map[string]float64 `json:"grounded_numbers,omitempty"`
	Validations      []ValidationCheck  `json:"validations,omitempty"`

	ended   bool
	rawText string
}

// ValidationCheck is one claim-vs-truth comparison within a turn.
type ValidationCheck struct {
	Label     string           `json:"label"`
	AI        *float64         `json:"ai,omitempty"`
	Tool      *float64         `json:"tool,omitempty"`
	Tolerance float64          `json:"tolerance"`
	Delta     *ValidationDelta `json:"delta,omitempty"`
	OK        bool             `json:"ok"`
}

// ValidationDelta is present only when both the claimed and ground-truth
// values exist.
type ValidationDelta struct {
	AI              float64 `json:"ai"`
	Tool            float64 `json:"tool"`
	Diff            float64 `json:"diff"`
	WithinTolerance bool    `json:"within_tolerance"`
}
