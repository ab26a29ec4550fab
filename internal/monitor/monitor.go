// Package monitor implements the tool-invocation observability and guardrail
// engine: a bounded in-memory record of capability invocations and agent
// turns, anomaly detection after every completed call, and cross-checking of
// the agent's numeric claims against tool-sourced ground truth.
//
// The engine is an explicit instance (no package-level singleton) so tests
// and embedders can run isolated monitors side by side. All state lives in
// memory; nothing survives the process.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	vigilotel "github.com/vigil-io/vigil/internal/otel"
	"github.com/vigil-io/vigil/internal/redact"
)

var tracer = vigilotel.Tracer("github.com/vigil-io/vigil/internal/monitor")

// Retention bounds and detector thresholds. The log bounds are defaults and
// can be raised per instance; the detector thresholds are fixed.
const (
	DefaultMaxEvents    = 1000
	DefaultMaxAnomalies = 500
	DefaultMaxTurns     = 200

	argsSanitizeLimit   = 3000
	resultSanitizeLimit = 10000

	// spikeWindowMinutes is the trailing baseline window; spikeMinAbsolute is
	// the per-minute floor below which a spike never fires (suppresses
	// "infinite multiple" alarms on near-zero-baseline tools); spikeFactor is
	// the required multiple over the baseline average.
	spikeWindowMinutes = 10
	spikeMinAbsolute   = 10
	spikeFactor        = 3.0

	// burstSampleSize is the fixed trailing sample per tool for error-burst
	// detection (a sample, not a time window, so a burst is caught at any
	// traffic rate). burstFailureRatio is the failing share that trips it.
	burstSampleSize   = 10
	burstFailureRatio = 0.5

	maxFindingPaths = 10
	recentWindow    = 50
)

// Monitor is the engine instance. All exported methods are safe for
// concurrent use; a single coarse lock guards the three bounded logs
// (events, anomalies, turns). Detection runs inline on the goroutine that
// completes a call — there is no background scheduler.
type Monitor struct {
	mu        sync.Mutex
	events    *ring[*ToolCallEvent]
	eventByID map[string]*ToolCallEvent
	anomalies *ring[*Anomaly]
	turns     *ring[*AssistantTurn]
	turnByID  map[string]*AssistantTurn

	redactor    *redact.Redactor
	detectors   []namedDetector
	now         func() time.Time
	totalEvents int
}

type namedDetector struct {
	name string
	run  func(ev *ToolCallEvent) []*Anomaly
}

// Option configures a Monitor via the functional options pattern.
type Option func(*options)

type options struct {
	maxEvents    int
	maxAnomalies int
	maxTurns     int
	redactor     *redact.Redactor
	now          func() time.Time
}

// WithMaxEvents overrides the event log capacity.
func WithMaxEvents(n int) Option {
	return func(o *options) { o.maxEvents = n }
}

// WithMaxAnomalies overrides the anomaly log capacity.
func WithMaxAnomalies(n int) Option {
	return func(o *options) { o.maxAnomalies = n }
}

// WithMaxTurns overrides the assistant-turn log capacity.
func WithMaxTurns(n int) Option {
	return func(o *options) { o.maxTurns = n }
}

// WithRedactor sets the redactor used to sanitize everything the engine
// retains. Defaults to a zero-config redactor with the embedded rules.
func WithRedactor(r *redact.Redactor) Option {
	return func(o *options) { o.redactor = r }
}

// WithClock overrides the time source. Used by tests to steer the
// minute-bucketed rate windows deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Monitor with the given options.
func New(opts ...Option) *Monitor {
	o := options{
		maxEvents:    DefaultMaxEvents,
		maxAnomalies: DefaultMaxAnomalies,
		maxTurns:     DefaultMaxTurns,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.redactor == nil {
		o.redactor = redact.MustNewRedactor()
	}

	m := &Monitor{
		events:    newRing[*ToolCallEvent](o.maxEvents),
		eventByID: make(map[string]*ToolCallEvent),
		anomalies: newRing[*Anomaly](o.maxAnomalies),
		turns:     newRing[*AssistantTurn](o.maxTurns),
		turnByID:  make(map[string]*AssistantTurn),
		redactor:  o.redactor,
		now:       o.now,
	}
	m.detectors = []namedDetector{
		{name: "domain_value", run: m.detectDomainValues},
		{name: "rate_spike", run: m.detectRateSpike},
		{name: "error_burst", run: m.detectErrorBurst},
	}
	return m
}

// StartToolCall records a pending invocation and returns its event id.
// Arguments are redacted and size-capped before retention. The oldest event
// is evicted once the log is at capacity.
func (m *Monitor) StartToolCall(ctx context.Context, tool string, args any) string {
	ev := &ToolCallEvent{
		ID:        uuid.New().String(),
		Timestamp: m.now(),
		Tool:      tool,
		Args:      m.redactor.Sanitize(ctx, args, argsSanitizeLimit),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if evicted, wasFull := m.events.push(ev); wasFull {
		delete(m.eventByID, evicted.ID)
	}
	m.eventByID[ev.ID] = ev
	m.totalEvents++
	return ev.ID
}

// EndToolCall finalizes a pending invocation and runs the anomaly detectors
// against it. Unknown or already-finalized ids are a silent no-op: the event
// may have been evicted and callers cannot be relied upon to track that.
func (m *Monitor) EndToolCall(ctx context.Context, id string, rawResult any, success bool, errMsg string) {
	ctx, span := tracer.Start(ctx, "monitor.end_tool_call")
	defer span.End()

	// The payload is extracted from the raw result before sanitization:
	// domain-value scanning needs the real numbers, not placeholders.
	payload := parsePayload(rawResult)
	result := m.redactor.Sanitize(ctx, rawResult, resultSanitizeLimit)
	redactedErr := ""
	if !success {
		redactedErr = m.redactor.Strings(errMsg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.eventByID[id]
	if !ok || ev.completed {
		span.SetAttributes(attribute.Bool("monitor.unknown_event", true))
		return
	}

	ev.completed = true
	ev.Success = success
	ev.ErrorMessage = redactedErr
	ev.DurationMS = m.now().Sub(ev.Timestamp).Milliseconds()
	ev.Result = result
	ev.parsedPayload = payload

	span.SetAttributes(
		attribute.String("tool.name", ev.Tool),
		attribute.Bool("tool.success", success),
		attribute.Int64("tool.duration_ms", ev.DurationMS),
	)

	m.runDetectorsLocked(ctx, ev)
	ev.parsedPayload = nil
}

// Record wraps a unit of work in a start/end pair: the call is recorded as
// failed when fn returns an error, and fn's result and error are forwarded
// unchanged. Cancellation and timeouts are fn's own business; the engine only
// observes the outcome.
func (m *Monitor) Record(ctx context.Context, tool string, args any, fn func(context.Context) (any, error)) (any, error) {
	id := m.StartToolCall(ctx, tool, args)
	result, err := fn(ctx)
	if err != nil {
		m.EndToolCall(ctx, id, result, false, err.Error())
		return result, err
	}
	m.EndToolCall(ctx, id, result, true, "")
	return result, nil
}

// runDetectorsLocked runs every detector against the finalized event. Each
// detector is recovered independently: one failing detection path must not
// suppress the others or surface to the caller of EndToolCall.
func (m *Monitor) runDetectorsLocked(ctx context.Context, ev *ToolCallEvent) {
	for _, d := range m.detectors {
		for _, a := range m.safeDetect(d, ev) {
			m.appendAnomalyLocked(ctx, a)
		}
	}
}

func (m *Monitor) safeDetect(d namedDetector, ev *ToolCallEvent) (out []*Anomaly) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("detector", d.name).
				Str("tool", ev.Tool).
				Interface("panic", rec).
				Msg("detector_panic: detection path failed, continuing with remaining detectors")
			out = nil
		}
	}()
	return d.run(ev)
}

// appendAnomalyLocked appends to the bounded anomaly log and emits a
// structured warning for operator alerting.
func (m *Monitor) appendAnomalyLocked(ctx context.Context, a *Anomaly) {
	m.anomalies.push(a)
	log.Warn().
		Str("anomaly_id", a.ID).
		Str("anomaly_type", string(a.Type)).
		Func(vigilotel.LogTraceFields(ctx)).
		Msg(a.Message)
}

// newAnomaly builds an anomaly stamped with the monitor clock.
func (m *Monitor) newAnomaly(typ AnomalyType, msg string, details map[string]any) *Anomaly {
	return &Anomaly{
		ID:        uuid.New().String(),
		Timestamp: m.now(),
		Type:      typ,
		Message:   msg,
		Details:   details,
	}
}
