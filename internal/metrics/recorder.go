package metrics

import "time"

// OutcomeLabel enumerates check run outcomes for counters.
type OutcomeLabel string

const (
	OutcomeClean    OutcomeLabel = "clean"
	OutcomeWarnings OutcomeLabel = "warnings"
	OutcomeErrors   OutcomeLabel = "errors"
	OutcomeFailed   OutcomeLabel = "failed"
)

// Recorder defines observability hooks for check and render metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveCheckDuration(d time.Duration)
	IncCheckOutcome(outcome OutcomeLabel)
	IncIssue(rule, severity string)
	ObserveRenderDuration(d time.Duration)
	AddPagesRendered(n int)
	IncURLCheckResult(broken bool)
	IncRebuild(trigger string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCheckDuration(time.Duration)  {}
func (NoopRecorder) IncCheckOutcome(OutcomeLabel)        {}
func (NoopRecorder) IncIssue(string, string)             {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) AddPagesRendered(int)                {}
func (NoopRecorder) IncURLCheckResult(bool)              {}
func (NoopRecorder) IncRebuild(string)                   {}
