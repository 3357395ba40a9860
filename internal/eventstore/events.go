package eventstore

import (
	"context"
	"encoding/json"
	"time"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// Event type names recorded by check runs.
const (
	TypeCheckStarted   = "CheckStarted"
	TypeIssueFound     = "IssueFound"
	TypeCheckCompleted = "CheckCompleted"
	TypeSiteRendered   = "SiteRendered"
)

// CheckStartedMeta describes how a check run was triggered.
type CheckStartedMeta struct {
	NavFile     string `json:"nav_file"`
	DocsRoot    string `json:"docs_root"`
	Trigger     string `json:"trigger"` // "cli", "watch", "schedule"
	Fingerprint string `json:"fingerprint,omitempty"`
}

// CheckStarted is emitted when a navigation check run begins.
type CheckStarted struct {
	BaseEvent
	Meta CheckStartedMeta `json:"meta"`
}

// NewCheckStarted creates a CheckStarted event.
func NewCheckStarted(runID string, meta CheckStartedMeta) (*CheckStarted, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEventStore, "failed to marshal CheckStarted payload").
			WithContext("run_id", runID).Build()
	}

	return &CheckStarted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeCheckStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Meta: meta,
	}, nil
}

// IssueFound is emitted for each issue a check run reports.
type IssueFound struct {
	BaseEvent
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Target   string `json:"target,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// NewIssueFound creates an IssueFound event.
func NewIssueFound(runID, rule, severity, message, target string, line int) (*IssueFound, error) {
	payload, err := json.Marshal(map[string]any{
		"rule":     rule,
		"severity": severity,
		"message":  message,
		"target":   target,
		"line":     line,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEventStore, "failed to marshal IssueFound payload").
			WithContext("run_id", runID).WithContext("rule", rule).Build()
	}

	return &IssueFound{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeIssueFound,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Rule:     rule,
		Severity: severity,
		Message:  message,
		Target:   target,
		Line:     line,
	}, nil
}

// CheckCompletedMeta summarizes a finished check run.
type CheckCompletedMeta struct {
	ActiveEntries int           `json:"active_entries"`
	DisabledCount int           `json:"disabled_count"`
	Errors        int           `json:"errors"`
	Warnings      int           `json:"warnings"`
	Infos         int           `json:"infos"`
	Duration      time.Duration `json:"duration_ms"`
}

// CheckCompleted is emitted when a check run finishes.
type CheckCompleted struct {
	BaseEvent
	Meta CheckCompletedMeta `json:"meta"`
}

// NewCheckCompleted creates a CheckCompleted event.
func NewCheckCompleted(runID string, meta CheckCompletedMeta) (*CheckCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"active_entries": meta.ActiveEntries,
		"disabled_count": meta.DisabledCount,
		"errors":         meta.Errors,
		"warnings":       meta.Warnings,
		"infos":          meta.Infos,
		"duration_ms":    meta.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEventStore, "failed to marshal CheckCompleted payload").
			WithContext("run_id", runID).Build()
	}

	return &CheckCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeCheckCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Meta: meta,
	}, nil
}

// SiteRendered is emitted when the static site has been regenerated.
type SiteRendered struct {
	BaseEvent
	OutputDir     string        `json:"output_dir"`
	PagesRendered int           `json:"pages_rendered"`
	PagesCopied   int           `json:"pages_copied"`
	Duration      time.Duration `json:"duration_ms"`
}

// NewSiteRendered creates a SiteRendered event.
func NewSiteRendered(runID, outputDir string, rendered, copied int, duration time.Duration) (*SiteRendered, error) {
	payload, err := json.Marshal(map[string]any{
		"output_dir":     outputDir,
		"pages_rendered": rendered,
		"pages_copied":   copied,
		"duration_ms":    duration.Milliseconds(),
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEventStore, "failed to marshal SiteRendered payload").
			WithContext("run_id", runID).Build()
	}

	return &SiteRendered{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeSiteRendered,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		OutputDir:     outputDir,
		PagesRendered: rendered,
		PagesCopied:   copied,
		Duration:      duration,
	}, nil
}

// Record appends an already-constructed event to a store. A nil store is a
// no-op so callers can run without persistence.
func Record(ctx context.Context, store Store, event Event) error {
	if store == nil {
		return nil
	}
	return store.Append(ctx, event.RunID(), event.Type(), event.Payload(), event.Metadata())
}
