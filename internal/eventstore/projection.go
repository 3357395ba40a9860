// Package eventstore provides event sourcing primitives for check run tracking.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
)

// RunSummary is a read model summarizing a completed or in-progress check run.
type RunSummary struct {
	RunID         string     `json:"run_id"`
	Status        string     `json:"status"`
	Trigger       string     `json:"trigger,omitempty"`
	NavFile       string     `json:"nav_file,omitempty"`
	Fingerprint   string     `json:"fingerprint,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ActiveEntries int        `json:"active_entries"`
	DisabledCount int        `json:"disabled_count"`
	Errors        int        `json:"errors"`
	Warnings      int        `json:"warnings"`
	Infos         int        `json:"infos"`
	IssueCount    int        `json:"issue_count"`
}

// RunHistoryProjection maintains an in-memory view of check run history,
// reconstructed from events stored in the event store.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	history []*RunSummary // newest first
	maxSize int
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
// Typically called at startup.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = p.history[:0]

	for _, event := range events {
		p.applyLocked(event)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	return nil
}

// Apply folds a single new event into the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(event)
}

func (p *RunHistoryProjection) applyLocked(event Event) {
	switch event.Type() {
	case TypeCheckStarted:
		var meta CheckStartedMeta
		_ = json.Unmarshal(event.Payload(), &meta)
		summary := &RunSummary{
			RunID:       event.RunID(),
			Status:      runStatusRunning,
			Trigger:     meta.Trigger,
			NavFile:     meta.NavFile,
			Fingerprint: meta.Fingerprint,
			StartedAt:   event.Timestamp(),
		}
		p.runs[event.RunID()] = summary
		p.history = append([]*RunSummary{summary}, p.history...)
		if len(p.history) > p.maxSize {
			p.history = p.history[:p.maxSize]
		}

	case TypeIssueFound:
		summary, ok := p.runs[event.RunID()]
		if !ok {
			return
		}
		summary.IssueCount++
		var payload struct {
			Severity string `json:"severity"`
		}
		_ = json.Unmarshal(event.Payload(), &payload)
		switch payload.Severity {
		case "error":
			summary.Errors++
		case "warning":
			summary.Warnings++
		case "info":
			summary.Infos++
		}

	case TypeCheckCompleted:
		summary, ok := p.runs[event.RunID()]
		if !ok {
			return
		}
		var payload struct {
			ActiveEntries int `json:"active_entries"`
			DisabledCount int `json:"disabled_count"`
		}
		_ = json.Unmarshal(event.Payload(), &payload)
		completed := event.Timestamp()
		summary.Status = runStatusCompleted
		summary.CompletedAt = &completed
		summary.ActiveEntries = payload.ActiveEntries
		summary.DisabledCount = payload.DisabledCount
	}
}

// Recent returns up to limit summaries, newest first.
func (p *RunHistoryProjection) Recent(limit int) []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if limit <= 0 || limit > len(p.history) {
		limit = len(p.history)
	}
	out := make([]*RunSummary, limit)
	copy(out, p.history[:limit])
	return out
}

// Get returns the summary for a specific run, or nil when unknown.
func (p *RunHistoryProjection) Get(runID string) *RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.runs[runID]
}
