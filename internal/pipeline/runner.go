// Package pipeline composes parsing, checking, and rendering into full runs,
// recording events and metrics along the way.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/docset"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/logfields"
	"github.com/KRR-Oxford/docnav/internal/metrics"
	"github.com/KRR-Oxford/docnav/internal/navcheck"
	"github.com/KRR-Oxford/docnav/internal/navfile"
	"github.com/KRR-Oxford/docnav/internal/render"
)

// Runner executes check and render runs against the configured docs set.
type Runner struct {
	cfg        *config.Config
	store      eventstore.Store
	recorder   metrics.Recorder
	verifier   *navcheck.Verifier
	projection *eventstore.RunHistoryProjection
	notice     string
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore persists run events to the given store.
func WithStore(store eventstore.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithRecorder forwards run metrics to the given recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// WithVerifier enables external target verification during checks.
func WithVerifier(verifier *navcheck.Verifier) Option {
	return func(r *Runner) { r.verifier = verifier }
}

// WithProjection folds run events into an in-memory history view.
func WithProjection(projection *eventstore.RunHistoryProjection) Option {
	return func(r *Runner) { r.projection = projection }
}

// WithNotice overrides the expected license notice.
func WithNotice(notice string) Option {
	return func(r *Runner) { r.notice = notice }
}

// NewRunner creates a pipeline runner. Events and metrics default to no-ops.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.verifier != nil {
		r.verifier.SetRecorder(r.recorder)
	}
	return r
}

// resolvePaths returns the navigation file path and docs directory, fetching
// the remote checkout first when a git source is configured.
func (r *Runner) resolvePaths() (navPath, docsDir string, err error) {
	if git := r.cfg.Docs.Git; git != nil {
		workspace := filepath.Dir(r.cfg.Storage.EventDB)
		source := docset.NewGitSource(git.URL, git.Branch, git.Token, workspace)
		checkout, err := source.Fetch()
		if err != nil {
			return "", "", err
		}
		return filepath.Join(checkout, r.cfg.Docs.NavFile), filepath.Join(checkout, r.cfg.Docs.Dir), nil
	}
	return r.cfg.Docs.NavFile, r.cfg.Docs.Dir, nil
}

// Check runs a full navigation check. The trigger names what started the run
// ("cli", "watch", "schedule") and is recorded with the run events.
func (r *Runner) Check(ctx context.Context, trigger string) (*navcheck.Result, error) {
	navPath, docsDir, err := r.resolvePaths()
	if err != nil {
		return nil, err
	}

	doc, err := navfile.ParseFile(navPath)
	if err != nil {
		return nil, err
	}
	set, err := docset.Discover(docsDir)
	if err != nil {
		return nil, err
	}

	checker := navcheck.NewChecker(set)
	if r.notice != "" {
		checker = checker.WithNotice(r.notice)
	}
	result := checker.Check(doc)

	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewCheckStarted(result.RunID, eventstore.CheckStartedMeta{
			NavFile:     navPath,
			DocsRoot:    docsDir,
			Trigger:     trigger,
			Fingerprint: result.NavFingerprint,
		})
	})

	if r.verifier != nil {
		issues, err := r.verifier.VerifyEntries(ctx, result.RunID, doc.Entries)
		if err != nil {
			return nil, err
		}
		result.Issues = append(result.Issues, issues...)
	}
	result.Duration = time.Since(result.StartedAt)

	for _, issue := range result.Issues {
		r.recorder.IncIssue(string(issue.Rule), string(issue.Severity))
		r.record(ctx, func() (eventstore.Event, error) {
			return eventstore.NewIssueFound(result.RunID, string(issue.Rule), string(issue.Severity),
				issue.Message, issue.Entry.Target, issue.Line)
		})
	}

	r.recorder.ObserveCheckDuration(result.Duration)
	r.recorder.IncCheckOutcome(outcome(result))

	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewCheckCompleted(result.RunID, eventstore.CheckCompletedMeta{
			ActiveEntries: result.ActiveEntries,
			DisabledCount: result.DisabledCount,
			Errors:        result.CountBySeverity(navcheck.SeverityError),
			Warnings:      result.CountBySeverity(navcheck.SeverityWarning),
			Infos:         result.CountBySeverity(navcheck.SeverityInfo),
			Duration:      result.Duration,
		})
	})

	slog.LogAttrs(ctx, slog.LevelInfo, "Check run finished",
		logfields.RunID(result.RunID),
		logfields.Trigger(trigger),
		slog.Int("issues", len(result.Issues)),
		slog.Int("errors", result.CountBySeverity(navcheck.SeverityError)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// Render regenerates the static site. The runID associates the render with a
// preceding check run; pass "" for a standalone render.
func (r *Runner) Render(ctx context.Context, runID string) (*render.Report, error) {
	navPath, docsDir, err := r.resolvePaths()
	if err != nil {
		return nil, err
	}

	doc, err := navfile.ParseFile(navPath)
	if err != nil {
		return nil, err
	}
	set, err := docset.Discover(docsDir)
	if err != nil {
		return nil, err
	}

	report, err := render.NewGenerator(r.cfg.Site, "").Generate(doc, set)
	if err != nil {
		return nil, err
	}

	r.recorder.ObserveRenderDuration(report.Duration)
	r.recorder.AddPagesRendered(report.PagesRendered)

	if runID != "" {
		r.record(ctx, func() (eventstore.Event, error) {
			return eventstore.NewSiteRendered(runID, report.OutputDir,
				report.PagesRendered, report.PagesCopied, report.Duration)
		})
	}
	return report, nil
}

// Rebuild runs a check and, when the check has no errors, regenerates the site.
func (r *Runner) Rebuild(ctx context.Context, trigger string) (*navcheck.Result, *render.Report, error) {
	result, err := r.Check(ctx, trigger)
	if err != nil {
		return nil, nil, err
	}
	if result.HasErrors() {
		slog.LogAttrs(ctx, slog.LevelWarn, "Skipping render, check reported errors",
			logfields.RunID(result.RunID),
			slog.Int("errors", result.CountBySeverity(navcheck.SeverityError)))
		return result, nil, nil
	}

	report, err := r.Render(ctx, result.RunID)
	if err != nil {
		return result, nil, err
	}
	r.recorder.IncRebuild(trigger)
	return result, report, nil
}

// record builds and persists an event, folding it into the projection.
func (r *Runner) record(ctx context.Context, build func() (eventstore.Event, error)) {
	if r.store == nil && r.projection == nil {
		return
	}
	event, err := build()
	if err != nil {
		slog.Error("Failed to build run event", "error", err)
		return
	}
	if err := eventstore.Record(ctx, r.store, event); err != nil {
		slog.Error("Failed to record run event", "event_type", event.Type(), "error", err)
	}
	if r.projection != nil {
		r.projection.Apply(event)
	}
}

func outcome(result *navcheck.Result) metrics.OutcomeLabel {
	switch {
	case result.HasErrors():
		return metrics.OutcomeErrors
	case result.CountBySeverity(navcheck.SeverityWarning) > 0:
		return metrics.OutcomeWarnings
	default:
		return metrics.OutcomeClean
	}
}
