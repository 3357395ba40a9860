package navcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/docset"
	"github.com/KRR-Oxford/docnav/internal/logfields"
	"github.com/KRR-Oxford/docnav/internal/metrics"
	"github.com/KRR-Oxford/docnav/internal/navfile"
	"github.com/KRR-Oxford/docnav/internal/retry"
)

// Verifier checks external navigation targets over HTTP.
type Verifier struct {
	cfg        *config.VerificationConfig
	cache      resultCache
	httpClient *http.Client
	policy     retry.Policy
	recorder   metrics.Recorder
	mu         sync.Mutex
	running    bool
	sem        chan struct{} // Limit concurrent target checks
}

// NewVerifier creates a verifier backed by the configured NATS cache.
func NewVerifier(cfg *config.VerificationConfig) (*Verifier, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("target verification is disabled")
	}

	cache, err := NewNATSCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS cache: %w", err)
	}
	return NewVerifierWithCache(cfg, cache), nil
}

// NewVerifierWithCache creates a verifier with a caller-provided cache.
func NewVerifierWithCache(cfg *config.VerificationConfig, cache resultCache) *Verifier {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	// Clone the default transport so HTTP_PROXY/HTTPS_PROXY/NO_PROXY apply.
	transport := http.DefaultTransport.(*http.Transport).Clone()

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Verifier{
		cfg:        cfg,
		cache:      cache,
		httpClient: httpClient,
		policy:     retry.NewPolicy(retry.BackoffMode(cfg.RetryBackoff), 0, 0, cfg.Retries),
		recorder:   metrics.NoopRecorder{},
		sem:        make(chan struct{}, maxConcurrent),
	}
}

// SetRecorder routes per-target check outcomes to the given metrics recorder.
func (v *Verifier) SetRecorder(recorder metrics.Recorder) {
	if recorder != nil {
		v.recorder = recorder
	}
}

// VerifyEntries checks every external target among the given entries and
// returns the broken ones as issues.
func (v *Verifier) VerifyEntries(ctx context.Context, runID string, entries []navfile.Entry) ([]Issue, error) {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		return nil, errors.New("verification already running")
	}
	v.running = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.running = false
		v.mu.Unlock()
	}()

	external := make([]navfile.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Disabled && docset.IsExternal(e.Target) {
			external = append(external, e)
		}
	}
	if len(external) == 0 {
		return nil, nil
	}

	slog.Info("Starting external target verification", "run_id", runID, "targets", len(external))

	delay, err := time.ParseDuration(v.cfg.RateLimitDelay)
	if err != nil {
		delay = 100 * time.Millisecond
	}

	var (
		wg     sync.WaitGroup
		issuMu sync.Mutex
		issues []Issue
	)

	for _, entry := range external {
		select {
		case <-ctx.Done():
			wg.Wait()
			return issues, ctx.Err()
		case v.sem <- struct{}{}:
		}

		// Rate limiting between spawns.
		time.Sleep(delay)

		wg.Add(1)
		go func(entry navfile.Entry) {
			defer wg.Done()
			defer func() { <-v.sem }()

			if issue := v.verifyTarget(ctx, runID, entry); issue != nil {
				issuMu.Lock()
				issues = append(issues, *issue)
				issuMu.Unlock()
			}
		}(entry)
	}

	wg.Wait()
	slog.Info("External target verification completed", "run_id", runID, "broken", len(issues))
	return issues, nil
}

// verifyTarget checks one external target, consulting the cache first.
func (v *Verifier) verifyTarget(ctx context.Context, runID string, entry navfile.Entry) *Issue {
	cached, err := v.cache.GetCachedResult(ctx, entry.Target)
	if err != nil {
		slog.Debug("Cache lookup error", "url", entry.Target, "error", err)
	} else if cached != nil && v.cache.IsCacheValid(cached) {
		v.recorder.IncURLCheckResult(!cached.IsValid)
		if cached.IsValid {
			return nil
		}
		v.handleBrokenTarget(ctx, runID, entry, cached.Status, cached.Error, cached)
		return brokenIssue(entry, cached.Status, cached.Error)
	}

	status, verifyErr := v.checkURL(ctx, entry.Target)
	v.recorder.IncURLCheckResult(verifyErr != nil)

	cacheEntry := &CacheEntry{
		URL:         entry.Target,
		Status:      status,
		IsValid:     verifyErr == nil,
		LastChecked: time.Now(),
	}

	var issue *Issue
	if verifyErr != nil {
		cacheEntry.Error = verifyErr.Error()
		v.updateFailureTracking(cacheEntry, cached)
		v.handleBrokenTarget(ctx, runID, entry, status, verifyErr.Error(), cacheEntry)
		issue = brokenIssue(entry, status, verifyErr.Error())
	} else {
		cacheEntry.FailureCount = 0
	}

	if err := v.cache.SetCachedResult(ctx, cacheEntry); err != nil {
		slog.Warn("Failed to update cache", "url", entry.Target, "error", err)
	}

	return issue
}

// checkURL verifies an external target via an HTTP HEAD request.
func (v *Verifier) checkURL(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "docnav-verifier/1.0")

	// Transport errors are retried; HTTP error statuses are a definitive answer.
	var resp *http.Response
	err = v.policy.Do(ctx, func() error {
		var doErr error
		resp, doErr = v.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	// URLs behind authentication exist; they are not broken.
	if isAuthStatus(resp.StatusCode) {
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

// isAuthStatus returns true for HTTP status codes that indicate
// authentication or authorization requirements rather than broken targets.
func isAuthStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}

// updateFailureTracking updates the failure count and timing for a failed target.
func (v *Verifier) updateFailureTracking(entry *CacheEntry, cached *CacheEntry) {
	if cached != nil {
		entry.FailureCount = cached.FailureCount + 1
		entry.FirstFailedAt = cached.FirstFailedAt
		if entry.FirstFailedAt.IsZero() {
			entry.FirstFailedAt = time.Now()
		}
	} else {
		entry.FailureCount = 1
		entry.FirstFailedAt = time.Now()
	}
}

// handleBrokenTarget publishes a broken target event.
func (v *Verifier) handleBrokenTarget(ctx context.Context, runID string, entry navfile.Entry, status int, errorMsg string, cache *CacheEntry) {
	event := &BrokenTargetEvent{
		URL:     entry.Target,
		Status:  status,
		Error:   errorMsg,
		Label:   entry.Label,
		NavLine: entry.Line,
		RunID:   runID,
		RunTime: time.Now(),
	}
	if cache != nil {
		event.FailureCount = cache.FailureCount
		event.FirstFailedAt = cache.FirstFailedAt
		event.LastChecked = cache.LastChecked
	}

	if err := v.cache.PublishBrokenTarget(ctx, event); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "Failed to publish broken target event",
			logfields.URL(entry.Target),
			logfields.Error(err))
	} else {
		slog.LogAttrs(ctx, slog.LevelWarn, "Broken external target detected",
			logfields.URL(entry.Target),
			logfields.Label(entry.Label),
			slog.Int("status", status),
			slog.String("error", errorMsg))
	}
}

func brokenIssue(entry navfile.Entry, status int, errorMsg string) *Issue {
	return &Issue{
		Rule:     RuleBrokenURL,
		Severity: SeverityError,
		Message:  fmt.Sprintf("external target %q failed verification (status %d): %s", entry.Target, status, errorMsg),
		Entry:    entry,
		Line:     entry.Line,
	}
}

// Close releases the verifier's cache resources.
func (v *Verifier) Close() error {
	if v.cache != nil {
		return v.cache.Close()
	}
	return nil
}
