package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	checkDuration  prom.Histogram
	checkOutcome   *prom.CounterVec
	issues         *prom.CounterVec
	renderDuration prom.Histogram
	pagesRendered  prom.Counter
	urlResults     *prom.CounterVec
	rebuilds       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.checkDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docnav",
			Name:      "check_duration_seconds",
			Help:      "Total navigation check run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.checkOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docnav",
			Name:      "check_outcomes_total",
			Help:      "Check run outcomes by final status",
		}, []string{"outcome"})
		pr.issues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docnav",
			Name:      "issues_total",
			Help:      "Issues reported by rule and severity",
		}, []string{"rule", "severity"})
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docnav",
			Name:      "render_duration_seconds",
			Help:      "Duration of site generation runs",
			Buckets:   prom.DefBuckets,
		})
		pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
			Namespace: "docnav",
			Name:      "pages_rendered_total",
			Help:      "Total pages rendered to HTML",
		})
		pr.urlResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docnav",
			Name:      "url_check_results_total",
			Help:      "External link check results by outcome",
		}, []string{"result"})
		pr.rebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docnav",
			Name:      "rebuilds_total",
			Help:      "Site rebuilds by trigger",
		}, []string{"trigger"})
		reg.MustRegister(pr.checkDuration, pr.checkOutcome, pr.issues, pr.renderDuration, pr.pagesRendered, pr.urlResults, pr.rebuilds)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveCheckDuration(d time.Duration) {
	if p == nil || p.checkDuration == nil {
		return
	}
	p.checkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCheckOutcome(outcome OutcomeLabel) {
	if p == nil || p.checkOutcome == nil {
		return
	}
	p.checkOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncIssue(rule, severity string) {
	if p == nil || p.issues == nil {
		return
	}
	p.issues.WithLabelValues(rule, severity).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) IncURLCheckResult(broken bool) {
	if p == nil || p.urlResults == nil {
		return
	}
	res := "ok"
	if broken {
		res = "broken"
	}
	p.urlResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}
