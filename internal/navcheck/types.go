// Package navcheck validates navigation documents against a documentation set.
package navcheck

import (
	"time"

	"github.com/KRR-Oxford/docnav/internal/navfile"
)

// Severity is the impact level of a navigation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule identifies the check that produced an issue.
type Rule string

const (
	RuleLicenseHeader   Rule = "license-header"
	RuleDanglingTarget  Rule = "dangling-target"
	RuleEmptyTarget     Rule = "empty-target"
	RuleEmptyLabel      Rule = "empty-label"
	RuleDuplicateTarget Rule = "duplicate-target"
	RuleDuplicateLabel  Rule = "duplicate-label"
	RuleDisabledTarget  Rule = "disabled-target"
	RuleBrokenURL       Rule = "broken-url"
)

// Issue is a single finding against the navigation document.
type Issue struct {
	Rule     Rule          `json:"rule"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Entry    navfile.Entry `json:"entry,omitempty"`
	Line     int           `json:"line,omitempty"`
}

// Result is the outcome of a full navigation check run.
type Result struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	NavFingerprint string        `json:"nav_fingerprint"`
	ActiveEntries  int           `json:"active_entries"`
	DisabledCount  int           `json:"disabled_entries"`
	Pages          int           `json:"pages"`
	Issues         []Issue       `json:"issues"`
}

// HasErrors reports whether any error-severity issue was found.
func (r *Result) HasErrors() bool {
	return r.CountBySeverity(SeverityError) > 0
}

// CountBySeverity counts issues of the given severity.
func (r *Result) CountBySeverity(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}
