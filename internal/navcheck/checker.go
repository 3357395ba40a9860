package navcheck

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KRR-Oxford/docnav/internal/docset"
	"github.com/KRR-Oxford/docnav/internal/license"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

// Checker runs the structural navigation rules.
type Checker struct {
	set    *docset.Set
	notice string // custom license notice; empty selects the canonical one
}

// NewChecker creates a checker for the given documentation set.
func NewChecker(set *docset.Set) *Checker {
	return &Checker{set: set}
}

// WithNotice overrides the canonical license notice (fluent helper).
func (c *Checker) WithNotice(notice string) *Checker {
	c.notice = notice
	return c
}

// Check validates the document and returns a run result.
//
// Structural rules only; external URL verification is a separate pass
// (see Verifier) because it needs network and cache access.
func (c *Checker) Check(doc *navfile.Document) *Result {
	start := time.Now()
	result := &Result{
		RunID:          uuid.NewString(),
		StartedAt:      start,
		NavFingerprint: doc.Fingerprint(),
		ActiveEntries:  len(doc.ActiveEntries()),
		DisabledCount:  len(doc.DisabledEntries()),
		Pages:          len(c.set.Pages()),
	}

	result.Issues = append(result.Issues, c.checkLicense(doc)...)
	result.Issues = append(result.Issues, c.checkEntries(doc)...)

	result.Duration = time.Since(start)
	slog.Info("Navigation check completed",
		"run_id", result.RunID,
		"entries", result.ActiveEntries,
		"issues", len(result.Issues),
		"duration", result.Duration)
	return result
}

func (c *Checker) checkLicense(doc *navfile.Document) []Issue {
	var err error
	if c.notice != "" {
		err = license.VerifyAgainst(doc, c.notice)
	} else {
		err = license.Verify(doc)
	}
	if err == nil {
		return nil
	}
	return []Issue{{
		Rule:     RuleLicenseHeader,
		Severity: SeverityError,
		Message:  "license header must remain present and unmodified",
		Line:     1,
	}}
}

func (c *Checker) checkEntries(doc *navfile.Document) []Issue {
	var issues []Issue

	seenTargets := make(map[string]navfile.Entry)
	seenLabels := make(map[string]navfile.Entry)

	for _, entry := range doc.ActiveEntries() {
		if entry.Label == "" {
			issues = append(issues, Issue{
				Rule:     RuleEmptyLabel,
				Severity: SeverityWarning,
				Message:  "entry has no label",
				Entry:    entry,
				Line:     entry.Line,
			})
		}

		if entry.Target == "" {
			issues = append(issues, Issue{
				Rule:     RuleEmptyTarget,
				Severity: SeverityError,
				Message:  fmt.Sprintf("entry %q has no target", entry.Label),
				Entry:    entry,
				Line:     entry.Line,
			})
			continue
		}

		if prev, dup := seenTargets[entry.Target]; dup {
			issues = append(issues, Issue{
				Rule:     RuleDuplicateTarget,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("target %q already linked as %q", entry.Target, prev.Label),
				Entry:    entry,
				Line:     entry.Line,
			})
		}
		seenTargets[entry.Target] = entry

		if prev, dup := seenLabels[entry.Label]; dup && entry.Label != "" {
			issues = append(issues, Issue{
				Rule:     RuleDuplicateLabel,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("label %q already used for %q", entry.Label, prev.Target),
				Entry:    entry,
				Line:     entry.Line,
			})
		}
		seenLabels[entry.Label] = entry

		if docset.IsExternal(entry.Target) {
			// External targets are verified by the URL pass.
			continue
		}

		if !c.set.Resolve(entry.Target) {
			issues = append(issues, Issue{
				Rule:     RuleDanglingTarget,
				Severity: SeverityError,
				Message:  fmt.Sprintf("target %q does not resolve to a page in %s", entry.Target, c.set.Root()),
				Entry:    entry,
				Line:     entry.Line,
			})
		}
	}

	// Disabled entries never render, so a missing target is informational:
	// it only matters if someone uncomments the entry.
	for _, entry := range doc.DisabledEntries() {
		if entry.Target == "" || docset.IsExternal(entry.Target) {
			continue
		}
		if !c.set.Resolve(entry.Target) {
			issues = append(issues, Issue{
				Rule:     RuleDisabledTarget,
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("disabled entry %q points at missing page %q", entry.Label, entry.Target),
				Entry:    entry,
				Line:     entry.Line,
			})
		}
	}

	return issues
}
