// Package logfields centralizes slog attribute names so log keys do not
// drift across packages.
package logfields

import "log/slog"

// Canonical log field name constants.
const (
	KeyRunID      = "run_id"
	KeyTrigger    = "trigger"
	KeyRule       = "rule"
	KeySeverity   = "severity"
	KeyTarget     = "target"
	KeyLabel      = "label"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyLine       = "line"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Rule(r string) slog.Attr         { return slog.String(KeyRule, r) }
func Severity(s string) slog.Attr     { return slog.String(KeySeverity, s) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Label(l string) slog.Attr        { return slog.String(KeyLabel, l) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
