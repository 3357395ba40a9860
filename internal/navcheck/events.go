package navcheck

import "time"

// BrokenTargetEvent represents a broken external target discovered during
// verification. It is published to NATS for downstream processing
// (e.g., opening an issue against the docs repository).
type BrokenTargetEvent struct {
	// Target information
	URL    string `json:"url"`
	Status int    `json:"status"` // HTTP status code (0 for non-HTTP errors)
	Error  string `json:"error"`

	// Navigation context
	Label   string `json:"label"`
	NavLine int    `json:"nav_line"`
	NavFile string `json:"nav_file,omitempty"`

	// Verification metadata
	Timestamp     time.Time `json:"timestamp"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`

	// Run context
	RunID   string    `json:"run_id,omitempty"`
	RunTime time.Time `json:"run_time,omitzero"`
}

// CacheEntry represents a cached target verification result.
type CacheEntry struct {
	URL           string    `json:"url"`
	Status        int       `json:"status"`
	IsValid       bool      `json:"is_valid"`
	Error         string    `json:"error,omitempty"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitempty"`
}
