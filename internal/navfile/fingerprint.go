package navfile

import (
	"github.com/inful/mdfp"
)

// Fingerprint computes the canonical content fingerprint for the document.
//
// The header and body contribute as separate parts so that a license header
// edit and a list edit produce different fingerprints even when the
// concatenated bytes would collide.
func (d *Document) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(d.Header), string(d.Body))
}

// HeaderFingerprint computes a fingerprint over the license header alone.
//
// Used by license verification to detect modified or missing notices.
func (d *Document) HeaderFingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(d.Header), "")
}
