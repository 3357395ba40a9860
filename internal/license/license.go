// Package license verifies the license notice carried at the top of
// navigation documents.
package license

import (
	"strings"

	"github.com/inful/mdfp"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

// Notice is the canonical license header required at the top of the
// navigation document, without comment delimiters.
const Notice = `Copyright 2021 Yuan He (KRR-Oxford). All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.`

// Verify checks that the document carries the canonical license notice.
//
// Comparison is line-based and whitespace-insensitive: comment delimiters are
// stripped, each line is trimmed, and blank lines are dropped before the two
// sides are fingerprinted.
func Verify(doc *navfile.Document) error {
	return VerifyAgainst(doc, Notice)
}

// VerifyAgainst checks the document header against a caller-provided notice.
func VerifyAgainst(doc *navfile.Document, notice string) error {
	if !doc.HasHeader() {
		return ferrors.LicenseError("license header is missing").Build()
	}

	got := canonicalFingerprint(stripDelimiters(string(doc.Header)))
	want := canonicalFingerprint(notice)
	if got != want {
		return ferrors.LicenseError("license header does not match the canonical notice").
			WithContext("expected_fingerprint", want).
			WithContext("actual_fingerprint", got).
			Build()
	}
	return nil
}

// Header renders the canonical notice as an HTML comment block suitable for
// prepending to a new navigation document.
func Header(newline string) string {
	if newline == "" {
		newline = "\n"
	}
	var sb strings.Builder
	sb.WriteString("<!--" + newline)
	for _, line := range strings.Split(Notice, "\n") {
		sb.WriteString(line + newline)
	}
	sb.WriteString("-->" + newline)
	return sb.String()
}

// canonicalFingerprint fingerprints a notice after line normalization.
func canonicalFingerprint(notice string) string {
	lines := strings.Split(notice, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return mdfp.CalculateFingerprintFromParts(strings.Join(kept, "\n"), "")
}

// stripDelimiters removes the HTML comment markers from a raw header block.
func stripDelimiters(header string) string {
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(header, "<!--")
	if idx := strings.LastIndex(header, "-->"); idx >= 0 {
		header = header[:idx]
	}
	return header
}
