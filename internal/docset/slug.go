package docset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Slug normalizes a relative page path for resolution.
//
// Unicode is normalized to NFC and case-folded so that targets authored on
// case-insensitive filesystems still resolve. Path separators are preserved.
func Slug(rel string) string {
	rel = norm.NFC.String(rel)
	rel = folder.String(rel)
	return strings.TrimSuffix(rel, "/")
}

// TitleLabel derives a human-readable label from a page name, for suggesting
// nav entries for unlinked pages ("om_resources" -> "Om Resources").
func TitleLabel(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(name)
}
