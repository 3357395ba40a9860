// Package render turns a navigation document and its documentation set into a
// static HTML site with a navigation sidebar.
package render

import (
	"html/template"
	"path"
	"strings"

	"github.com/KRR-Oxford/docnav/internal/docset"
	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

// SidebarItem is one rendered navigation link.
type SidebarItem struct {
	Label string
	Href  string
}

var sidebarTemplate = template.Must(template.New("sidebar").Parse(
	`<nav class="docnav-sidebar" aria-label="Documentation">
<ul>
{{- range .Items }}
<li><a href="{{ .Href }}">{{ .Label }}</a></li>
{{- end }}
</ul>
</nav>
`))

// Sidebar renders the active entries, in document order, as an HTML fragment.
// Disabled entries are omitted entirely.
func Sidebar(doc *navfile.Document) (string, error) {
	items := SidebarItems(doc)

	var sb strings.Builder
	data := struct{ Items []SidebarItem }{Items: items}
	if err := sidebarTemplate.Execute(&sb, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "failed to render sidebar").Build()
	}
	return sb.String(), nil
}

// SidebarItems maps active entries to rendered links in document order.
func SidebarItems(doc *navfile.Document) []SidebarItem {
	active := doc.ActiveEntries()
	items := make([]SidebarItem, 0, len(active))
	for _, entry := range active {
		items = append(items, SidebarItem{
			Label: entry.Label,
			Href:  TargetHref(entry.Target),
		})
	}
	return items
}

// TargetHref converts a navigation target into the href of its rendered page.
//
// Markdown targets become their generated .html counterparts; external URLs
// and already-HTML targets pass through unchanged.
func TargetHref(target string) string {
	if target == "" || docset.IsExternal(target) || strings.HasPrefix(target, "#") {
		return target
	}

	ext := strings.ToLower(path.Ext(target))
	switch ext {
	case ".md", ".markdown":
		return strings.TrimSuffix(target, path.Ext(target)) + ".html"
	case "":
		return path.Join(target, "index.html")
	default:
		return target
	}
}
