package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

var pageTemplate = template.Must(template.New("page").Parse(
	`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
{{- if .Description }}
<meta name="description" content="{{ .Description }}">
{{- end }}
</head>
<body>
{{ .Sidebar }}
<main>
{{ .Content }}
</main>
</body>
</html>
`))

// pageData feeds the layout template.
type pageData struct {
	Title       string
	Description string
	Sidebar     template.HTML
	Content     template.HTML
}

// markdown is the shared converter for documentation pages.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ConvertMarkdown renders a markdown page body to HTML.
func ConvertMarkdown(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to convert markdown").Build()
	}
	return buf.Bytes(), nil
}

// Page wraps converted page content and the sidebar in the site layout.
func Page(title, description, sidebar string, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	data := pageData{
		Title:       title,
		Description: description,
		Sidebar:     template.HTML(sidebar),
		Content:     template.HTML(content),
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to render page layout").Build()
	}
	return buf.Bytes(), nil
}
