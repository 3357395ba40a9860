package render

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/docset"
	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
	"github.com/KRR-Oxford/docnav/internal/frontmatter"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

// Report summarizes a site generation run.
type Report struct {
	OutputDir       string        `json:"output_dir"`
	PagesRendered   int           `json:"pages_rendered"`
	PagesCopied     int           `json:"pages_copied"`
	ActiveEntries   int           `json:"active_entries"`
	DisabledEntries int           `json:"disabled_entries"`
	Duration        time.Duration `json:"duration"`
}

// Generator renders the documentation set into a static site.
type Generator struct {
	site      config.SiteConfig
	outputDir string
}

// NewGenerator creates a site generator.
func NewGenerator(site config.SiteConfig, outputDir string) *Generator {
	if outputDir == "" {
		outputDir = site.Output
	}
	return &Generator{site: site, outputDir: outputDir}
}

// Generate writes the rendered site: every markdown page converted to HTML
// with the sidebar, every HTML page copied through, sidebar order taken from
// the navigation document.
func (g *Generator) Generate(doc *navfile.Document, set *docset.Set) (*Report, error) {
	start := time.Now()

	sidebar, err := Sidebar(doc)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", g.outputDir).Build()
	}

	report := &Report{
		OutputDir:       g.outputDir,
		ActiveEntries:   len(doc.ActiveEntries()),
		DisabledEntries: len(doc.DisabledEntries()),
	}

	for _, page := range set.Pages() {
		if err := g.renderPage(page, sidebar, report); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	slog.Info("Site generated",
		"output", g.outputDir,
		"rendered", report.PagesRendered,
		"copied", report.PagesCopied,
		"duration", report.Duration)
	return report, nil
}

func (g *Generator) renderPage(page docset.Page, sidebar string, report *Report) error {
	content, err := os.ReadFile(page.Path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read page").
			WithContext("path", page.Path).Build()
	}

	outRel := page.RelativePath
	var rendered []byte

	switch page.Extension {
	case ".md", ".markdown":
		title, description, source, err := pageMeta(g.site, page, content)
		if err != nil {
			return err
		}
		body, err := ConvertMarkdown(source)
		if err != nil {
			return err
		}
		rendered, err = Page(title, description, sidebar, body)
		if err != nil {
			return err
		}
		outRel = strings.TrimSuffix(outRel, path.Ext(outRel)) + ".html"
		report.PagesRendered++
	default:
		// Pre-rendered HTML (e.g. generated API reference) passes through.
		rendered = content
		report.PagesCopied++
	}

	outPath := filepath.Join(g.outputDir, filepath.FromSlash(outRel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create page directory").
			WithContext("path", filepath.Dir(outPath)).Build()
	}
	if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write page").
			WithContext("path", outPath).Build()
	}
	return nil
}

// pageMeta resolves the page title and description, preferring YAML
// frontmatter over names derived from the file path, and returns the markdown
// source with the frontmatter stripped.
func pageMeta(site config.SiteConfig, page docset.Page, content []byte) (title, description string, source []byte, err error) {
	fm, body, had, _, err := frontmatter.Split(content)
	if err != nil {
		return "", "", nil, ferrors.WrapError(err, ferrors.CategoryDocs, "failed to split page frontmatter").
			WithContext("path", page.Path).Build()
	}

	title = pageTitle(site.Title, page)
	description = site.Description
	if had {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			return "", "", nil, ferrors.WrapError(err, ferrors.CategoryDocs, "failed to parse page frontmatter").
				WithContext("path", page.Path).Build()
		}
		if t, ok := fields["title"].(string); ok && t != "" {
			title = t + " - " + site.Title
		}
		if d, ok := fields["description"].(string); ok && d != "" {
			description = d
		}
	}
	return title, description, body, nil
}

// pageTitle combines the site title with the page name.
func pageTitle(siteTitle string, page docset.Page) string {
	if page.Name == "index" {
		return siteTitle
	}
	return docset.TitleLabel(page.Name) + " - " + siteTitle
}
