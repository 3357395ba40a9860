package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/docset"
	"github.com/KRR-Oxford/docnav/internal/license"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

const navBody = `- [About](index.md)
- [BERTMap](bertmap.md)
<!-- - [About](script.md) -->
- [OM Resources](om_resources.md)
- [Reasoning](reasoning.md)
<!-- - [Data Structures](data_structures.md) -->
- [API](deeponto.html)
`

func parseNav(t *testing.T) *navfile.Document {
	t.Helper()
	doc, err := navfile.Parse([]byte(license.Header("\n") + "\n" + navBody))
	require.NoError(t, err)
	return doc
}

func TestSidebar_OmitsDisabledEntriesAndKeepsOrder(t *testing.T) {
	sidebar, err := Sidebar(parseNav(t))
	require.NoError(t, err)

	items, err := ExtractSidebarLinks(strings.NewReader(sidebar))
	require.NoError(t, err)

	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	require.Equal(t, []string{"About", "BERTMap", "OM Resources", "Reasoning", "API"}, labels)
	require.NotContains(t, sidebar, "Data Structures")
	require.NotContains(t, sidebar, "script.md")
}

func TestSidebarItems_TargetsRewrittenToRenderedPages(t *testing.T) {
	items := SidebarItems(parseNav(t))
	require.Len(t, items, 5)
	require.Equal(t, "index.html", items[0].Href)
	require.Equal(t, "bertmap.html", items[1].Href)
	require.Equal(t, "deeponto.html", items[4].Href)
}

func TestTargetHref_Conversions(t *testing.T) {
	require.Equal(t, "index.html", TargetHref("index.md"))
	require.Equal(t, "guides/setup.html", TargetHref("guides/setup.md"))
	require.Equal(t, "deeponto.html", TargetHref("deeponto.html"))
	require.Equal(t, "guides/index.html", TargetHref("guides"))
	require.Equal(t, "https://example.com/page", TargetHref("https://example.com/page"))
	require.Equal(t, "#section", TargetHref("#section"))
}

func TestConvertMarkdown_RendersGFM(t *testing.T) {
	out, err := ConvertMarkdown([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Title</h1>")
	require.Contains(t, string(out), "<table>")
}

func TestGenerate_WritesSiteWithSidebarOnEveryPage(t *testing.T) {
	root := t.TempDir()
	pages := map[string]string{
		"index.md":        "# About DeepOnto\n",
		"bertmap.md":      "# BERTMap\n",
		"om_resources.md": "# OM Resources\n",
		"reasoning.md":    "# Reasoning\n",
		"deeponto.html":   "<html><body>generated reference</body></html>",
	}
	for name, content := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	set, err := docset.Discover(root)
	require.NoError(t, err)

	outputDir := t.TempDir()
	gen := NewGenerator(config.SiteConfig{Title: "DeepOnto", Output: outputDir}, "")

	report, err := gen.Generate(parseNav(t), set)
	require.NoError(t, err)
	require.Equal(t, 4, report.PagesRendered)
	require.Equal(t, 1, report.PagesCopied)
	require.Equal(t, 5, report.ActiveEntries)
	require.Equal(t, 2, report.DisabledEntries)

	rendered, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(rendered), "About DeepOnto")

	items, err := ExtractSidebarLinks(bytes.NewReader(rendered))
	require.NoError(t, err)
	require.Len(t, items, 5)
	require.Equal(t, "About", items[0].Label)
	require.Equal(t, "API", items[4].Label)

	copied, err := os.ReadFile(filepath.Join(outputDir, "deeponto.html"))
	require.NoError(t, err)
	require.Equal(t, pages["deeponto.html"], string(copied))
}

func TestGenerate_PreservesNestedLayout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Home\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "guides", "setup.md"), []byte("# Setup\n"), 0o644))
	set, err := docset.Discover(root)
	require.NoError(t, err)

	doc, err := navfile.Parse([]byte("- [Home](index.md)\n- [Setup](guides/setup.md)\n"))
	require.NoError(t, err)

	outputDir := t.TempDir()
	_, err = NewGenerator(config.SiteConfig{Title: "Docs"}, outputDir).Generate(doc, set)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, "guides", "setup.html"))
	require.NoError(t, err)
}

func TestGenerate_UsesFrontmatterTitle(t *testing.T) {
	root := t.TempDir()
	page := "---\ntitle: BERTMap Tutorial\ndescription: Matching with BERT\n---\n# BERTMap\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "bertmap.md"), []byte(page), 0o644))
	set, err := docset.Discover(root)
	require.NoError(t, err)

	doc, err := navfile.Parse([]byte("- [BERTMap](bertmap.md)\n"))
	require.NoError(t, err)

	outputDir := t.TempDir()
	_, err = NewGenerator(config.SiteConfig{Title: "DeepOnto"}, outputDir).Generate(doc, set)
	require.NoError(t, err)

	rendered, err := os.ReadFile(filepath.Join(outputDir, "bertmap.html"))
	require.NoError(t, err)
	require.Contains(t, string(rendered), "<title>BERTMap Tutorial - DeepOnto</title>")
	require.Contains(t, string(rendered), `content="Matching with BERT"`)
	require.NotContains(t, string(rendered), "title: BERTMap Tutorial")
}

func TestExtractSidebarLinks_NoSidebar_ReturnsNil(t *testing.T) {
	items, err := ExtractSidebarLinks(strings.NewReader("<html><body><p>plain</p></body></html>"))
	require.NoError(t, err)
	require.Nil(t, items)
}
