package navcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KRR-Oxford/docnav/internal/docset"
	"github.com/KRR-Oxford/docnav/internal/license"
	"github.com/KRR-Oxford/docnav/internal/navfile"
)

func docsWith(t *testing.T, files ...string) *docset.Set {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("# page\n"), 0o644))
	}
	set, err := docset.Discover(root)
	require.NoError(t, err)
	return set
}

func parseNav(t *testing.T, body string) *navfile.Document {
	t.Helper()
	doc, err := navfile.Parse([]byte(license.Header("\n") + "\n" + body))
	require.NoError(t, err)
	return doc
}

func issuesByRule(result *Result, rule Rule) []Issue {
	var out []Issue
	for _, issue := range result.Issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func TestCheck_WellFormedNav_NoIssues(t *testing.T) {
	set := docsWith(t, "index.md", "bertmap.md", "om_resources.md", "reasoning.md", "deeponto.html")
	doc := parseNav(t, `- [About](index.md)
- [BERTMap](bertmap.md)
- [OM Resources](om_resources.md)
- [Reasoning](reasoning.md)
- [API](deeponto.html)
`)

	result := NewChecker(set).Check(doc)
	require.Empty(t, result.Issues)
	require.False(t, result.HasErrors())
	require.Equal(t, 5, result.ActiveEntries)
	require.NotEmpty(t, result.RunID)
	require.NotEmpty(t, result.NavFingerprint)
}

func TestCheck_DanglingTarget_IsError(t *testing.T) {
	set := docsWith(t, "index.md")
	doc := parseNav(t, "- [About](index.md)\n- [Missing](nowhere.md)\n")

	result := NewChecker(set).Check(doc)
	dangling := issuesByRule(result, RuleDanglingTarget)
	require.Len(t, dangling, 1)
	require.Equal(t, SeverityError, dangling[0].Severity)
	require.Equal(t, "nowhere.md", dangling[0].Entry.Target)
	require.True(t, result.HasErrors())
}

func TestCheck_MissingLicenseHeader_IsError(t *testing.T) {
	set := docsWith(t, "index.md")
	doc, err := navfile.Parse([]byte("- [About](index.md)\n"))
	require.NoError(t, err)

	result := NewChecker(set).Check(doc)
	require.Len(t, issuesByRule(result, RuleLicenseHeader), 1)
	require.True(t, result.HasErrors())
}

func TestCheck_CustomNotice_Passes(t *testing.T) {
	set := docsWith(t, "index.md")
	doc, err := navfile.Parse([]byte("<!--\nDraft notice.\n-->\n\n- [About](index.md)\n"))
	require.NoError(t, err)

	result := NewChecker(set).WithNotice("Draft notice.").Check(doc)
	require.Empty(t, issuesByRule(result, RuleLicenseHeader))
}

func TestCheck_DisabledEntries_NeverError(t *testing.T) {
	set := docsWith(t, "index.md")
	doc := parseNav(t, "- [About](index.md)\n<!-- - [Data Structures](data_structures.md) -->\n")

	result := NewChecker(set).Check(doc)
	require.False(t, result.HasErrors())

	info := issuesByRule(result, RuleDisabledTarget)
	require.Len(t, info, 1)
	require.Equal(t, SeverityInfo, info[0].Severity)
	require.Equal(t, 1, result.DisabledCount)
}

func TestCheck_DuplicateTargetsAndLabels_AreWarnings(t *testing.T) {
	set := docsWith(t, "index.md", "other.md")
	doc := parseNav(t, "- [About](index.md)\n- [About Again](index.md)\n- [About](other.md)\n")

	result := NewChecker(set).Check(doc)
	require.Len(t, issuesByRule(result, RuleDuplicateTarget), 1)
	require.Len(t, issuesByRule(result, RuleDuplicateLabel), 1)
	require.False(t, result.HasErrors())
}

func TestCheck_EmptyTarget_IsError(t *testing.T) {
	set := docsWith(t, "index.md")
	doc := parseNav(t, "- [Broken]()\n")

	result := NewChecker(set).Check(doc)
	require.Len(t, issuesByRule(result, RuleEmptyTarget), 1)
	require.True(t, result.HasErrors())
}

func TestCheck_ExternalTargets_SkippedByStructuralPass(t *testing.T) {
	set := docsWith(t, "index.md")
	doc := parseNav(t, "- [About](index.md)\n- [Paper](https://arxiv.org/abs/2205.03447)\n")

	result := NewChecker(set).Check(doc)
	require.Empty(t, issuesByRule(result, RuleDanglingTarget))
}
