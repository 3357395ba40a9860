package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/license"
)

func writeProject(t *testing.T, nav string) *config.Config {
	t.Helper()
	root := t.TempDir()
	docsDir := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))

	for _, name := range []string{"index.md", "bertmap.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(docsDir, name), []byte("# page\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "nav.md"), []byte(nav), 0o644))

	return &config.Config{
		Site: config.SiteConfig{Title: "DeepOnto", Output: filepath.Join(root, "site")},
		Docs: config.DocsConfig{
			Dir:     docsDir,
			NavFile: filepath.Join(docsDir, "nav.md"),
		},
		Storage: config.StorageConfig{EventDB: filepath.Join(root, ".docnav", "events.db")},
	}
}

func cleanNav() string {
	return license.Header("\n") + "\n- [About](index.md)\n- [BERTMap](bertmap.md)\n"
}

func TestCheck_RecordsEventsAndProjection(t *testing.T) {
	cfg := writeProject(t, license.Header("\n")+"\n- [About](index.md)\n- [Missing](nowhere.md)\n")

	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	projection := eventstore.NewRunHistoryProjection(store, 10)

	runner := NewRunner(cfg, WithStore(store), WithProjection(projection))
	result, err := runner.Check(context.Background(), "cli")
	require.NoError(t, err)
	require.True(t, result.HasErrors())

	events, err := store.GetByRunID(context.Background(), result.RunID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 3)
	require.Equal(t, eventstore.TypeCheckStarted, events[0].Type())
	require.Equal(t, eventstore.TypeCheckCompleted, events[len(events)-1].Type())

	summary := projection.Get(result.RunID)
	require.NotNil(t, summary)
	require.Equal(t, 1, summary.Errors)
	require.Equal(t, "cli", summary.Trigger)
}

func TestRebuild_CleanCheck_RendersSite(t *testing.T) {
	cfg := writeProject(t, cleanNav())

	runner := NewRunner(cfg)
	result, report, err := runner.Rebuild(context.Background(), "cli")
	require.NoError(t, err)
	require.False(t, result.HasErrors())
	require.NotNil(t, report)
	require.Equal(t, 3, report.PagesRendered)

	_, err = os.Stat(filepath.Join(cfg.Site.Output, "index.html"))
	require.NoError(t, err)
}

func TestRebuild_ErrorCheck_SkipsRender(t *testing.T) {
	cfg := writeProject(t, license.Header("\n")+"\n- [Missing](nowhere.md)\n")

	runner := NewRunner(cfg)
	result, report, err := runner.Rebuild(context.Background(), "watch")
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	require.Nil(t, report)

	_, err = os.Stat(cfg.Site.Output)
	require.True(t, os.IsNotExist(err))
}

func TestCheck_MissingNavFile_Fails(t *testing.T) {
	cfg := writeProject(t, cleanNav())
	cfg.Docs.NavFile = filepath.Join(t.TempDir(), "absent.md")

	_, err := NewRunner(cfg).Check(context.Background(), "cli")
	require.Error(t, err)
}

func TestRender_Standalone_WritesSite(t *testing.T) {
	cfg := writeProject(t, cleanNav())

	report, err := NewRunner(cfg).Render(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 3, report.PagesRendered)
}
