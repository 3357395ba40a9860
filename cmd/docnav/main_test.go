package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/license"
)

// writeCheckFixture lays out a docs tree plus a config file and points the
// global CLI config at it.
func writeCheckFixture(t *testing.T, nav string) (configPath, eventDB string) {
	t.Helper()

	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.md"), []byte("# About\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "nav.md"), []byte(nav), 0o644))

	eventDB = filepath.Join(dir, "state", "events.db")
	configPath = filepath.Join(dir, "docnav.yaml")
	content := fmt.Sprintf(
		"site:\n  output: %s\ndocs:\n  dir: %s\n  nav_file: %s\nstorage:\n  event_db: %s\n",
		filepath.Join(dir, "site"), docsDir, filepath.Join(docsDir, "nav.md"), eventDB)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	prev := CLI.Config
	CLI.Config = configPath
	t.Cleanup(func() { CLI.Config = prev })

	return configPath, eventDB
}

func TestRunCheck_PersistsRunEventsToConfiguredStore(t *testing.T) {
	nav := license.Header("\n") + "\n- [About](index.md)\n"
	_, eventDB := writeCheckFixture(t, nav)

	require.NoError(t, runCheck())

	store, err := eventstore.NewSQLiteStore(eventDB)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.GetRange(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	types := make(map[string]bool)
	for _, e := range events {
		types[e.Type()] = true
	}
	require.True(t, types[eventstore.TypeCheckStarted])
	require.True(t, types[eventstore.TypeCheckCompleted])
}

func TestRunCheck_ErrorIssues_StillPersistedBeforeFailing(t *testing.T) {
	nav := license.Header("\n") + "\n- [About](index.md)\n- [Missing](nowhere.md)\n"
	_, eventDB := writeCheckFixture(t, nav)

	require.Error(t, runCheck())

	store, err := eventstore.NewSQLiteStore(eventDB)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.GetRange(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	var issues int
	for _, e := range events {
		if e.Type() == eventstore.TypeIssueFound {
			issues++
		}
	}
	require.Equal(t, 1, issues)
}
