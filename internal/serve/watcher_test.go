package serve

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestDocsWatcher_TriggersRebuildOnWrite(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.md"), []byte("# home\n"), 0o644))

	rebuilt := make(chan struct{}, 1)
	watcher, err := NewDocsWatcher(docsDir, filepath.Join(docsDir, "nav.md"), 10*time.Millisecond, func(ctx context.Context) {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond) // let the watch loops settle
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.md"), []byte("# edited\n"), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a rebuild after a docs change")
	}
}

func TestDocsWatcher_IgnoresHiddenFiles(t *testing.T) {
	docsDir := t.TempDir()

	rebuilt := make(chan struct{}, 1)
	watcher, err := NewDocsWatcher(docsDir, filepath.Join(docsDir, "nav.md"), 10*time.Millisecond, func(ctx context.Context) {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, ".hidden.swp"), []byte("x"), 0o644))

	select {
	case <-rebuilt:
		t.Fatal("hidden files should not trigger rebuilds")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDocsWatcher_NavFileOutsideDocsDir_TriggersRebuild(t *testing.T) {
	docsDir := t.TempDir()
	navDir := t.TempDir()
	navPath := filepath.Join(navDir, "nav.md")
	require.NoError(t, os.WriteFile(navPath, []byte("- [About](index.md)\n"), 0o644))

	rebuilt := make(chan struct{}, 1)
	watcher, err := NewDocsWatcher(docsDir, navPath, 10*time.Millisecond, func(ctx context.Context) {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(navPath, []byte("- [About](index.md)\n- [API](deeponto.html)\n"), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a rebuild after a nav file change")
	}

	// Siblings of the nav file are not documentation. Drain any straggler
	// from the nav write first.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-rebuilt:
	default:
	}
	require.NoError(t, os.WriteFile(filepath.Join(navDir, "notes.md"), []byte("scratch\n"), 0o644))
	select {
	case <-rebuilt:
		t.Fatal("files next to the nav file should not trigger rebuilds")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelevantEvent_FiltersEditorNoise(t *testing.T) {
	write := func(name string) fsnotify.Event {
		return fsnotify.Event{Name: name, Op: fsnotify.Write}
	}
	require.False(t, relevantEvent(write("docs/.index.md.swp")))
	require.False(t, relevantEvent(write("docs/index.md~")))
	require.False(t, relevantEvent(fsnotify.Event{Name: "docs/index.md", Op: fsnotify.Chmod}))
	require.True(t, relevantEvent(write("docs/index.md")))
}
