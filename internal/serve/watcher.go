// Package serve runs the preview daemon: a local HTTP server that watches the
// docs tree, rebuilds the site on change, and reverifies on a schedule.
package serve

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DocsWatcher monitors the documentation tree and the navigation file,
// triggering debounced rebuilds.
type DocsWatcher struct {
	docsDir      string
	navPath      string
	onChange     func(ctx context.Context)
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	rebuildChan  chan struct{}
	debounceTime time.Duration
}

// NewDocsWatcher creates a watcher over the docs directory and the navigation
// file. The nav file may live outside the docs tree; its directory is watched
// separately in that case.
func NewDocsWatcher(docsDir, navFile string, debounce time.Duration, onChange func(ctx context.Context)) (*DocsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(docsDir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve docs path: %w", err)
	}

	navPath := ""
	if navFile != "" {
		navPath, err = filepath.Abs(navFile)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve nav file path: %w", err)
		}
	}

	return &DocsWatcher{
		docsDir:      absPath,
		navPath:      navPath,
		onChange:     onChange,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		rebuildChan:  make(chan struct{}, 1),
		debounceTime: debounce,
	}, nil
}

// Start begins monitoring the docs tree.
func (dw *DocsWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	// Watch every subdirectory; fsnotify does not recurse.
	err := filepath.WalkDir(dw.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dw.docsDir {
				return filepath.SkipDir
			}
			return dw.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch docs directory %s: %w", dw.docsDir, err)
	}

	// The nav file's directory needs its own watch when it sits outside the
	// docs tree; otherwise nav edits would never trigger a rebuild.
	if dw.navPath != "" && !underDir(dw.navPath, dw.docsDir) {
		if err := dw.watcher.Add(filepath.Dir(dw.navPath)); err != nil {
			return fmt.Errorf("failed to watch navigation file %s: %w", dw.navPath, err)
		}
	}

	slog.Info("Starting docs watcher", "docs_dir", dw.docsDir, "nav_file", dw.navPath, "debounce", dw.debounceTime)

	go dw.watchLoop(ctx)
	go dw.rebuildLoop(ctx)

	return nil
}

// Stop stops the docs watcher.
func (dw *DocsWatcher) Stop() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	slog.Info("Stopping docs watcher")
	close(dw.stopChan)
	if dw.watcher != nil {
		if err := dw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", "error", err)
		}
	}
}

func (dw *DocsWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}

			if !relevantEvent(event) || !dw.inScope(event.Name) {
				continue
			}

			// A new directory needs its own watch.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = dw.watcher.Add(event.Name)
				}
			}

			slog.Debug("Docs change detected", "file", event.Name, "op", event.Op.String())
			dw.triggerRebuild()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Docs watcher error", "error", err)
		}
	}
}

// inScope reports whether a changed path belongs to the docs tree or is the
// navigation file itself. Sibling files in an external nav directory are not
// part of the documentation and must not trigger rebuilds.
func (dw *DocsWatcher) inScope(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if dw.navPath != "" && abs == dw.navPath {
		return true
	}
	return abs == dw.docsDir || underDir(abs, dw.docsDir)
}

// underDir reports whether path is inside dir (both absolute).
func underDir(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// relevantEvent filters out editor noise like chmod events and dotfiles.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}

func (dw *DocsWatcher) rebuildLoop(ctx context.Context) {
	var rebuildTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			return
		case <-dw.stopChan:
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			return
		case <-dw.rebuildChan:
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			rebuildTimer = time.AfterFunc(dw.debounceTime, func() {
				dw.onChange(ctx)
			})
		}
	}
}

// triggerRebuild requests a debounced rebuild.
func (dw *DocsWatcher) triggerRebuild() {
	select {
	case dw.rebuildChan <- struct{}{}:
	default:
		// Rebuild already pending.
	}
}
