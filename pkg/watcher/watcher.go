// Package watcher monitors the export directory so the local history view
// stays in sync with files written (or deleted) outside the app.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edviz/edviz/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeExported ChangeType = iota // an export artifact was created or rewritten
	ChangeTypeRemoved                    // an export artifact was deleted or renamed away
)

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// ExportWatcher watches the export directory for diagram artifacts
type ExportWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
}

// NewExportWatcher creates a watcher for the given export directory. The
// directory is created if it does not exist yet, so watching works on a
// fresh install before the first export.
func NewExportWatcher(dir string) (*ExportWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ExportWatcher{
		watcher: watcher,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for export changes
func (ew *ExportWatcher) Start(ctx context.Context) error {
	if err := ew.watcher.Add(ew.dir); err != nil {
		return fmt.Errorf("failed to watch export directory: %w", err)
	}

	logging.Info("started watching export directory", "path", ew.dir)

	go ew.processEvents(ctx)

	return nil
}

// processEvents batches raw fsnotify events by change type so one save that
// touches several files produces one event per type, not one per file.
func (ew *ExportWatcher) processEvents(ctx context.Context) {
	var exported []string
	var removed []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(exported) > 0 {
			ew.events <- ChangeEvent{
				Type:      ChangeTypeExported,
				Paths:     exported,
				Timestamp: time.Now(),
			}
			exported = nil
		}
		if len(removed) > 0 {
			ew.events <- ChangeEvent{
				Type:      ChangeTypeRemoved,
				Paths:     removed,
				Timestamp: time.Now(),
			}
			removed = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			ew.watcher.Close()
			close(ew.events)
			return

		case event, ok := <-ew.watcher.Events:
			if !ok {
				return
			}

			if !IsExportArtifact(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				removed = append(removed, event.Name)
			} else if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				exported = append(exported, event.Name)
			} else {
				continue
			}
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-ew.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (ew *ExportWatcher) Events() <-chan ChangeEvent {
	return ew.events
}

// Stop stops the export watcher
func (ew *ExportWatcher) Stop() error {
	return ew.watcher.Close()
}

// IsExportArtifact reports whether a path names a file edviz exports:
// sanitized diagrams (.svg) and rendered layouts (.png).
func IsExportArtifact(path string) bool {
	switch filepath.Ext(path) {
	case ".svg", ".png":
		return true
	}
	return false
}
