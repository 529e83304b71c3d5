// Package history lists previously exported diagrams from the export
// directory, newest first.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edviz/edviz/pkg/watcher"
)

// Work is one exported artifact on disk.
type Work struct {
	ID       string    `json:"id"`
	FileName string    `json:"file_name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Date     time.Time `json:"date"`
}

// Load scans the export directory for artifacts. A missing directory is an
// empty history, not an error.
func Load(dir string) ([]Work, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var works []Work
	for _, entry := range entries {
		if entry.IsDir() || !watcher.IsExportArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		works = append(works, Work{
			ID:       strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			FileName: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Date:     info.ModTime(),
		})
	}

	sort.Slice(works, func(i, j int) bool {
		return works[i].Date.After(works[j].Date)
	})

	return works, nil
}
