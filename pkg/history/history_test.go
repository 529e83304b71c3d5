package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingDirIsEmpty(t *testing.T) {
	works, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing directory must not be an error: %v", err)
	}
	if len(works) != 0 {
		t.Errorf("expected empty history, got %v", works)
	}
}

func TestLoadFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, when time.Time) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("<svg/>"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, when, when); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now()
	write("older.svg", now.Add(-time.Hour))
	write("newer.svg", now)
	write("notes.txt", now) // not an export artifact

	works, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(works) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(works))
	}
	if works[0].FileName != "newer.svg" || works[1].FileName != "older.svg" {
		t.Errorf("expected newest first, got %s then %s", works[0].FileName, works[1].FileName)
	}
	if works[0].ID != "newer" {
		t.Errorf("id must drop the extension, got %q", works[0].ID)
	}
}
