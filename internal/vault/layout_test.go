package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/homebase-app/homebase/internal/models"
)

func TestEnsureLayout(t *testing.T) {
	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{DirInbox, DirArchive, DirFolders, DirProjects, DirDaily, "assets", "config"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(d))); err != nil {
			t.Errorf("missing %s: %v", d, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "config", "settings.json")); err != nil {
		t.Errorf("settings.json not bootstrapped: %v", err)
	}
	// Idempotent.
	if err := EnsureLayout(root); err != nil {
		t.Errorf("second EnsureLayout failed: %v", err)
	}
}

func TestKindForPath(t *testing.T) {
	cases := map[string]models.Kind{
		"notes/inbox/a.md":          models.KindInbox,
		"notes/archive/inbox/a.md":  models.KindArchive,
		"notes/projects/x/a.md":     models.KindProject,
		"notes/folders/reading/a.md": models.KindFolder,
		"notes/daily/2026-01-01.md": models.KindDaily,
		"notes/a.md":                models.KindOther,
	}
	for path, want := range cases {
		if got := KindForPath(path); got != want {
			t.Errorf("KindForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestUserPlaced(t *testing.T) {
	if UserPlaced("notes/inbox/a.md") {
		t.Error("inbox notes are not user-placed")
	}
	if !UserPlaced("notes/folders/reading/a.md") {
		t.Error("filed notes are user-placed")
	}
}

func TestValidTargetDir(t *testing.T) {
	for _, dir := range []string{DirInbox, DirFolders + "/reading", DirProjects + "/house", DirDaily} {
		if !ValidTargetDir(dir) {
			t.Errorf("%q should be a valid target", dir)
		}
	}
	for _, dir := range []string{DirArchive, "notes", "assets", "../escape", ""} {
		if ValidTargetDir(dir) {
			t.Errorf("%q should not be a valid target", dir)
		}
	}
}

func TestArchivePath_PreservesSubPath(t *testing.T) {
	got, err := ArchivePath("notes/folders/reading/2026-01-02-a-12345678.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "notes/archive/folders/reading/2026-01-02-a-12345678.md"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Already archived stays put.
	if got, _ := ArchivePath(want); got != want {
		t.Errorf("re-archive changed path: %q", got)
	}

	if _, err := ArchivePath("assets/pic.png"); err == nil {
		t.Error("non-note path should not be archivable")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":  "hello-world",
		"  spaces  ":     "spaces",
		"Многоязычный":   "note",
		"":               "note",
		"a--b__c":        "a-b-c",
		"Already-Clean1": "already-clean1",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	got := FileName("Grocery Run", "9f2c41aa-1b7d-4c8e-9f0a-6d2b8c4e1a3f", now)
	if got != "2026-04-05-grocery-run-9f2c41aa.md" {
		t.Errorf("got %q", got)
	}
	if got := FileName("   ", "9f2c41aa-1b7d-4c8e-9f0a-6d2b8c4e1a3f", now); got != "2026-04-05-untitled-9f2c41aa.md" {
		t.Errorf("got %q", got)
	}
}
