package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/vault"
)

// fakeFS is an in-memory vault.Provider that records create and write calls
// and can be made to block or fail on demand.
type fakeFS struct {
	mu          sync.Mutex
	files       map[string][]byte
	creates     []string
	writes      []string
	createErr   error
	writeErr    error
	gate        chan struct{} // non-nil: Create blocks until closed
	writeGate   chan struct{} // non-nil: Write blocks until closed
	gatedWrites int           // writes that reached the write gate
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: map[string][]byte{}}
}

func (f *fakeFS) List(dir string) ([]vault.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []vault.FileInfo
	for p, data := range f.files {
		if dir == "" || strings.HasPrefix(p, dir+"/") {
			out = append(out, vault.FileInfo{Path: p, Size: int64(len(data)), ModTime: time.Now()})
		}
	}
	return out, nil
}

func (f *fakeFS) Read(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return data, nil
}

func (f *fakeFS) Write(path string, content []byte) error {
	f.mu.Lock()
	gate := f.writeGate
	if gate != nil {
		f.gatedWrites++
	}
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, path)
	f.files[path] = content
	return nil
}

func (f *fakeFS) Create(path string, content []byte) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.files[path]; ok {
		return errors.New("already exists: " + path)
	}
	f.creates = append(f.creates, path)
	f.files[path] = content
	return nil
}

func (f *fakeFS) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

func (f *fakeFS) Move(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[oldPath]
	if !ok {
		return errors.New("not found: " + oldPath)
	}
	delete(f.files, oldPath)
	f.files[newPath] = data
	return nil
}

func (f *fakeFS) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeFS) gatedWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gatedWrites
}

func (f *fakeFS) fileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

func (f *fakeFS) content(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.files[path])
}

func (f *fakeFS) onlyFile() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p, data := range f.files {
		return p, string(data)
	}
	return "", ""
}

// nopIndex satisfies index.NoteIndex without a database.
type nopIndex struct{}

func (nopIndex) UpsertNote(index.NoteRow, string, []models.Task) error { return nil }
func (nopIndex) DeleteNote(string) error                               { return nil }
func (nopIndex) DeleteNoteByPath(string) error                         { return nil }
func (nopIndex) GetNote(string) (*index.NoteRow, error)                { return nil, nil }
func (nopIndex) ListNotes(int, int, string, bool) ([]index.NoteRow, int, error) {
	return nil, 0, nil
}
func (nopIndex) Search(string, int) ([]index.SearchResult, error)   { return nil, nil }
func (nopIndex) OpenTasks(string, int) ([]index.TaskRow, error)     { return nil, nil }
func (nopIndex) AllChecksums() (map[string]string, error)           { return map[string]string{}, nil }
func (nopIndex) Close() error                                       { return nil }

func newTestStore(t *testing.T, fs *fakeFS, debounce time.Duration) *Store {
	t.Helper()
	s := New(Options{Provider: fs, Index: nopIndex{}, Debounce: debounce})
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	return s
}

const seedNote = "---\nid: note-1\ncreated: 2026-01-01T00:00:00Z\nmodified: 2026-01-01T00:00:00Z\nprojects: []\ntopics: []\nuser_placed: false\n---\n\nHello body\n"

func seedFS() *fakeFS {
	fs := newFakeFS()
	fs.files["notes/inbox/2026-01-01-hello-note1234.md"] = []byte(seedNote)
	return fs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoad_AssignsIDWithoutRewrite(t *testing.T) {
	fs := newFakeFS()
	fs.files["notes/inbox/legacy.md"] = []byte("no front matter here\n")
	s := newTestStore(t, fs, 0)
	defer s.Close()

	notes := s.Notes(false)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	if notes[0].ID == "" {
		t.Error("id should be assigned in memory")
	}
	if got := fs.content("notes/inbox/legacy.md"); got != "no front matter here\n" {
		t.Errorf("load must not rewrite the file, got %q", got)
	}
}

func TestUpdateBody_DebounceCoalesces(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, 500*time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := s.UpdateBody("note-1", "edit number "+string(rune('a'+i))); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	fs.mu.Lock()
	writes := len(fs.writes)
	fs.mu.Unlock()
	if writes != 1 {
		t.Errorf("writes = %d, want 1 coalesced write", writes)
	}
	if got := fs.content("notes/inbox/2026-01-01-hello-note1234.md"); !strings.Contains(got, "edit number e") {
		t.Errorf("file missing final edit:\n%s", got)
	}
}

func TestUpdateBody_MemoryFirst(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, time.Hour) // flush never fires during the test
	defer s.Close()

	if err := s.UpdateBody("note-1", "fresh text"); err != nil {
		t.Fatal(err)
	}
	n, err := s.Get("note-1")
	if err != nil {
		t.Fatal(err)
	}
	if n.Body != "fresh text" || n.Title != "fresh text" {
		t.Errorf("memory not updated: %+v", n)
	}
	if got := fs.content("notes/inbox/2026-01-01-hello-note1234.md"); got != seedNote {
		t.Error("disk should not change before the debounce fires")
	}
}

func TestModified_Monotonic(t *testing.T) {
	fs := seedFS()
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := New(Options{Provider: fs, Index: nopIndex{}, Now: func() time.Time { return fixed }})
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.UpdateBody("note-1", "one"); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Get("note-1")
	if err := s.UpdateBody("note-1", "two"); err != nil {
		t.Fatal(err)
	}
	second, _ := s.Get("note-1")
	if !second.Modified.After(first.Modified) {
		t.Errorf("modified did not advance: %v then %v", first.Modified, second.Modified)
	}
}

func TestWriteError_RecordedAndCleared(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, 0)
	defer s.Close()

	fs.mu.Lock()
	fs.writeErr = errors.New("disk full")
	fs.mu.Unlock()

	if err := s.UpdateBody("note-1", "doomed edit"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "write error", func() bool {
		_, ok := s.WriteError("note-1")
		return ok
	})

	// Memory keeps the edit; the failure never rolls it back.
	n, _ := s.Get("note-1")
	if n.Body != "doomed edit" {
		t.Errorf("body rolled back: %q", n.Body)
	}

	fs.mu.Lock()
	fs.writeErr = nil
	fs.mu.Unlock()

	if err := s.UpdateBody("note-1", "recovered edit"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "write error cleared", func() bool {
		_, ok := s.WriteError("note-1")
		return !ok
	})
	if got := fs.content("notes/inbox/2026-01-01-hello-note1234.md"); !strings.Contains(got, "recovered edit") {
		t.Errorf("file = %q", got)
	}
}

func TestMove_UpdatesKindAndPlacement(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, 0)
	defer s.Close()

	if err := s.Move("note-1", "notes/folders/reading"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Get("note-1")
	if n.Path != "notes/folders/reading/2026-01-01-hello-note1234.md" {
		t.Errorf("path = %q", n.Path)
	}
	if n.Kind != models.KindFolder || !n.UserPlaced {
		t.Errorf("kind = %q, userPlaced = %v", n.Kind, n.UserPlaced)
	}

	if err := s.Move("note-1", "notes/archive"); err == nil {
		t.Error("archive is not a valid move target")
	}
}

func TestMove_WaitsForInFlightWrite(t *testing.T) {
	fs := seedFS()
	fs.writeGate = make(chan struct{}) // hold the flush write in flight
	s := newTestStore(t, fs, 0)

	if err := s.UpdateBody("note-1", "body edited mid move"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "write in flight", func() bool {
		return fs.gatedWriteCount() > 0
	})

	moved := make(chan error, 1)
	go func() { moved <- s.Move("note-1", "notes/folders/reading") }()

	// The rename must not interleave with the blocked write; otherwise the
	// write would recreate the note at its old path and the file would
	// exist at both locations.
	select {
	case <-moved:
		t.Fatal("move completed while a write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(fs.writeGate)
	if err := <-moved; err != nil {
		t.Fatal(err)
	}
	s.Close()

	if got := fs.fileCount(); got != 1 {
		t.Fatalf("files on disk = %d, want 1", got)
	}
	p, content := fs.onlyFile()
	if p != "notes/folders/reading/2026-01-01-hello-note1234.md" {
		t.Errorf("path = %q", p)
	}
	if !strings.Contains(content, "body edited mid move") {
		t.Errorf("moved file missing the edit:\n%s", content)
	}
}

func TestArchive_PreservesSubPath(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, 0)
	defer s.Close()

	if err := s.Move("note-1", "notes/folders/reading"); err != nil {
		t.Fatal(err)
	}
	if err := s.Archive("note-1"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Get("note-1")
	if n.Path != "notes/archive/folders/reading/2026-01-01-hello-note1234.md" {
		t.Errorf("path = %q", n.Path)
	}
	if n.Kind != models.KindArchive {
		t.Errorf("kind = %q", n.Kind)
	}
	// Archived notes are hidden from the default listing.
	if got := len(s.Notes(false)); got != 0 {
		t.Errorf("default listing has %d notes, want 0", got)
	}
	if got := len(s.Notes(true)); got != 1 {
		t.Errorf("archived listing has %d notes, want 1", got)
	}
}

func TestSetTopicsAndProjects(t *testing.T) {
	fs := seedFS()
	s := newTestStore(t, fs, 0)

	if err := s.SetTopics("note-1", []string{"garden"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProjects("note-1", []string{"proj-1"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	got := fs.content("notes/inbox/2026-01-01-hello-note1234.md")
	if !strings.Contains(got, "garden") || !strings.Contains(got, "proj-1") {
		t.Errorf("metadata not persisted:\n%s", got)
	}
}
