// Package store holds the canonical in-memory collection of notes plus the
// at-most-one in-flight draft, and owns the write path back to the vault.
//
// All mutation is funneled through Store methods guarded by one mutex, which
// gives every entity a single writer. The in-memory state is authoritative:
// a failed disk write surfaces an error but never rolls memory back, and the
// next successful write supersedes it.
package store

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/homebase-app/homebase/internal/apperr"
	"github.com/homebase-app/homebase/internal/checksum"
	"github.com/homebase-app/homebase/internal/derive"
	"github.com/homebase-app/homebase/internal/frontmatter"
	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/vault"
)

// DefaultDebounce is the quiet period body edits wait for before being
// flushed to disk. Tunable, not correctness-relevant.
const DefaultDebounce = 750 * time.Millisecond

// EventFunc is called after a successful store mutation.
// kind is one of "note.created", "note.updated", "note.moved",
// "note.write_failed", "draft.updated", "draft.error".
type EventFunc func(kind, noteID string)

// Options configures a Store.
type Options struct {
	Provider    vault.Provider
	Index       index.NoteIndex
	Logger      *slog.Logger
	Debounce    time.Duration // 0 means write-through (no coalescing)
	TitleMaxLen int
	Notify      EventFunc
	Now         func() time.Time
}

// Store is the single owner of note and draft state.
type Store struct {
	fs       vault.Provider
	db       index.NoteIndex
	logger   *slog.Logger
	notify   EventFunc
	now      func() time.Time
	debounce time.Duration
	titleMax int

	mu      sync.Mutex
	notes   map[string]*models.Note        // by id
	fields  map[string]*frontmatter.Fields // preserved front matter per note
	draft   *draftState
	pending map[string]*time.Timer // per-note debounce timers
	werrs   map[string]string      // last write error per note
	iomu    map[string]*sync.Mutex // per-note disk I/O serialization
	closed  bool

	wg sync.WaitGroup // in-flight persists and flushes
}

// New creates a store. Provider and Index are required.
func New(opts Options) *Store {
	s := &Store{
		fs:       opts.Provider,
		db:       opts.Index,
		logger:   opts.Logger,
		notify:   opts.Notify,
		now:      opts.Now,
		debounce: opts.Debounce,
		titleMax: opts.TitleMaxLen,
		notes:    make(map[string]*models.Note),
		fields:   make(map[string]*frontmatter.Fields),
		pending:  make(map[string]*time.Timer),
		werrs:    make(map[string]string),
		iomu:     make(map[string]*sync.Mutex),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.titleMax <= 0 {
		s.titleMax = derive.TitleMaxLen
	}
	if s.notify == nil {
		s.notify = func(string, string) {}
	}
	return s
}

// Load reads every note file in the vault into memory and brings the index
// up to date. Notes without an id get one assigned in memory; the file is
// rewritten on the user's next edit, not here.
func (s *Store) Load() error {
	metas, err := s.fs.List("")
	if err != nil {
		return fmt.Errorf("store: list vault: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fm := range metas {
		data, err := s.fs.Read(fm.Path)
		if err != nil {
			s.logger.Warn("load: read failed", slog.String("path", fm.Path), slog.String("error", err.Error()))
			continue
		}
		fields, body := frontmatter.Decode(data)
		meta := frontmatter.ExtractMeta(fields, fm.ModTime)
		if meta.ID == "" {
			meta.ID = uuid.New().String()
		}
		n := &models.Note{
			ID:         meta.ID,
			Path:       fm.Path,
			Kind:       vault.KindForPath(fm.Path),
			Title:      derive.Title(body, s.titleMax),
			SearchKey:  derive.SearchKey(body),
			Body:       body,
			Created:    meta.Created,
			Modified:   meta.Modified,
			Projects:   meta.Projects,
			Topics:     meta.Topics,
			UserPlaced: meta.UserPlaced,
		}
		s.notes[n.ID] = n
		s.fields[n.ID] = fields
		if err := s.indexNoteLocked(n, data); err != nil {
			s.logger.Warn("load: index failed", slog.String("path", fm.Path), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("store: loaded", slog.Int("notes", len(s.notes)))
	return nil
}

// Notes returns a snapshot of all notes, newest modified first.
func (s *Store) Notes(includeArchived bool) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if !includeArchived && n.Kind == models.KindArchive {
			continue
		}
		out = append(out, *n)
	}
	sortNotes(out)
	return out
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return models.Note{}, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return *n, nil
}

// UpdateBody replaces a note's body. Memory is updated immediately; the
// disk write is debounced so rapid keystrokes coalesce into one write.
func (s *Store) UpdateBody(id, body string) error {
	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	s.applyBodyLocked(n, body)
	s.scheduleFlushLocked(id)
	s.mu.Unlock()

	s.notify("note.updated", id)
	return nil
}

// SetTopics replaces a note's topic tags.
func (s *Store) SetTopics(id string, topics []string) error {
	return s.updateMeta(id, func(n *models.Note) { n.Topics = nonNil(topics) })
}

// SetProjects replaces a note's project associations.
func (s *Store) SetProjects(id string, projects []string) error {
	return s.updateMeta(id, func(n *models.Note) { n.Projects = nonNil(projects) })
}

func (s *Store) updateMeta(id string, apply func(*models.Note)) error {
	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	apply(n)
	n.Modified = s.monotonicLocked(n)
	s.scheduleFlushLocked(id)
	s.mu.Unlock()

	s.notify("note.updated", id)
	return nil
}

// Move relocates a note into targetDir, marking it user-placed.
func (s *Store) Move(id, targetDir string) error {
	if !vault.ValidTargetDir(targetDir) {
		return fmt.Errorf("store: invalid target directory %q", targetDir)
	}
	return s.relocate(id, func(oldPath string) (string, error) {
		return path.Join(targetDir, path.Base(oldPath)), nil
	}, func(n *models.Note, newPath string) {
		n.Kind = vault.KindForPath(newPath)
		n.UserPlaced = true
	})
}

// Archive moves a note under notes/archive, preserving its sub-path.
// Archival is a location change, never destruction.
func (s *Store) Archive(id string) error {
	return s.relocate(id, vault.ArchivePath, func(n *models.Note, _ string) {
		n.Kind = models.KindArchive
	})
}

// relocate renames a note's file and updates memory while holding the
// note's I/O lock, so the rename can never interleave with an in-flight
// body write (which would recreate the file at its old location).
func (s *Store) relocate(id string, dest func(oldPath string) (string, error), apply func(*models.Note, string)) error {
	l := s.ioLock(id)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	oldPath := n.Path
	s.mu.Unlock()

	newPath, err := dest(oldPath)
	if err != nil {
		return err
	}
	if newPath == oldPath {
		return nil
	}
	if err := s.fs.Move(oldPath, newPath); err != nil {
		return err
	}

	s.mu.Lock()
	n.Path = newPath
	apply(n, newPath)
	n.Modified = s.monotonicLocked(n)
	s.scheduleFlushLocked(id)
	s.mu.Unlock()

	s.notify("note.moved", id)
	return nil
}

// ioLock returns the mutex serializing disk operations for one note.
func (s *Store) ioLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.iomu[id]
	if !ok {
		l = &sync.Mutex{}
		s.iomu[id] = l
	}
	return l
}

// WriteError returns the last write failure for a note, if any. It is
// cleared by the next successful write or by ClearWriteError.
func (s *Store) WriteError(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.werrs[id]
	return msg, ok
}

// ClearWriteError discards a recorded write failure.
func (s *Store) ClearWriteError(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.werrs, id)
}

// Flush forces any pending write for a note to happen now.
func (s *Store) Flush(id string) {
	s.mu.Lock()
	if t, ok := s.pending[id]; ok {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()
	s.flush(id)
}

// Close flushes all pending writes and waits for in-flight work.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	ids := make([]string, 0, len(s.pending))
	for id, t := range s.pending {
		if t.Stop() {
			s.wg.Done()
		}
		ids = append(ids, id)
	}
	s.pending = make(map[string]*time.Timer)
	s.mu.Unlock()

	for _, id := range ids {
		s.flush(id)
	}
	s.wg.Wait()
}

// applyBodyLocked updates the body and everything derived from it.
func (s *Store) applyBodyLocked(n *models.Note, body string) {
	n.Body = body
	n.Title = derive.Title(body, s.titleMax)
	n.SearchKey = derive.SearchKey(body)
	n.Modified = s.monotonicLocked(n)
}

// monotonicLocked returns a modified timestamp strictly after the current
// one, so successive writes never go backwards.
func (s *Store) monotonicLocked(n *models.Note) time.Time {
	t := s.now()
	if !t.After(n.Modified) {
		t = n.Modified.Add(time.Millisecond)
	}
	return t
}

// scheduleFlushLocked arms (or re-arms) the per-note debounce timer. With a
// zero window the flush runs synchronously after the lock is released, via
// an immediate timer.
func (s *Store) scheduleFlushLocked(id string) {
	if s.closed {
		return
	}
	if t, ok := s.pending[id]; ok {
		t.Reset(s.debounce)
		return
	}
	s.wg.Add(1)
	s.pending[id] = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.flush(id)
	})
}

// flush encodes the latest in-memory state of a note and writes it out.
// The snapshot is taken under the note's I/O lock at dispatch time, never
// earlier, so writes observe edits in order and can never land at a path
// the note has already been renamed away from.
func (s *Store) flush(id string) {
	l := s.ioLock(id)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	content := s.encodeLocked(n)
	notePath := n.Path
	row, searchKey, tasks := s.rowLocked(n, content)
	s.mu.Unlock()

	if err := s.fs.Write(notePath, []byte(content)); err != nil {
		s.logger.Error("store: write failed",
			slog.String("id", id), slog.String("path", notePath), slog.String("error", err.Error()))
		s.mu.Lock()
		s.werrs[id] = err.Error()
		s.mu.Unlock()
		s.notify("note.write_failed", id)
		return
	}

	s.mu.Lock()
	delete(s.werrs, id)
	s.mu.Unlock()

	if err := s.db.UpsertNote(row, searchKey, tasks); err != nil {
		s.logger.Warn("store: index failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// encodeLocked re-encodes a note's file content from its latest state.
func (s *Store) encodeLocked(n *models.Note) string {
	fields := s.fields[n.ID]
	if fields == nil {
		fields = frontmatter.NewFields()
		s.fields[n.ID] = fields
	}
	frontmatter.ApplyMeta(fields, frontmatter.Meta{
		ID:         n.ID,
		Created:    n.Created,
		Modified:   n.Modified,
		Projects:   n.Projects,
		Topics:     n.Topics,
		UserPlaced: n.UserPlaced,
	})
	return frontmatter.Encode(fields, n.Body)
}

func (s *Store) rowLocked(n *models.Note, content string) (index.NoteRow, string, []models.Task) {
	row := index.NoteRow{
		ID:        n.ID,
		Path:      n.Path,
		Kind:      n.Kind,
		Title:     n.Title,
		Checksum:  checksum.Sum([]byte(content)),
		CreatedAt: n.Created,
		UpdatedAt: n.Modified,
	}
	return row, n.SearchKey, parseTasks(n.Body)
}

// indexNoteLocked upserts a note into the index from its raw file bytes.
func (s *Store) indexNoteLocked(n *models.Note, data []byte) error {
	row := index.NoteRow{
		ID:        n.ID,
		Path:      n.Path,
		Kind:      n.Kind,
		Title:     n.Title,
		Checksum:  checksum.Sum(data),
		CreatedAt: n.Created,
		UpdatedAt: n.Modified,
	}
	return s.db.UpsertNote(row, n.SearchKey, parseTasks(n.Body))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func sortNotes(notes []models.Note) {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Modified.After(notes[j].Modified)
	})
}
