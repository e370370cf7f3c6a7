package store

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homebase-app/homebase/internal/apperr"
	"github.com/homebase-app/homebase/internal/derive"
	"github.com/homebase-app/homebase/internal/frontmatter"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/vault"
)

// draftState tracks the draft lifecycle: editing while persisting is false,
// a create call in flight while it is true. At most one create call is ever
// issued per draft; edits arriving during the flight accumulate in Body and
// are flushed by a single trailing write.
type draftState struct {
	models.Draft
	persisting bool
	lastErr    string
}

// CreateDraft returns the active draft, or allocates a new one. While any
// draft exists its identifier is returned unchanged, so rapid invocations
// cannot spawn multiple blank notes. A still-blank draft is retargeted to
// the requested directory instead of being replaced.
func (s *Store) CreateDraft(targetDir string) (models.Draft, error) {
	if targetDir == "" {
		targetDir = vault.DirInbox
	}
	if !vault.ValidTargetDir(targetDir) {
		return models.Draft{}, fmt.Errorf("store: invalid target directory %q", targetDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft != nil {
		if !s.draft.persisting && !derive.Meaningful(s.draft.Body) {
			s.draft.TargetDir = strings.TrimSuffix(targetDir, "/")
		}
		return s.draft.Draft, nil
	}

	s.draft = &draftState{Draft: models.Draft{
		ID:        uuid.New().String(),
		TargetDir: strings.TrimSuffix(targetDir, "/"),
		Created:   s.now(),
	}}
	return s.draft.Draft, nil
}

// Draft returns the active draft, if any.
func (s *Store) Draft() (models.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return models.Draft{}, false
	}
	return s.draft.Draft, true
}

// DraftError returns the last draft persistence failure, if any.
func (s *Store) DraftError() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil || s.draft.lastErr == "" {
		return "", false
	}
	return s.draft.lastErr, true
}

// UpdateDraftBody records a body edit. Memory updates immediately; the
// moment the body becomes meaningful and no persistence is in flight,
// exactly one file-create call is dispatched with the body known right now.
func (s *Store) UpdateDraftBody(body string) error {
	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return fmt.Errorf("store: %w", apperr.ErrNoDraft)
	}
	s.draft.Body = body

	dispatch := !s.draft.persisting && derive.Meaningful(body)
	var id, targetDir string
	var created time.Time
	if dispatch {
		s.draft.persisting = true
		id = s.draft.ID
		targetDir = s.draft.TargetDir
		created = s.draft.Created
		s.wg.Add(1)
		go s.persistDraft(id, targetDir, created, body)
	}
	s.mu.Unlock()

	s.notify("draft.updated", "")
	return nil
}

// persistDraft issues the draft's single create call and, on success, the
// trailing write carrying whatever body is current by then.
func (s *Store) persistDraft(id, targetDir string, created time.Time, body string) {
	defer s.wg.Done()

	now := s.now()
	notePath := path.Join(targetDir, vault.FileName(derive.Title(body, s.titleMax), id, now))

	n := &models.Note{
		ID:         id,
		Path:       notePath,
		Kind:       vault.KindForPath(notePath),
		Body:       body,
		Created:    created,
		Modified:   now,
		Projects:   []string{},
		Topics:     []string{},
		UserPlaced: vault.UserPlaced(notePath),
	}

	fields := frontmatter.NewFields()
	frontmatter.ApplyMeta(fields, frontmatter.Meta{
		ID: id, Created: created, Modified: now,
		Projects: n.Projects, Topics: n.Topics, UserPlaced: n.UserPlaced,
	})
	content := frontmatter.Encode(fields, body)

	if err := s.fs.Create(notePath, []byte(content)); err != nil {
		s.logger.Error("store: draft create failed",
			slog.String("id", id), slog.String("path", notePath), slog.String("error", err.Error()))
		s.mu.Lock()
		if s.draft != nil && s.draft.ID == id {
			// Back to editing; the draft is not lost.
			s.draft.persisting = false
			s.draft.lastErr = err.Error()
		}
		s.mu.Unlock()
		s.notify("draft.error", id)
		return
	}

	// Promote: adopt whatever body is current in memory at this moment,
	// then free the draft slot.
	s.mu.Lock()
	if s.draft != nil && s.draft.ID == id {
		n.Body = s.draft.Body
		s.draft = nil
	}
	n.Title = derive.Title(n.Body, s.titleMax)
	n.SearchKey = derive.SearchKey(n.Body)
	n.Modified = s.monotonicLocked(n)
	s.notes[id] = n
	s.fields[id] = fields
	s.mu.Unlock()

	// Trailing write with the latest body; supersedes the create content.
	s.flush(id)
	s.notify("note.created", id)
}
