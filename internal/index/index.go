package index

import "github.com/homebase-app/homebase/internal/models"

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, searchKey string, tasks []models.Task) error
	DeleteNote(id string) error
	DeleteNoteByPath(path string) error
	GetNote(id string) (*NoteRow, error)
	ListNotes(limit, offset int, kind string, includeArchived bool) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	OpenTasks(dueBefore string, limit int) ([]TaskRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
