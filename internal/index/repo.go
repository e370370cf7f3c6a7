package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/homebase-app/homebase/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID        string
	Path      string
	Kind      models.Kind
	Title     string
	Checksum  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TaskRow is one indexed task, joined with its note.
type TaskRow struct {
	NoteID    string  `json:"note_id"`
	NotePath  string  `json:"note_path"`
	NoteTitle string  `json:"note_title"`
	TaskID    string  `json:"task_id"`
	Title     string  `json:"title"`
	Done      bool    `json:"done"`
	Due       string  `json:"due,omitempty"`
	Priority  string  `json:"priority,omitempty"`
	SortOrder *int    `json:"order,omitempty"`
}

// UpsertNote replaces a note, its FTS entry, and its tasks in one transaction.
func (db *DB) UpsertNote(n NoteRow, searchKey string, tasks []models.Task) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// A moved note keeps its id but changes path; clear any stale row
	// occupying the new path first.
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ? AND id != ?`, n.Path, n.ID)

	_, err = tx.Exec(`
		INSERT INTO notes (id, path, kind, title, search_key, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			kind       = excluded.kind,
			title      = excluded.title,
			search_key = excluded.search_key,
			checksum   = excluded.checksum,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, n.ID, n.Path, string(n.Kind), n.Title, searchKey, n.Checksum, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.ID, n.Title, searchKey); err != nil {
		return err
	}

	// Replace tasks: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM tasks WHERE note_id = ?`, n.ID)
	if len(tasks) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO tasks
				(note_id, task_id, line_no, title, done, due, priority, recurrence, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range tasks {
			var order any
			if t.Order != nil {
				order = *t.Order
			}
			if _, err := stmt.Exec(n.ID, t.ID, t.Line, t.Title, t.Done,
				nullIfEmpty(t.Due), nullIfEmpty(string(t.Priority)),
				nullIfEmpty(string(t.Recurrence)), order); err != nil {
				return fmt.Errorf("index: insert task: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and its tasks.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM tasks WHERE note_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// DeleteNoteByPath removes the note indexed at path, if any.
func (db *DB) DeleteNoteByPath(path string) error {
	var id string
	err := db.conn.QueryRow(`SELECT id FROM notes WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: lookup path: %w", err)
	}
	return db.DeleteNote(id)
}

// GetNote returns the indexed row for id, or nil when absent.
func (db *DB) GetNote(id string) (*NoteRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, path, kind, title, checksum, created_at, updated_at
		FROM notes WHERE id = ?
	`, id)
	var n NoteRow
	var kind string
	var created sql.NullTime
	err := row.Scan(&n.ID, &n.Path, &kind, &n.Title, &n.Checksum, &created, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	n.Kind = models.Kind(kind)
	if created.Valid {
		n.CreatedAt = created.Time
	}
	return &n, nil
}

// ListNotes returns paginated notes, newest first, with an optional kind
// filter. Archived notes are excluded unless includeArchived is set.
func (db *DB) ListNotes(limit, offset int, kind string, includeArchived bool) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 100
	}
	where := `WHERE 1=1`
	var args []any
	if kind != "" {
		where += ` AND kind = ?`
		args = append(args, kind)
	} else if !includeArchived {
		where += ` AND kind != ?`
		args = append(args, string(models.KindArchive))
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, path, kind, title, checksum, created_at, updated_at
		FROM notes `+where+`
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		var kindStr string
		var created sql.NullTime
		if err := rows.Scan(&n.ID, &n.Path, &kindStr, &n.Title, &n.Checksum, &created, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		n.Kind = models.Kind(kindStr)
		if created.Valid {
			n.CreatedAt = created.Time
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// OpenTasks returns open tasks across the vault, due-date order first.
// When dueBefore is non-empty only tasks with a due date on or before it
// are returned.
func (db *DB) OpenTasks(dueBefore string, limit int) ([]TaskRow, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
		SELECT tasks.note_id, notes.path, notes.title,
		       tasks.task_id, tasks.title, tasks.done,
		       COALESCE(tasks.due, ''), COALESCE(tasks.priority, ''), tasks.sort_order
		FROM tasks JOIN notes ON notes.id = tasks.note_id
		WHERE tasks.done = 0`
	var args []any
	if dueBefore != "" {
		q += ` AND tasks.due IS NOT NULL AND tasks.due != '' AND tasks.due <= ?`
		args = append(args, dueBefore)
	}
	q += `
		ORDER BY (tasks.due IS NULL OR tasks.due = ''), tasks.due ASC,
		         tasks.sort_order IS NULL, tasks.sort_order ASC
		LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: open tasks: %w", err)
	}
	defer rows.Close()

	var out []TaskRow
	for rows.Next() {
		var t TaskRow
		var order sql.NullInt64
		if err := rows.Scan(&t.NoteID, &t.NotePath, &t.NoteTitle,
			&t.TaskID, &t.Title, &t.Done, &t.Due, &t.Priority, &order); err != nil {
			return nil, err
		}
		if order.Valid {
			n := int(order.Int64)
			t.SortOrder = &n
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
