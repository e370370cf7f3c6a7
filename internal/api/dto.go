package api

import (
	"time"

	"github.com/homebase-app/homebase/internal/models"
)

// CreateDraftRequest is the request body for creating (or fetching) the draft.
type CreateDraftRequest struct {
	TargetDir string `json:"target_dir,omitempty" example:"notes/inbox"`
}

// UpdateBodyRequest carries a full replacement body for a note or the draft.
type UpdateBodyRequest struct {
	Body string `json:"body"`
}

// UpdateNoteRequest carries metadata changes for a note. Nil fields are
// left untouched.
type UpdateNoteRequest struct {
	Topics   *[]string `json:"topics,omitempty"`
	Projects *[]string `json:"projects,omitempty"`
}

// MoveNoteRequest names the directory a note should move into.
type MoveNoteRequest struct {
	TargetDir string `json:"target_dir" example:"notes/folders/reading"`
}

// UpdateTaskRequest sets or clears one task metadata field.
type UpdateTaskRequest struct {
	Field string  `json:"field" example:"due"`
	Value *string `json:"value"` // null clears the tag
}

// ConvertTaskRequest addresses the checkbox line to promote.
type ConvertTaskRequest struct {
	Line int `json:"line"`
}

// AddTaskRequest appends a new task line to a note.
type AddTaskRequest struct {
	Title      string `json:"title"`
	Due        string `json:"due,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Recurrence string `json:"recurrence,omitempty"`
}

// CreateProjectRequest names a new project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// UpdateProjectRequest renames a project and/or changes its status.
type UpdateProjectRequest struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

// FolderRequest addresses a folder under notes/folders.
type FolderRequest struct {
	Path   string `json:"path" example:"notes/folders/reading"`
	ToName string `json:"to_name,omitempty"`
}

// NoteSummary is a note without its body, for listings.
type NoteSummary struct {
	ID         string      `json:"id"`
	Path       string      `json:"path"`
	Kind       models.Kind `json:"kind"`
	Title      string      `json:"title"`
	Created    time.Time   `json:"created"`
	Modified   time.Time   `json:"modified"`
	Projects   []string    `json:"projects"`
	Topics     []string    `json:"topics"`
	UserPlaced bool        `json:"user_placed"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteSummary `json:"notes"`
	Total int           `json:"total"`
}

// NoteDetail is a full note plus its last write failure, if one is pending.
type NoteDetail struct {
	models.Note
	WriteError string `json:"write_error,omitempty"`
}

// DraftDetail is the active draft plus its last persistence failure, if any.
type DraftDetail struct {
	models.Draft
	Error string `json:"error,omitempty"`
}

// TaskListResponse wraps the tasks of one note.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
}
