// Package models defines the domain types for Homebase.
package models

import "time"

// Kind classifies where a note lives inside the vault.
type Kind string

// Note kinds, derived from the path prefix under the vault root.
const (
	KindInbox   Kind = "inbox"
	KindArchive Kind = "archive"
	KindProject Kind = "project"
	KindFolder  Kind = "folder"
	KindDaily   Kind = "daily"
	KindOther   Kind = "other"
)

// Note is a persisted Markdown note backed by a vault file.
//
// ID is assigned once and never regenerated; it must always match the id
// stored in the file's front matter. Body is the raw Markdown text and is
// authoritative; Title and SearchKey are derived from it.
type Note struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"` // relative to the vault root
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	SearchKey  string    `json:"-"`
	Body       string    `json:"body"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
	Projects   []string  `json:"projects"`
	Topics     []string  `json:"topics"`
	UserPlaced bool      `json:"user_placed"`
}

// Draft is an at-most-one, not-yet-persisted note held only in memory.
// Instead of a storage path it carries the target directory the note will
// land in once its body becomes meaningful.
type Draft struct {
	ID        string    `json:"id"`
	TargetDir string    `json:"target_dir"`
	Body      string    `json:"body"`
	Created   time.Time `json:"created"`
}

// Priority is one of four task priority ranks.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the four ranks.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Recurrence is a task repeat period.
type Recurrence string

// Task recurrence periods.
const (
	EveryDay   Recurrence = "day"
	EveryWeek  Recurrence = "week"
	EveryMonth Recurrence = "month"
)

// ValidRecurrence reports whether r is one of the three periods.
func ValidRecurrence(r Recurrence) bool {
	switch r {
	case EveryDay, EveryWeek, EveryMonth:
		return true
	}
	return false
}

// Task is a virtual entity: a tagged checkbox line inside a note body.
// It has no storage of its own. Line is the zero-based line index within
// the body at parse time.
type Task struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Done       bool       `json:"done"`
	Due        string     `json:"due,omitempty"` // ISO calendar date (2006-01-02)
	Priority   Priority   `json:"priority,omitempty"`
	Recurrence Recurrence `json:"recurrence,omitempty"`
	Order      *int       `json:"order,omitempty"`
	Line       int        `json:"line"`
}

// Project is the metadata of a project folder under notes/projects.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Path     string `json:"path"` // folder path relative to the vault root
}
