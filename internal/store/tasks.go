package store

import (
	"fmt"

	"github.com/homebase-app/homebase/internal/apperr"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/task"
)

func parseTasks(body string) []models.Task {
	return task.ParseTasks(body)
}

// Tasks returns the tasks embedded in a note's body, in line order.
func (s *Store) Tasks(noteID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok {
		return nil, fmt.Errorf("store: note %s: %w", noteID, apperr.ErrNotFound)
	}
	return parseTasks(n.Body), nil
}

// AddTask appends a canonical task line to a note's body and returns the
// new task's identifier.
func (s *Store) AddTask(noteID, title string, attrs task.Attrs) (string, error) {
	s.mu.Lock()
	n, ok := s.notes[noteID]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("store: note %s: %w", noteID, apperr.ErrNotFound)
	}
	if attrs.ID == "" {
		attrs.ID = task.NewID()
	}
	line := task.BuildLine(title, attrs)
	body := n.Body
	if body != "" && body[len(body)-1] != '\n' {
		body += "\n"
	}
	s.applyBodyLocked(n, body+line+"\n")
	s.scheduleFlushLocked(noteID)
	s.mu.Unlock()

	s.notify("note.updated", noteID)
	return attrs.ID, nil
}

// UpdateTaskField sets, replaces, or clears (value nil) one metadata tag on
// a task. A task id no longer present in the body is a no-op, not an error:
// the user may have edited the line away.
func (s *Store) UpdateTaskField(noteID, taskID, field string, value *string) error {
	return s.rewriteBody(noteID, func(body string) (string, error) {
		return task.UpdateField(body, taskID, field, value)
	})
}

// ToggleTask completes a task, or reschedules it when it recurs: the due
// date advances one period (from the current due date, or today when unset)
// and the task stays open.
func (s *Store) ToggleTask(noteID, taskID string) error {
	return s.rewriteBody(noteID, func(body string) (string, error) {
		return task.Toggle(body, taskID, s.now())
	})
}

// ConvertTask promotes the plain checkbox at the given body line into a
// task with a fresh identifier.
func (s *Store) ConvertTask(noteID string, line int) (string, error) {
	var taskID string
	err := s.rewriteBody(noteID, func(body string) (string, error) {
		newBody, id, err := task.ConvertCheckbox(body, line)
		taskID = id
		return newBody, err
	})
	return taskID, err
}

// rewriteBody applies a pure body transform to a note; an unchanged result
// means no mutation happened and nothing is written.
func (s *Store) rewriteBody(noteID string, transform func(string) (string, error)) error {
	s.mu.Lock()
	n, ok := s.notes[noteID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("store: note %s: %w", noteID, apperr.ErrNotFound)
	}
	newBody, err := transform(n.Body)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if newBody == n.Body {
		s.mu.Unlock()
		return nil
	}
	s.applyBodyLocked(n, newBody)
	s.scheduleFlushLocked(noteID)
	s.mu.Unlock()

	s.notify("note.updated", noteID)
	return nil
}
