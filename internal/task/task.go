// Package task implements the checkbox micro-format that promotes a plain
// Markdown checklist item to an identifiable, metadata-bearing task.
//
// A checkbox line becomes a task only when its text carries an identifier
// tag. Metadata tags use a reserved sigil grammar so ordinary prose is never
// misparsed:
//
//	- [ ] Pay rent @task(9f2c41aa) @due(2026-09-01) @priority(high) @every(month) @order(2)
//
// Checkboxes without an identifier tag are plain checklist items and every
// operation in this package leaves them untouched.
package task

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homebase-app/homebase/internal/models"
)

// PlaceholderTitle substitutes for an empty checkbox text at conversion time.
const PlaceholderTitle = "New task"

// DateLayout is the ISO calendar date used by the due tag.
const DateLayout = "2006-01-02"

var (
	checkboxRe = regexp.MustCompile(`^(\s*)([-*+])\s+\[([ xX])\]\s?(.*)$`)
	idTagRe    = regexp.MustCompile(`@task\(([A-Za-z0-9-]{4,36})\)`)
	dueRe      = regexp.MustCompile(`@due\((\d{4}-\d{2}-\d{2})\)`)
	priorityRe = regexp.MustCompile(`@priority\((low|medium|high|urgent)\)`)
	everyRe    = regexp.MustCompile(`@every\((day|week|month)\)`)
	orderRe    = regexp.MustCompile(`@order\((-?\d+)\)`)
	spacesRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// tagRes in canonical construction order: id, due, priority, recurrence, order.
var tagRes = []*regexp.Regexp{idTagRe, dueRe, priorityRe, everyRe, orderRe}

// NewID returns a fresh task identifier: the first eight hex characters of a
// random UUID, matching the note file-name shorts.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Attrs is the metadata set carried by a constructed task line.
type Attrs struct {
	ID         string
	Done       bool
	Due        string
	Priority   models.Priority
	Recurrence models.Recurrence
	Order      *int
}

// ParseLine parses a single body line. ok is false for non-checkbox lines
// and for checkboxes lacking an identifier tag.
func ParseLine(line string, lineNo int) (models.Task, bool) {
	m := checkboxRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return models.Task{}, false
	}
	text := m[4]
	idm := idTagRe.FindStringSubmatch(text)
	if idm == nil {
		return models.Task{}, false
	}

	t := models.Task{
		ID:    idm[1],
		Title: StripMetadata(text),
		Done:  m[3] == "x" || m[3] == "X",
		Line:  lineNo,
	}
	if dm := dueRe.FindStringSubmatch(text); dm != nil {
		t.Due = dm[1]
	}
	if pm := priorityRe.FindStringSubmatch(text); pm != nil {
		t.Priority = models.Priority(pm[1])
	}
	if em := everyRe.FindStringSubmatch(text); em != nil {
		t.Recurrence = models.Recurrence(em[1])
	}
	if om := orderRe.FindStringSubmatch(text); om != nil {
		if n, err := strconv.Atoi(om[1]); err == nil {
			t.Order = &n
		}
	}
	return t, true
}

// ParseTasks returns every task in the body in line order. Non-matching
// lines and untagged checkboxes are skipped.
func ParseTasks(body string) []models.Task {
	var out []models.Task
	for i, line := range strings.Split(body, "\n") {
		if t, ok := ParseLine(line, i); ok {
			out = append(out, t)
		}
	}
	return out
}

// StripMetadata removes every recognized tag and collapses the resulting
// whitespace. It is idempotent.
func StripMetadata(text string) string {
	for _, re := range tagRes {
		text = re.ReplaceAllString(text, "")
	}
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// BuildLine constructs a canonical task line: checkbox, title, then tags in
// the fixed order identifier, due, priority, recurrence, order. A missing id
// is generated fresh; an empty title gets the placeholder.
func BuildLine(title string, a Attrs) string {
	title = StripMetadata(title)
	if title == "" {
		title = PlaceholderTitle
	}
	if a.ID == "" {
		a.ID = NewID()
	}

	mark := " "
	if a.Done {
		mark = "x"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s @task(%s)", mark, title, a.ID)
	if a.Due != "" {
		fmt.Fprintf(&b, " @due(%s)", a.Due)
	}
	if a.Priority != "" {
		fmt.Fprintf(&b, " @priority(%s)", a.Priority)
	}
	if a.Recurrence != "" {
		fmt.Fprintf(&b, " @every(%s)", a.Recurrence)
	}
	if a.Order != nil {
		fmt.Fprintf(&b, " @order(%d)", *a.Order)
	}
	return b.String()
}

// Fields accepted by UpdateField.
const (
	FieldDue      = "due"
	FieldPriority = "priority"
	FieldEvery    = "every"
	FieldOrder    = "order"
)

// UpdateField replaces, appends, or (when value is nil) removes one metadata
// tag on the line carrying taskID. A body without that identifier is
// returned unchanged: concurrent edits may have removed the task, and that
// is not an error. Other lines are never touched.
func UpdateField(body, taskID, field string, value *string) (string, error) {
	var re *regexp.Regexp
	switch field {
	case FieldDue:
		re = dueRe
	case FieldPriority:
		re = priorityRe
	case FieldEvery:
		re = everyRe
	case FieldOrder:
		re = orderRe
	default:
		return body, fmt.Errorf("task: unknown field %q", field)
	}

	var tag string
	if value != nil {
		tag = fmt.Sprintf("@%s(%s)", field, *value)
		if !re.MatchString(tag) {
			return body, fmt.Errorf("task: invalid %s value %q", field, *value)
		}
	}

	lines := strings.Split(body, "\n")
	idx := findTaskLine(lines, taskID)
	if idx < 0 {
		return body, nil
	}
	lines[idx] = setTag(lines[idx], re, tag)
	return strings.Join(lines, "\n"), nil
}

// Toggle marks the task done or, when it carries a recurrence, advances its
// due date by one period and leaves it open. The advance base is the current
// due date, or today when none is set. A body without taskID is returned
// unchanged.
func Toggle(body, taskID string, today time.Time) (string, error) {
	lines := strings.Split(body, "\n")
	idx := findTaskLine(lines, taskID)
	if idx < 0 {
		return body, nil
	}

	line := strings.TrimRight(lines[idx], "\r")
	cr := ""
	if line != lines[idx] {
		cr = "\r"
	}

	m := checkboxRe.FindStringSubmatch(line)
	if m == nil {
		return body, nil
	}
	indent, bullet, mark, text := m[1], m[2], m[3], m[4]

	if em := everyRe.FindStringSubmatch(text); em != nil {
		// Recurring: reschedule instead of closing.
		base := today
		if dm := dueRe.FindStringSubmatch(text); dm != nil {
			if parsed, err := time.Parse(DateLayout, dm[1]); err == nil {
				base = parsed
			}
		}
		var next time.Time
		switch models.Recurrence(em[1]) {
		case models.EveryDay:
			next = base.AddDate(0, 0, 1)
		case models.EveryWeek:
			next = base.AddDate(0, 0, 7)
		case models.EveryMonth:
			next = base.AddDate(0, 1, 0)
		}
		text = setTag(text, dueRe, fmt.Sprintf("@due(%s)", next.Format(DateLayout)))
		mark = " "
	} else {
		if mark == " " {
			mark = "x"
		} else {
			mark = " "
		}
	}

	lines[idx] = fmt.Sprintf("%s%s [%s] %s%s", indent, bullet, mark, text, cr)
	return strings.Join(lines, "\n"), nil
}

// ConvertCheckbox turns the plain checkbox at the given line index into a
// task by appending a fresh identifier tag. It refuses lines that are not
// checkboxes or that already carry an identifier. Empty checkbox text gets
// the placeholder title.
func ConvertCheckbox(body string, lineNo int) (newBody, taskID string, err error) {
	lines := strings.Split(body, "\n")
	if lineNo < 0 || lineNo >= len(lines) {
		return body, "", fmt.Errorf("task: line %d out of range", lineNo)
	}

	line := strings.TrimRight(lines[lineNo], "\r")
	cr := ""
	if line != lines[lineNo] {
		cr = "\r"
	}

	m := checkboxRe.FindStringSubmatch(line)
	if m == nil {
		return body, "", fmt.Errorf("task: line %d is not a checkbox", lineNo)
	}
	if idTagRe.MatchString(m[4]) {
		return body, "", fmt.Errorf("task: line %d is already a task", lineNo)
	}

	text := strings.TrimRight(m[4], " \t")
	if strings.TrimSpace(text) == "" {
		text = PlaceholderTitle
	}

	id := NewID()
	lines[lineNo] = fmt.Sprintf("%s%s [%s] %s @task(%s)%s", m[1], m[2], m[3], text, id, cr)
	return strings.Join(lines, "\n"), id, nil
}

// findTaskLine returns the index of the line carrying taskID's identifier
// tag, or -1. Matching is anchored to the exact tag, not a substring of it.
func findTaskLine(lines []string, taskID string) int {
	tag := "@task(" + taskID + ")"
	for i, line := range lines {
		if strings.Contains(line, tag) {
			return i
		}
	}
	return -1
}

// setTag replaces the first match of re on the line with tag, appends tag at
// the end when absent, or removes the match (collapsing whitespace) when tag
// is empty.
func setTag(line string, re *regexp.Regexp, tag string) string {
	trimmed := strings.TrimRight(line, "\r")
	cr := ""
	if trimmed != line {
		cr = "\r"
	}

	switch {
	case tag == "":
		trimmed = re.ReplaceAllString(trimmed, "")
		trimmed = spacesRe.ReplaceAllString(trimmed, " ")
		trimmed = strings.TrimRight(trimmed, " \t")
	case re.MatchString(trimmed):
		replaced := false
		trimmed = re.ReplaceAllStringFunc(trimmed, func(old string) string {
			if replaced {
				return old
			}
			replaced = true
			return tag
		})
	default:
		trimmed = strings.TrimRight(trimmed, " \t") + " " + tag
	}
	return trimmed + cr
}
