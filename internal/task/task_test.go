package task

import (
	"strings"
	"testing"
	"time"

	"github.com/homebase-app/homebase/internal/models"
)

func TestParseLine_FullTagSet(t *testing.T) {
	line := "- [ ] Pay rent @task(9f2c41aa) @due(2026-09-01) @priority(high) @every(month) @order(2)"
	task, ok := ParseLine(line, 3)
	if !ok {
		t.Fatal("expected a task")
	}
	if task.ID != "9f2c41aa" {
		t.Errorf("id = %q", task.ID)
	}
	if task.Title != "Pay rent" {
		t.Errorf("title = %q", task.Title)
	}
	if task.Due != "2026-09-01" || task.Priority != models.PriorityHigh || task.Recurrence != models.EveryMonth {
		t.Errorf("metadata = %q %q %q", task.Due, task.Priority, task.Recurrence)
	}
	if task.Order == nil || *task.Order != 2 {
		t.Errorf("order = %v", task.Order)
	}
	if task.Line != 3 || task.Done {
		t.Errorf("line = %d done = %v", task.Line, task.Done)
	}
}

func TestParseLine_PlainCheckboxIsNotATask(t *testing.T) {
	if _, ok := ParseLine("- [ ] buy milk", 0); ok {
		t.Error("untagged checkbox must not parse as a task")
	}
	if _, ok := ParseLine("just prose with @task(abcd1234) inline", 0); ok {
		t.Error("non-checkbox line must not parse as a task")
	}
}

func TestParseLine_DoneMark(t *testing.T) {
	task, ok := ParseLine("  * [X] Done thing @task(abcd1234)", 0)
	if !ok || !task.Done {
		t.Errorf("ok = %v, done = %v", ok, task.Done)
	}
}

func TestParseTasks_LineOrder(t *testing.T) {
	body := "intro\n- [ ] first @task(aaaa1111)\nprose\n- [x] second @task(bbbb2222)\n- [ ] plain\n"
	tasks := ParseTasks(body)
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "aaaa1111" || tasks[0].Line != 1 {
		t.Errorf("first = %+v", tasks[0])
	}
	if tasks[1].ID != "bbbb2222" || tasks[1].Line != 3 {
		t.Errorf("second = %+v", tasks[1])
	}
}

func TestBuildLine_ParseRoundTrip(t *testing.T) {
	order := 5
	line := BuildLine("Water the plants", Attrs{
		ID: "cafe0123", Due: "2026-02-01",
		Priority: models.PriorityUrgent, Recurrence: models.EveryWeek, Order: &order,
	})
	want := "- [ ] Water the plants @task(cafe0123) @due(2026-02-01) @priority(urgent) @every(week) @order(5)"
	if line != want {
		t.Errorf("line = %q\nwant  %q", line, want)
	}
	task, ok := ParseLine(line, 0)
	if !ok || task.Title != "Water the plants" || task.Due != "2026-02-01" {
		t.Errorf("round trip lost data: %+v", task)
	}
}

func TestBuildLine_Defaults(t *testing.T) {
	line := BuildLine("   ", Attrs{})
	if !strings.Contains(line, PlaceholderTitle) {
		t.Errorf("empty title should get placeholder: %q", line)
	}
	if !idTagRe.MatchString(line) {
		t.Errorf("missing generated id: %q", line)
	}
}

func TestStripMetadata_Idempotent(t *testing.T) {
	text := "Pay  rent @task(9f2c41aa) @due(2026-09-01)  @priority(high)"
	once := StripMetadata(text)
	if once != "Pay rent" {
		t.Errorf("stripped = %q", once)
	}
	if StripMetadata(once) != once {
		t.Error("StripMetadata is not idempotent")
	}
}

func TestUpdateField_ReplaceAppendRemove(t *testing.T) {
	body := "- [ ] Pay rent @task(9f2c41aa) @due(2026-09-01)\n- [ ] other @task(bbbb2222)\n"

	v := "2026-10-01"
	got, err := UpdateField(body, "9f2c41aa", FieldDue, &v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "@due(2026-10-01)") || strings.Contains(got, "@due(2026-09-01)") {
		t.Errorf("replace failed: %q", got)
	}

	p := "low"
	got, err = UpdateField(got, "9f2c41aa", FieldPriority, &p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "- [ ] Pay rent @task(9f2c41aa) @due(2026-10-01) @priority(low)") {
		t.Errorf("append failed: %q", got)
	}

	got, err = UpdateField(got, "9f2c41aa", FieldDue, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "@due") {
		t.Errorf("remove failed: %q", got)
	}
	// The other task's line is untouched throughout.
	if !strings.Contains(got, "- [ ] other @task(bbbb2222)") {
		t.Errorf("unrelated line changed: %q", got)
	}
}

func TestUpdateField_UnknownTaskIsNoOp(t *testing.T) {
	body := "- [ ] thing @task(aaaa1111)\n"
	v := "2026-01-01"
	got, err := UpdateField(body, "ffffffff", FieldDue, &v)
	if err != nil {
		t.Fatal(err)
	}
	if got != body {
		t.Errorf("body changed for unknown task: %q", got)
	}
}

func TestUpdateField_RejectsInvalidValue(t *testing.T) {
	body := "- [ ] thing @task(aaaa1111)\n"
	v := "whenever"
	if _, err := UpdateField(body, "aaaa1111", FieldDue, &v); err == nil {
		t.Error("invalid due value should error")
	}
	if _, err := UpdateField(body, "aaaa1111", "color", &v); err == nil {
		t.Error("unknown field should error")
	}
}

func TestToggle_PlainFlip(t *testing.T) {
	body := "- [ ] thing @task(aaaa1111)\n"
	got, err := Toggle(body, "aaaa1111", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "- [x]") {
		t.Errorf("not marked done: %q", got)
	}
	got, err = Toggle(got, "aaaa1111", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "- [ ]") {
		t.Errorf("not reopened: %q", got)
	}
}

func TestToggle_WeeklyRecurrenceAdvancesDue(t *testing.T) {
	body := "- [ ] water plants @task(aaaa1111) @due(2026-01-01) @every(week)\n"
	got, err := Toggle(body, "aaaa1111", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "@due(2026-01-08)") {
		t.Errorf("due not advanced a week: %q", got)
	}
	if !strings.HasPrefix(got, "- [ ]") {
		t.Errorf("recurring task must stay open: %q", got)
	}
}

func TestToggle_RecurrenceWithoutDueUsesToday(t *testing.T) {
	body := "- [ ] daily thing @task(aaaa1111) @every(day)\n"
	today := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	got, err := Toggle(body, "aaaa1111", today)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "@due(2026-03-01)") {
		t.Errorf("due should be tomorrow: %q", got)
	}
}

func TestToggle_MonthlyRecurrence(t *testing.T) {
	body := "- [ ] rent @task(aaaa1111) @due(2026-01-31) @every(month)\n"
	got, err := Toggle(body, "aaaa1111", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	// AddDate normalizes Jan 31 + 1 month to Mar 3 (2026 is not a leap year).
	if !strings.Contains(got, "@due(2026-03-03)") {
		t.Errorf("monthly advance = %q", got)
	}
}

func TestConvertCheckbox(t *testing.T) {
	body := "notes\n- [ ] buy milk\n"
	got, id, err := ConvertCheckbox(body, 1)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || !strings.Contains(got, "- [ ] buy milk @task("+id+")") {
		t.Errorf("convert = %q, id = %q", got, id)
	}
}

func TestConvertCheckbox_EmptyTextGetsPlaceholder(t *testing.T) {
	got, _, err := ConvertCheckbox("- [ ] ", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, PlaceholderTitle) {
		t.Errorf("got %q", got)
	}
}

func TestConvertCheckbox_Rejections(t *testing.T) {
	if _, _, err := ConvertCheckbox("prose line\n", 0); err == nil {
		t.Error("non-checkbox should be rejected")
	}
	if _, _, err := ConvertCheckbox("- [ ] already @task(aaaa1111)\n", 0); err == nil {
		t.Error("already-tagged line should be rejected")
	}
	if _, _, err := ConvertCheckbox("- [ ] x\n", 9); err == nil {
		t.Error("out-of-range line should be rejected")
	}
}
