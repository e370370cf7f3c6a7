package frontmatter

import (
	"strings"
	"testing"
	"time"
)

func TestDecode_HeaderAndBody(t *testing.T) {
	input := []byte("---\nid: abc-123\ntopics:\n  - garden\n  - home\n---\n\n# Hello\nBody text.\n")
	fields, body := Decode(input)
	if v, _ := fields.Get("id"); v != "abc-123" {
		t.Errorf("id = %v, want abc-123", v)
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
	topics, _ := fields.Get("topics")
	items, ok := topics.([]any)
	if !ok || len(items) != 2 || items[0] != "garden" {
		t.Errorf("topics = %v", topics)
	}
}

func TestDecode_NoHeader(t *testing.T) {
	fields, body := Decode([]byte("# Just a heading\nSome text.\n"))
	if fields.Len() != 0 {
		t.Errorf("expected no fields, got %v", fields.Keys())
	}
	if body != "# Just a heading\nSome text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecode_InvalidYAMLFallsBackToBody(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	fields, body := Decode([]byte(input))
	if fields.Len() != 0 {
		t.Errorf("expected no fields on invalid YAML")
	}
	if body != input {
		t.Errorf("body = %q, want the whole input", body)
	}
}

func TestDecode_UnclosedHeaderIsBody(t *testing.T) {
	input := "---\nid: abc\nno closing fence\n"
	fields, body := Decode([]byte(input))
	if fields.Len() != 0 || body != input {
		t.Errorf("fields = %v, body = %q", fields.Keys(), body)
	}
}

func TestDecode_StripsBOM(t *testing.T) {
	input := []byte("\ufeff---\nid: abc\n---\n\nBody\n")
	fields, _ := Decode(input)
	if v, _ := fields.Get("id"); v != "abc" {
		t.Errorf("id = %v, BOM should be stripped before the header check", v)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	fields := NewFields()
	fields.Set("id", "abc-123")
	fields.Set("user_placed", true)
	body := "First line.\n\nSecond paragraph.\n"

	encoded := Encode(fields, body)
	fields2, body2 := Decode([]byte(encoded))

	if body2 != body {
		t.Errorf("body = %q, want %q", body2, body)
	}
	if v, _ := fields2.Get("id"); v != "abc-123" {
		t.Errorf("id = %v", v)
	}
	if v, _ := fields2.Get("user_placed"); v != true {
		t.Errorf("user_placed = %v", v)
	}
	// Second encode must be byte-identical: no drift across save cycles.
	if again := Encode(fields2, body2); again != encoded {
		t.Errorf("re-encode drifted:\n%q\nvs\n%q", again, encoded)
	}
}

func TestEncode_PreservesKeyOrder(t *testing.T) {
	input := []byte("---\nzebra: 1\nalpha: 2\nmango: 3\n---\n\nBody\n")
	fields, body := Decode(input)
	got := Encode(fields, body)
	zi := strings.Index(got, "zebra")
	ai := strings.Index(got, "alpha")
	mi := strings.Index(got, "mango")
	if !(zi < ai && ai < mi) {
		t.Errorf("key order not preserved:\n%s", got)
	}
}

func TestEncode_NoFieldsReturnsBody(t *testing.T) {
	if got := Encode(NewFields(), "plain body\n"); got != "plain body\n" {
		t.Errorf("got %q", got)
	}
}

func TestEncode_CollapsesTrailingNewlines(t *testing.T) {
	fields := NewFields()
	fields.Set("id", "x")
	got := Encode(fields, "text\n\n\n\n")
	if !strings.HasSuffix(got, "text\n\n") || strings.HasSuffix(got, "text\n\n\n") {
		t.Errorf("trailing newlines not collapsed to two: %q", got)
	}
}

func TestFields_SetKeepsPosition(t *testing.T) {
	f := NewFields()
	f.Set("a", 1)
	f.Set("b", 2)
	f.Set("a", 3)
	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
	if v, _ := f.Get("a"); v != 3 {
		t.Errorf("a = %v", v)
	}
}

func TestExtractMeta_Lenient(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fields, _ := Decode([]byte("---\nid: note-1\ncreated: not-a-date\nprojects: oops\n---\n\nx\n"))
	m := ExtractMeta(fields, now)
	if m.ID != "note-1" {
		t.Errorf("id = %q", m.ID)
	}
	if !m.Created.Equal(now) {
		t.Errorf("bad created should coerce to now, got %v", m.Created)
	}
	if len(m.Projects) != 0 {
		t.Errorf("non-list projects should coerce to empty, got %v", m.Projects)
	}
}

func TestExtractMeta_ParsesTimes(t *testing.T) {
	now := time.Now()
	fields, _ := Decode([]byte("---\ncreated: \"2026-01-15T09:30:00Z\"\nmodified: \"2026-02-01\"\n---\n\nx\n"))
	m := ExtractMeta(fields, now)
	if m.Created.Year() != 2026 || m.Created.Hour() != 9 {
		t.Errorf("created = %v", m.Created)
	}
	if m.Modified.Month() != time.February {
		t.Errorf("modified = %v", m.Modified)
	}
}

func TestApplyMeta_PreservesForeignKeys(t *testing.T) {
	fields, _ := Decode([]byte("---\ncustom: keepme\nid: old\n---\n\nx\n"))
	ApplyMeta(fields, Meta{ID: "new", Created: time.Now(), Modified: time.Now()})
	if v, _ := fields.Get("custom"); v != "keepme" {
		t.Errorf("custom field lost: %v", v)
	}
	if v, _ := fields.Get("id"); v != "new" {
		t.Errorf("id = %v", v)
	}
	keys := fields.Keys()
	if keys[0] != "custom" || keys[1] != "id" {
		t.Errorf("existing key positions changed: %v", keys)
	}
}
