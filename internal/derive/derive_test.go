package derive

import (
	"strings"
	"testing"
)

func TestMeaningful(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"", false},
		{"   \n\t\n", false},
		{"# ", false},
		{"- [ ] ", false},
		{"> \n## \n* ", false},
		{"- [ ] @task(aaaa1111) @due(2026-01-01)", false},
		{"hello", true},
		{"\n\n# Title", true},
		{"- [ ] buy milk", true},
		{"> - [ ] nested note", true},
	}
	for _, c := range cases {
		if got := Meaningful(c.body); got != c.want {
			t.Errorf("Meaningful(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

func TestTitle_FirstContentLine(t *testing.T) {
	body := "\n\n## Grocery run\nmilk, eggs\n"
	if got := Title(body, 0); got != "Grocery run" {
		t.Errorf("title = %q", got)
	}
}

func TestTitle_StripsCheckboxAndTags(t *testing.T) {
	body := "- [x] Call the plumber @task(aaaa1111) @priority(high)\n"
	if got := Title(body, 0); got != "Call the plumber" {
		t.Errorf("title = %q", got)
	}
}

func TestTitle_StackedMarkers(t *testing.T) {
	if got := Title("> - [ ] quoted item\n", 0); got != "quoted item" {
		t.Errorf("title = %q", got)
	}
}

func TestTitle_Truncation(t *testing.T) {
	body := strings.Repeat("é", 100)
	got := Title(body, 10)
	if got != strings.Repeat("é", 10)+"…" {
		t.Errorf("title = %q", got)
	}
}

func TestTitle_Empty(t *testing.T) {
	if got := Title("# \n- [ ] \n", 0); got != "" {
		t.Errorf("title = %q, want empty", got)
	}
}

func TestSearchKey(t *testing.T) {
	body := "# Weekend Plans\n- [ ] Mow the LAWN @task(aaaa1111)\n\nCall Anna.\n"
	want := "weekend plans mow the lawn call anna."
	if got := SearchKey(body); got != want {
		t.Errorf("search key = %q, want %q", got, want)
	}
}
