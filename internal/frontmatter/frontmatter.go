// Package frontmatter encodes and decodes the YAML header block that
// precedes every note body. Decoding is lenient: a missing or malformed
// header degrades to an empty field set and never returns an error, because
// user-authored Markdown must always be openable.
package frontmatter

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Fields is an ordered, loosely typed key/value map. Order is the document
// order of the YAML header, so re-encoding a note keeps the keys where the
// user (or a previous write) put them.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Len returns the number of keys.
func (f *Fields) Len() int { return len(f.keys) }

// Keys returns the keys in document order.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the value for key and whether it is present.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores a value, keeping the key's existing position or appending it.
func (f *Fields) Set(key string, v any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Delete removes a key if present.
func (f *Fields) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Decode splits raw note text into front-matter fields and body.
//
// A header is recognized only when the text (after stripping a UTF-8 BOM)
// starts with a line consisting solely of three dashes, followed by a YAML
// block and a closing three-dash line. Anything else, including invalid
// YAML between valid delimiters, makes the entire input the body.
func Decode(data []byte) (*Fields, string) {
	text := strings.TrimPrefix(string(data), "\ufeff")

	if text != delim && !strings.HasPrefix(text, delim+"\n") && !strings.HasPrefix(text, delim+"\r\n") {
		return NewFields(), text
	}
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		return NewFields(), text
	}
	rest := text[nl+1:]

	// Scan for the closing delimiter line.
	closing, bodyStart := -1, 0
	offset := 0
	for offset <= len(rest) {
		lineEnd := strings.IndexByte(rest[offset:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = rest[offset:]
			next = len(rest) + 1
		} else {
			line = rest[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		if strings.TrimRight(line, "\r") == delim {
			closing = offset
			bodyStart = next
			break
		}
		offset = next
	}
	if closing < 0 {
		return NewFields(), text
	}

	fields, ok := unmarshalFields([]byte(rest[:closing]))
	if !ok {
		return NewFields(), text
	}

	body := ""
	if bodyStart <= len(rest) {
		body = rest[bodyStart:]
	}
	// Encode emits exactly one blank separator line; strip it back off so
	// the body round-trips byte for byte.
	body = strings.TrimPrefix(body, "\n")
	return fields, body
}

// unmarshalFields decodes a YAML mapping preserving key order.
func unmarshalFields(block []byte) (*Fields, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// Empty header block is fine: no fields.
		return NewFields(), true
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, false
	}
	fields := NewFields()
	for i := 0; i+1 < len(root.Content); i += 2 {
		var v any
		if err := root.Content[i+1].Decode(&v); err != nil {
			return nil, false
		}
		fields.Set(root.Content[i].Value, v)
	}
	return fields, true
}

// Encode serializes fields and body into note file text: one header, one
// blank line, then the body. Runs of three or more trailing newlines in the
// body collapse to exactly two. With no fields, the body alone is returned.
func Encode(fields *Fields, body string) string {
	for strings.HasSuffix(body, "\n\n\n") {
		body = body[:len(body)-1]
	}
	if fields == nil || fields.Len() == 0 {
		return body
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range fields.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(fields.values[key]); err != nil {
			// Unencodable values degrade to null rather than failing the write.
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		mapping.Content = append(mapping.Content, keyNode, valNode)
	}

	block, err := yaml.Marshal(mapping)
	if err != nil {
		return body
	}

	var b strings.Builder
	b.WriteString(delim)
	b.WriteByte('\n')
	b.Write(block)
	b.WriteString(delim)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String()
}

// Meta is the strongly typed subset of front-matter fields the rest of the
// system relies on.
type Meta struct {
	ID         string
	Created    time.Time
	Modified   time.Time
	Projects   []string
	Topics     []string
	UserPlaced bool
}

// ExtractMeta pulls the typed fields out of a loose field set. Coercion is
// lenient: list fields that are not sequences become empty lists, timestamps
// that do not parse become now.
func ExtractMeta(f *Fields, now time.Time) Meta {
	m := Meta{
		Created:  now,
		Modified: now,
		Projects: []string{},
		Topics:   []string{},
	}
	if f == nil {
		return m
	}
	if v, ok := f.Get("id"); ok {
		if s, ok := v.(string); ok {
			m.ID = strings.TrimSpace(s)
		}
	}
	m.Created = coerceTime(f, "created", now)
	m.Modified = coerceTime(f, "modified", now)
	m.Projects = coerceStringList(f, "projects")
	m.Topics = coerceStringList(f, "topics")
	if v, ok := f.Get("user_placed"); ok {
		if b, ok := v.(bool); ok {
			m.UserPlaced = b
		}
	}
	return m
}

// ApplyMeta writes the typed fields back into a loose field set, keeping
// existing key positions and appending missing keys in canonical order
// (id, created, modified, projects, topics, user_placed).
func ApplyMeta(f *Fields, m Meta) {
	f.Set("id", m.ID)
	f.Set("created", m.Created.Format(time.RFC3339))
	f.Set("modified", m.Modified.Format(time.RFC3339))
	f.Set("projects", nonNil(m.Projects))
	f.Set("topics", nonNil(m.Topics))
	f.Set("user_placed", m.UserPlaced)
}

func coerceTime(f *Fields, key string, now time.Time) time.Time {
	v, ok := f.Get(key)
	if !ok {
		return now
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed
		}
	}
	return now
}

func coerceStringList(f *Fields, key string) []string {
	out := []string{}
	v, ok := f.Get(key)
	if !ok {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
