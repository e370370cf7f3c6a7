package mcpserver

// NoteFormatContract describes the canonical note file format that LLM
// consumers should follow when reading or reasoning about vault notes.
const NoteFormatContract = `# Homebase Note Format Contract

Every Markdown note stored in a Homebase vault follows this structure.

## Structure

` + "```" + `markdown
---
id: 5f3c9e2a-1b7d-4c8e-9f0a-6d2b8c4e1a3f   # REQUIRED – stable note identity
created: 2026-01-15T09:30:00Z               # RFC 3339 UTC
modified: 2026-01-20T14:05:00Z              # RFC 3339 UTC, never moves backwards
projects: []                                # YAML list of project ids
topics: []                                  # YAML list of topic tags
user_placed: false                          # true once the user files the note
---

Body text in standard Markdown. The first non-empty line (markers
stripped) is the note's title.
` + "```" + `

## Rules

1. **YAML front matter is mandatory.** The ` + "```" + `---` + "```" + ` fences are the first
   thing in the file.
2. **` + "`" + `id` + "`" + ` is assigned once** and never regenerated; the file may be
   renamed or moved, the id stays.
3. **The body is authoritative.** Title and search text are derived from
   it, never stored separately.
4. **File names** follow ` + "`" + `YYYY-MM-DD-<slug>-<id8>.md` + "`" + ` where id8 is the
   first eight hex characters of the note id.
5. **Vault layout:** new notes land in ` + "`" + `notes/inbox/` + "`" + `; user-filed notes
   live under ` + "`" + `notes/folders/` + "`" + ` or ` + "`" + `notes/projects/<project>/` + "`" + `;
   archived notes keep their sub-path under ` + "`" + `notes/archive/` + "`" + `.
6. **Encoding** is UTF-8 with a trailing newline.

## Tasks

Tasks are checkbox lines inside the body, carrying metadata tags:

` + "```" + `markdown
- [ ] Water the plants @task(1a2b3c4d) @due(2026-02-01) @priority(high) @every(week)
- [x] Done item @task(9e8f7a6b)
- [ ] Plain checkbox without tags is NOT a tracked task
` + "```" + `

- ` + "`" + `@task(id)` + "`" + ` marks the line as a tracked task; without it the
  checkbox is inert.
- ` + "`" + `@due(YYYY-MM-DD)` + "`" + `, ` + "`" + `@priority(low|medium|high|urgent)` + "`" + `,
  ` + "`" + `@every(day|week|month)` + "`" + ` and ` + "`" + `@order(n)` + "`" + ` are optional.
- Toggling a recurring task advances its due date one period and leaves
  it open; toggling a plain task flips the checkbox.
- Canonical tag order when writing a line: task, due, priority, every, order.
`
