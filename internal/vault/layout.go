package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homebase-app/homebase/internal/models"
)

// Version of the on-disk vault layout.
const Version = 1

// Well-known directories relative to the vault root.
const (
	DirInbox    = "notes/inbox"
	DirArchive  = "notes/archive"
	DirFolders  = "notes/folders"
	DirProjects = "notes/projects"
	DirDaily    = "notes/daily"
)

// EnsureLayout creates the vault directory skeleton and bootstraps
// config/settings.json on first run.
func EnsureLayout(root string) error {
	dirs := []string{
		DirInbox, DirArchive, DirFolders, DirProjects, DirDaily,
		"assets", "config", ".homebase",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("vault: create %s: %w", d, err)
		}
	}

	settings := filepath.Join(root, "config", "settings.json")
	if _, err := os.Stat(settings); os.IsNotExist(err) {
		data, _ := json.MarshalIndent(map[string]any{
			"version":   Version,
			"vaultPath": root,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		}, "", "  ")
		if err := os.WriteFile(settings, data, 0o644); err != nil {
			return fmt.Errorf("vault: write settings: %w", err)
		}
	}
	return nil
}

// KindForPath classifies a relative note path by its directory prefix.
func KindForPath(rel string) models.Kind {
	switch {
	case strings.HasPrefix(rel, DirInbox+"/"):
		return models.KindInbox
	case strings.HasPrefix(rel, DirArchive+"/"):
		return models.KindArchive
	case strings.HasPrefix(rel, DirProjects+"/"):
		return models.KindProject
	case strings.HasPrefix(rel, DirFolders+"/"):
		return models.KindFolder
	case strings.HasPrefix(rel, DirDaily+"/"):
		return models.KindDaily
	default:
		return models.KindOther
	}
}

// UserPlaced reports whether a note at rel counts as placed by the user.
// Everything outside the inbox is user-placed.
func UserPlaced(rel string) bool {
	return !strings.HasPrefix(rel, DirInbox+"/")
}

// ValidTargetDir reports whether dir may receive new or moved notes.
func ValidTargetDir(dir string) bool {
	dir = strings.TrimSuffix(dir, "/")
	for _, base := range []string{DirInbox, DirFolders, DirProjects, DirDaily} {
		if dir == base || strings.HasPrefix(dir, base+"/") {
			return true
		}
	}
	return false
}

// ArchivePath maps a note path to its location under notes/archive,
// preserving the sub-path below notes/.
func ArchivePath(rel string) (string, error) {
	if strings.HasPrefix(rel, DirArchive+"/") {
		return rel, nil
	}
	if !strings.HasPrefix(rel, "notes/") {
		return "", fmt.Errorf("vault: can only archive notes under notes/: %s", rel)
	}
	return DirArchive + "/" + strings.TrimPrefix(rel, "notes/"), nil
}

// Slugify lowercases input and collapses every non-alphanumeric run into a
// single dash. Empty input slugs to "note".
func Slugify(input string) string {
	var b strings.Builder
	lastDash := false
	for _, ch := range strings.TrimSpace(strings.ToLower(input)) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "note"
	}
	return out
}

// ShortID returns the first eight characters of id with dashes removed,
// falling back to a fresh UUID short when id is empty.
func ShortID(id string) string {
	s := strings.ReplaceAll(id, "-", "")
	if s == "" {
		s = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

// FileName builds the canonical note file name: date, slugified title hint,
// id short. An empty hint yields "untitled".
func FileName(titleHint, id string, now time.Time) string {
	slug := "untitled"
	if strings.TrimSpace(titleHint) != "" {
		slug = Slugify(titleHint)
	}
	return fmt.Sprintf("%s-%s-%s.md", now.Format("2006-01-02"), slug, ShortID(id))
}
