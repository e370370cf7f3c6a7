// Package project manages project folders under notes/projects. Each
// project is a directory carrying a .project.json metadata file.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homebase-app/homebase/internal/apperr"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/vault"
)

const metaFile = ".project.json"

// StatusActive is the status assigned to newly created projects.
const StatusActive = "active"

// Service manages project folders inside a vault.
type Service struct {
	fs *vault.FS
}

// NewService creates a project service over the given vault.
func NewService(fs *vault.FS) *Service {
	return &Service{fs: fs}
}

type meta struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

func (s *Service) projectsRoot() string {
	return filepath.Join(s.fs.Root(), filepath.FromSlash(vault.DirProjects))
}

func (s *Service) relPath(abs string) string {
	rel, _ := filepath.Rel(s.fs.Root(), abs)
	return filepath.ToSlash(rel)
}

func readMeta(path string) (meta, error) {
	var m meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("project: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("project: invalid metadata %s: %w", path, err)
	}
	return m, nil
}

func writeMeta(path string, m meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("project: marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("project: write metadata: %w", err)
	}
	return nil
}

// list returns every project folder with parseable metadata.
func (s *Service) list() (map[string]string, []models.Project, error) {
	entries, err := os.ReadDir(s.projectsRoot())
	if err != nil {
		return nil, nil, fmt.Errorf("project: read projects dir: %w", err)
	}
	folders := make(map[string]string) // project id -> abs folder path
	var out []models.Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		folder := filepath.Join(s.projectsRoot(), e.Name())
		m, err := readMeta(filepath.Join(folder, metaFile))
		if err != nil {
			continue // folders without valid metadata are not projects
		}
		folders[m.ID] = folder
		out = append(out, models.Project{
			ID:       m.ID,
			Name:     m.Name,
			Status:   m.Status,
			Created:  m.Created,
			Modified: m.Modified,
			Path:     s.relPath(folder),
		})
	}
	return folders, out, nil
}

// List returns all projects sorted by name.
func (s *Service) List() ([]models.Project, error) {
	_, out, err := s.list()
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if out == nil {
		out = []models.Project{}
	}
	return out, nil
}

// Create makes a new project folder with a slugified name, suffixing a
// short id on collision.
func (s *Service) Create(name string) (models.Project, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	id := uuid.New().String()

	slug := vault.Slugify(name)
	folder := filepath.Join(s.projectsRoot(), slug)
	if _, err := os.Stat(folder); err == nil {
		folder = filepath.Join(s.projectsRoot(), slug+"-"+vault.ShortID(uuid.New().String())[:6])
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return models.Project{}, fmt.Errorf("project: create folder: %w", err)
	}

	m := meta{ID: id, Name: name, Status: StatusActive, Created: now, Modified: now}
	if err := writeMeta(filepath.Join(folder, metaFile), m); err != nil {
		return models.Project{}, err
	}
	return models.Project{
		ID: id, Name: name, Status: StatusActive,
		Created: now, Modified: now, Path: s.relPath(folder),
	}, nil
}

// Update changes a project's name and/or status. Renaming also moves the
// folder to match the new slug.
func (s *Service) Update(id string, name, status *string) (models.Project, error) {
	folders, _, err := s.list()
	if err != nil {
		return models.Project{}, err
	}
	folder, ok := folders[id]
	if !ok {
		return models.Project{}, fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}

	m, err := readMeta(filepath.Join(folder, metaFile))
	if err != nil {
		return models.Project{}, err
	}
	if name != nil {
		m.Name = *name
	}
	if status != nil {
		m.Status = *status
	}
	m.Modified = time.Now().UTC().Format(time.RFC3339)

	if name != nil {
		desired := filepath.Join(s.projectsRoot(), vault.Slugify(m.Name))
		if desired != folder {
			if _, err := os.Stat(desired); err == nil {
				desired = desired + "-" + vault.ShortID(uuid.New().String())[:6]
			}
			if err := os.Rename(folder, desired); err != nil {
				return models.Project{}, fmt.Errorf("project: rename folder: %w", err)
			}
			folder = desired
		}
	}

	if err := writeMeta(filepath.Join(folder, metaFile), m); err != nil {
		return models.Project{}, err
	}
	return models.Project{
		ID: m.ID, Name: m.Name, Status: m.Status,
		Created: m.Created, Modified: m.Modified, Path: s.relPath(folder),
	}, nil
}
