package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/project"
	"github.com/homebase-app/homebase/internal/store"
	"github.com/homebase-app/homebase/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(st *store.Store, projects *project.Service, idx index.NoteIndex, fs *vault.FS, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(st, projects, idx, fs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Put("/notes/{id}/body", h.UpdateNoteBody)
	r.Post("/notes/{id}/move", h.MoveNote)
	r.Post("/notes/{id}/archive", h.ArchiveNote)
	r.Delete("/notes/{id}/error", h.ClearNoteError)

	// Draft (at most one).
	r.Post("/draft", h.CreateDraft)
	r.Get("/draft", h.GetDraft)
	r.Put("/draft/body", h.UpdateDraftBody)

	// Tasks.
	r.Get("/notes/{id}/tasks", h.ListNoteTasks)
	r.Post("/notes/{id}/tasks", h.AddTask)
	r.Post("/notes/{id}/tasks/convert", h.ConvertTask)
	r.Patch("/notes/{id}/tasks/{taskID}", h.UpdateTask)
	r.Post("/notes/{id}/tasks/{taskID}/toggle", h.ToggleTask)
	r.Get("/tasks", h.ListOpenTasks)

	// Search.
	r.Get("/search", h.Search)

	// Projects.
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Patch("/projects/{id}", h.UpdateProject)

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Patch("/folders", h.RenameFolder)
	r.Delete("/folders", h.DeleteFolder)

	// Health.
	r.Get("/health", h.Health)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
