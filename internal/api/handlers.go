package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homebase-app/homebase/internal/apperr"
	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/models"
	"github.com/homebase-app/homebase/internal/project"
	"github.com/homebase-app/homebase/internal/store"
	"github.com/homebase-app/homebase/internal/task"
	"github.com/homebase-app/homebase/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	store    *store.Store
	projects *project.Service
	idx      index.NoteIndex
	fs       *vault.FS
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, projects *project.Service, idx index.NoteIndex, fs *vault.FS) *Handler {
	return &Handler{store: st, projects: projects, idx: idx, fs: fs}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// writeStoreErr maps store errors onto HTTP statuses.
func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNoDraft):
		writeJSON(w, http.StatusNotFound, errorBody("no active draft"))
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, newest modified first
//	@Tags			notes
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			kind		query		string	false	"Filter by kind"	Enums(inbox, archive, project, folder, daily, other)
//	@Param			archived	query		bool	false	"Include archived notes"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kind := q.Get("kind")
	archived := q.Get("archived") == "true" || kind == string(models.KindArchive)

	notes := h.store.Notes(archived)
	if kind != "" {
		filtered := notes[:0]
		for _, n := range notes {
			if string(n.Kind) == kind {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	total := len(notes)

	if offset > len(notes) {
		offset = len(notes)
	}
	notes = notes[offset:]
	if limit > 0 && limit < len(notes) {
		notes = notes[:limit]
	}

	out := make([]NoteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, summarize(n))
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: out, Total: total})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.store.Get(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	detail := NoteDetail{Note: note}
	if msg, ok := h.store.WriteError(id); ok {
		detail.WriteError = msg
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateNoteBody handles PUT /api/notes/{id}/body.
//
//	@Summary		Replace a note's Markdown body
//	@Tags			notes
//	@Accept			json
//	@Param			id		path	string				true	"Note id"
//	@Param			body	body	UpdateBodyRequest	true	"New body"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/body [put]
func (h *Handler) UpdateNoteBody(w http.ResponseWriter, r *http.Request) {
	var req UpdateBodyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.UpdateBody(chi.URLParam(r, "id"), req.Body); err != nil {
		writeStoreErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateNote handles PATCH /api/notes/{id}: topic and project metadata.
//
//	@Summary		Update note topics and project links
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.Topics != nil {
		if err := h.store.SetTopics(id, *req.Topics); err != nil {
			writeStoreErr(w, err)
			return
		}
	}
	if req.Projects != nil {
		if err := h.store.SetProjects(id, *req.Projects); err != nil {
			writeStoreErr(w, err)
			return
		}
	}
	note, err := h.store.Get(id)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// MoveNote handles POST /api/notes/{id}/move.
//
//	@Summary		Move a note into another vault directory
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		MoveNoteRequest	true	"Target directory"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/move [post]
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !vault.ValidTargetDir(req.TargetDir) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid target directory"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.Move(id, req.TargetDir); err != nil {
		writeStoreErr(w, err)
		return
	}
	note, _ := h.store.Get(id)
	writeJSON(w, http.StatusOK, note)
}

// ArchiveNote handles POST /api/notes/{id}/archive.
//
//	@Summary		Archive a note, preserving its sub-path
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/archive [post]
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Archive(id); err != nil {
		writeStoreErr(w, err)
		return
	}
	note, _ := h.store.Get(id)
	writeJSON(w, http.StatusOK, note)
}

// ClearNoteError handles DELETE /api/notes/{id}/error.
//
//	@Summary		Dismiss a recorded write failure for a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/notes/{id}/error [delete]
func (h *Handler) ClearNoteError(w http.ResponseWriter, r *http.Request) {
	h.store.ClearWriteError(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// CreateDraft handles POST /api/draft.
//
//	@Summary		Return the active draft, or allocate a new one
//	@Tags			draft
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDraftRequest	false	"Target directory"
//	@Success		200		{object}	models.Draft
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft [post]
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	if req.TargetDir != "" && !vault.ValidTargetDir(req.TargetDir) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid target directory"))
		return
	}
	draft, err := h.store.CreateDraft(req.TargetDir)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// GetDraft handles GET /api/draft.
//
//	@Summary		Get the active draft
//	@Tags			draft
//	@Produce		json
//	@Success		200	{object}	DraftDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft [get]
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.store.Draft()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no active draft"))
		return
	}
	detail := DraftDetail{Draft: draft}
	if msg, failed := h.store.DraftError(); failed {
		detail.Error = msg
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateDraftBody handles PUT /api/draft/body.
//
//	@Summary		Replace the draft body
//	@Tags			draft
//	@Accept			json
//	@Param			body	body	UpdateBodyRequest	true	"New body"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft/body [put]
func (h *Handler) UpdateDraftBody(w http.ResponseWriter, r *http.Request) {
	var req UpdateBodyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.UpdateDraftBody(req.Body); err != nil {
		writeStoreErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNoteTasks handles GET /api/notes/{id}/tasks.
//
//	@Summary		List the tasks embedded in a note, in line order
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	TaskListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tasks [get]
func (h *Handler) ListNoteTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.Tasks(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// AddTask handles POST /api/notes/{id}/tasks.
//
//	@Summary		Append a new task line to a note
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		AddTaskRequest	true	"Task to add"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tasks [post]
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	attrs := task.Attrs{
		Due:        req.Due,
		Priority:   models.Priority(req.Priority),
		Recurrence: models.Recurrence(req.Recurrence),
	}
	if req.Priority != "" && !models.ValidPriority(attrs.Priority) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid priority"))
		return
	}
	if req.Recurrence != "" && !models.ValidRecurrence(attrs.Recurrence) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid recurrence"))
		return
	}
	taskID, err := h.store.AddTask(chi.URLParam(r, "id"), req.Title, attrs)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"task_id": taskID})
}

// UpdateTask handles PATCH /api/notes/{id}/tasks/{taskID}: one metadata
// field, cleared when value is null.
//
//	@Summary		Set or clear one task metadata field
//	@Tags			tasks
//	@Accept			json
//	@Param			id		path	string				true	"Note id"
//	@Param			taskID	path	string				true	"Task id"
//	@Param			body	body	UpdateTaskRequest	true	"Field and value"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tasks/{taskID} [patch]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.store.UpdateTaskField(chi.URLParam(r, "id"), chi.URLParam(r, "taskID"), req.Field, req.Value)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeStoreErr(w, err)
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask handles POST /api/notes/{id}/tasks/{taskID}/toggle.
//
//	@Summary		Complete a task, or advance its due date when it recurs
//	@Tags			tasks
//	@Param			id		path	string	true	"Note id"
//	@Param			taskID	path	string	true	"Task id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tasks/{taskID}/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ToggleTask(chi.URLParam(r, "id"), chi.URLParam(r, "taskID")); err != nil {
		writeStoreErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConvertTask handles POST /api/notes/{id}/tasks/convert: promotes a plain
// checkbox line into a tracked task.
//
//	@Summary		Promote a plain checkbox line into a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		ConvertTaskRequest	true	"Line number"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tasks/convert [post]
func (h *Handler) ConvertTask(w http.ResponseWriter, r *http.Request) {
	var req ConvertTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	taskID, err := h.store.ConvertTask(chi.URLParam(r, "id"), req.Line)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeStoreErr(w, err)
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"task_id": taskID})
}

// ListOpenTasks handles GET /api/tasks: open tasks across the vault.
//
//	@Summary		List open tasks across all notes, due date first
//	@Tags			tasks
//	@Produce		json
//	@Param			due_before	query		string	false	"Only tasks due on or before this date (YYYY-MM-DD)"
//	@Param			limit		query		int		false	"Max results"
//	@Success		200			{object}	map[string][]index.TaskRow
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListOpenTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	tasks, err := h.idx.OpenTasks(q.Get("due_before"), limit)
	if err != nil {
		slog.Error("open tasks failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if tasks == nil {
		tasks = []index.TaskRow{}
	}
	writeJSON(w, http.StatusOK, map[string][]index.TaskRow{"tasks": tasks})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over note titles and bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string][]index.SearchResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	results, err := h.idx.Search(query, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string][]index.SearchResult{"results": results})
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects sorted by name
//	@Tags			projects
//	@Produce		json
//	@Success		200	{array}	models.Project
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List()
	if err != nil {
		slog.Error("list projects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a new project folder
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project name"
//	@Success		201		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	p, err := h.projects.Create(req.Name)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PATCH /api/projects/{id}.
//
//	@Summary		Rename a project or change its status
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Project id"
//	@Param			body	body		UpdateProjectRequest	true	"Fields to change"
//	@Success		200		{object}	models.Project
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [patch]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.projects.Update(chi.URLParam(r, "id"), req.Name, req.Status)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListFolders handles GET /api/folders.
//
//	@Summary		List user folders under notes/folders
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.fs.ListFolders()
	if err != nil {
		slog.Error("list folders failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"folders": folders})
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder under notes/folders
//	@Tags			folders
//	@Accept			json
//	@Param			body	body	FolderRequest	true	"Folder path"
//	@Success		201
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.fs.CreateFolder(req.Path); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("folder already exists"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RenameFolder handles PATCH /api/folders.
//
//	@Summary		Rename a folder under notes/folders
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FolderRequest	true	"Folder path and new name"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [patch]
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ToName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("to_name is required"))
		return
	}
	newPath, err := h.fs.RenameFolder(req.Path, req.ToName)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": newPath})
}

// DeleteFolder handles DELETE /api/folders: empty folders only.
//
//	@Summary		Delete an empty folder under notes/folders
//	@Tags			folders
//	@Param			path	query	string	true	"Folder path"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.fs.DeleteFolder(path); err != nil {
		writeStoreErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func summarize(n models.Note) NoteSummary {
	return NoteSummary{
		ID:         n.ID,
		Path:       n.Path,
		Kind:       n.Kind,
		Title:      n.Title,
		Created:    n.Created,
		Modified:   n.Modified,
		Projects:   n.Projects,
		Topics:     n.Topics,
		UserPlaced: n.UserPlaced,
	}
}
