package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"archboard/diagram"
	"archboard/layout"
	"archboard/ops"
	"archboard/store"
	"archboard/validation"
)

const maxBodyBytes = 1 << 20

// projectResponse pairs a project with its storage ID.
type projectResponse struct {
	ID      string           `json:"id"`
	Project *diagram.Project `json:"project"`
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type layoutRequest struct {
	Algorithm string `json:"algorithm"`
	Options   struct {
		HorizontalSpacing float64 `json:"horizontalSpacing"`
		VerticalSpacing   float64 `json:"verticalSpacing"`
		Columns           int     `json:"columns"`
		SortBy            string  `json:"sortBy"`
		Radius            float64 `json:"radius"`
	} `json:"options"`
}

type chatRequest struct {
	ProjectID string `json:"projectId"`
	Message   string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// handleCreateProject handles POST /api/projects.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "Untitled Diagram"
	}

	project := diagram.NewProject(req.Name)
	id, err := s.store.SaveProject(r.Context(), "", project)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to create project")
		s.logger.Error("create project failed", zap.Error(err))
		return
	}

	s.respondJSON(w, http.StatusCreated, projectResponse{ID: id, Project: project})
}

// handleListProjects handles GET /api/projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to list projects")
		s.logger.Error("list projects failed", zap.Error(err))
		return
	}
	if infos == nil {
		infos = []store.ProjectInfo{}
	}
	s.respondJSON(w, http.StatusOK, infos)
}

// handleGetProject handles GET /api/projects/{projectID}.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: sess.Project()})
}

// handleReplaceProject handles PUT /api/projects/{projectID}. The body is a
// full project; it must pass structural validation before it is stored. The
// cached session is dropped so the replacement starts with a fresh history.
func (s *Server) handleReplaceProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	var project diagram.Project
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&project); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if errs := validation.NewValidator().Validate(&project); len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   true,
			"message": "Project failed validation",
			"details": messages,
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject unknown IDs so PUT cannot invent projects with client-chosen IDs.
	if _, err := s.store.LoadProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}

	if _, err := s.store.SaveProject(r.Context(), id, &project); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to save project")
		s.logger.Error("replace project failed", zap.Error(err))
		return
	}
	s.dropSession(id)

	s.respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: &project})
}

// handleDeleteProject handles DELETE /api/projects/{projectID}.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.dropSession(id)

	w.WriteHeader(http.StatusNoContent)
}

// handleApplyOperations handles POST /api/projects/{projectID}/operations.
// The body is a raw operations document, exactly as an assistant would emit
// it; malformed input degrades to an empty batch rather than an error.
func (s *Server) handleApplyOperations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	batch := ops.Parse(string(body))

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	applied := sess.ApplyOperations(batch)
	if applied > 0 {
		if err := s.persist(r.Context(), id, sess); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to save project")
			s.logger.Error("persist after operations failed", zap.Error(err))
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"operations": len(batch),
		"applied":    applied,
		"project":    sess.Project(),
	})
}

// handleLayout handles POST /api/projects/{projectID}/layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Algorithm == "" {
		req.Algorithm = string(layout.Auto)
	}

	opts := layout.Options{
		HorizontalSpacing: req.Options.HorizontalSpacing,
		VerticalSpacing:   req.Options.VerticalSpacing,
		Columns:           req.Options.Columns,
		SortBy:            layout.SortKey(req.Options.SortBy),
		Radius:            req.Options.Radius,
	}
	if opts.HorizontalSpacing <= 0 {
		opts.HorizontalSpacing = s.cfg.Layout.HorizontalSpacing
	}
	if opts.VerticalSpacing <= 0 {
		opts.VerticalSpacing = s.cfg.Layout.VerticalSpacing
	}
	if opts.MinSpacing <= 0 {
		opts.MinSpacing = s.cfg.Layout.MinSpacing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	if err := sess.OptimizeLayout(layout.Algorithm(req.Algorithm), opts); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.persist(r.Context(), id, sess); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to save project")
		s.logger.Error("persist after layout failed", zap.Error(err))
		return
	}

	s.respondJSON(w, http.StatusOK, projectResponse{ID: id, Project: sess.Project()})
}

// handleUndo handles POST /api/projects/{projectID}/undo.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, func(sess sessionStepper) bool { return sess.Undo() })
}

// handleRedo handles POST /api/projects/{projectID}/redo.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, func(sess sessionStepper) bool { return sess.Redo() })
}

type sessionStepper interface {
	Undo() bool
	Redo() bool
}

func (s *Server) handleHistoryStep(w http.ResponseWriter, r *http.Request, step func(sessionStepper) bool) {
	id := chi.URLParam(r, "projectID")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	stepped := step(sess)
	if stepped {
		if err := s.persist(r.Context(), id, sess); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to save project")
			s.logger.Error("persist after history step failed", zap.Error(err))
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"stepped": stepped,
		"canUndo": sess.History().CanUndo(),
		"canRedo": sess.History().CanRedo(),
		"project": sess.Project(),
	})
}

// handleChat handles POST /api/chat: forward the message to the assistant,
// apply whatever operations come back, and return both the reply and the
// updated project.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ProjectID == "" || req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "projectId and message are required")
		return
	}

	// The assistant round-trip happens outside the session lock.
	batch, reply, err := s.chat.Request(r.Context(), req.ProjectID, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Project not found")
			return
		}
		s.respondError(w, http.StatusBadGateway, "Assistant request failed")
		s.logger.Error("chat request failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(r.Context(), req.ProjectID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	applied := sess.ApplyOperations(batch)
	if applied > 0 {
		if err := s.persist(r.Context(), req.ProjectID, sess); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to save project")
			s.logger.Error("persist after chat failed", zap.Error(err))
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reply":      reply,
		"operations": len(batch),
		"applied":    applied,
		"project":    sess.Project(),
	})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	s.respondError(w, http.StatusInternalServerError, "Storage error")
	s.logger.Error("storage error", zap.Error(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
