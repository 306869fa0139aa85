// Package server exposes the diagram engine over HTTP. Each project gets one
// in-memory editing session holding its undo/redo history; the store keeps the
// persisted copy in sync after every mutation.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"archboard/chat"
	"archboard/config"
	"archboard/editor"
	"archboard/store"
)

// Server holds the HTTP-facing state.
type Server struct {
	store  store.Store
	chat   *chat.Service // nil when no assistant is configured
	cfg    *config.Config
	logger *zap.Logger

	// mu guards sessions and serializes all session mutation. Sessions are
	// single-threaded editors; the coarse lock keeps their history coherent.
	mu       sync.Mutex
	sessions map[string]*editor.Session
}

// New creates a server. chatSvc may be nil, which disables the chat endpoint.
func New(st store.Store, chatSvc *chat.Service, cfg *config.Config, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:    st,
		chat:     chatSvc,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*editor.Session),
	}
}

// Router builds the chi handler with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Put("/", s.handleReplaceProject)
				r.Delete("/", s.handleDeleteProject)
				r.Post("/operations", s.handleApplyOperations)
				r.Post("/layout", s.handleLayout)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
			})
		})
		r.Post("/chat", s.handleChat)
	})

	return router
}

// session returns the live editing session for a project, loading it from the
// store on first access. Callers must hold s.mu.
func (s *Server) session(ctx context.Context, id string) (*editor.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	project, err := s.store.LoadProject(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := editor.NewSession(project)
	sess.SetHistoryLimit(s.cfg.History.Limit)
	s.sessions[id] = sess
	return sess, nil
}

// persist writes the session's current project back to the store.
func (s *Server) persist(ctx context.Context, id string, sess *editor.Session) error {
	_, err := s.store.SaveProject(ctx, id, sess.Project())
	return err
}

// dropSession discards the in-memory session, including its history.
func (s *Server) dropSession(id string) {
	delete(s.sessions, id)
}
