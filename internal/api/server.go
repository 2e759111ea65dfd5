// Package api serves the design studio over HTTP and WebSocket.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/editor"
	"github.com/serroba/design-studio/internal/render"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/serroba/design-studio/internal/ws"
)

var errBadRequest = errors.New("bad request")

// Server handles HTTP requests for the design studio.
type Server struct {
	manager     *editor.Manager
	gateway     *storage.Gateway
	permissions acl.Store
	checker     *acl.Checker
	hub         *ws.Hub
	projector   *render.Projector
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// ServerConfig holds configuration for creating a server.
type ServerConfig struct {
	Manager *editor.Manager
	Gateway *storage.Gateway
	// Permissions enables access control and the sharing routes. When nil
	// every user may do everything.
	Permissions acl.Store
	Hub         *ws.Hub
	Projector   *render.Projector
	Logger      *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		manager:     cfg.Manager,
		gateway:     cfg.Gateway,
		permissions: cfg.Permissions,
		hub:         cfg.Hub,
		projector:   cfg.Projector,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}

	if cfg.Permissions != nil {
		s.checker = acl.NewChecker(cfg.Permissions)
	}

	return s
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/designs", s.handleCreateDesign)

		r.Route("/designs/{designID}", func(r chi.Router) {
			r.Get("/", s.handleGetDesign)
			r.Put("/", s.handlePutDesign)
			r.Delete("/", s.handleDeleteDesign)
			r.Get("/versions", s.handleListVersions)
			r.Get("/export.png", s.handleExport)

			if s.permissions != nil {
				r.Get("/permissions", s.handleListPermissions)
				r.Put("/permissions/{userID}", s.handleGrant)
				r.Delete("/permissions/{userID}", s.handleRevoke)
			}
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// authorize checks that the design exists and that the requesting user may
// perform action on it. On failure the response is written and false
// returned.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, designID string, action acl.Action) bool {
	if err := s.check(r, designID, action); err != nil {
		s.fail(w, r, err)

		return false
	}

	return true
}

func (s *Server) check(r *http.Request, designID string, action acl.Action) error {
	exists, err := s.gateway.Store().DesignExists(r.Context(), designID)
	if err != nil {
		return err
	}

	if !exists {
		return storage.ErrDesignNotFound
	}

	if s.checker == nil {
		return nil
	}

	return s.checker.RequirePermission(designID, UserIDFromContext(r.Context()), action)
}
