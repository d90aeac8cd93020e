package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cipherstudio/internal/auth"
	"cipherstudio/internal/domain/services"
	"cipherstudio/internal/httputil"
	"cipherstudio/internal/middleware"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(
	projectService services.ProjectService,
	nodeService services.NodeService,
	verifier auth.TokenVerifier,
	logger *slog.Logger,
) chi.Router {
	projectHandler := NewProjectHandler(projectService, logger)
	nodeHandler := NewNodeHandler(nodeService, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Auth(verifier))

	r.Get("/health", healthCheck)

	// Projects are addressed by slug for reads and by id for mutations.
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", projectHandler.ListProjects)
		r.Post("/", projectHandler.CreateProject)
		r.Get("/{slug}", projectHandler.GetProject)
		r.Put("/{id}", projectHandler.UpdateProject)
		r.Delete("/{id}", projectHandler.DeleteProject)
		r.Post("/{id}/fork", projectHandler.ForkProject)
	})

	r.Route("/api/files", func(r chi.Router) {
		r.Post("/", nodeHandler.CreateNode)
		r.Get("/{id}", nodeHandler.GetNode)
		r.Put("/{id}", nodeHandler.UpdateNode)
		r.Put("/{id}/move", nodeHandler.MoveNode)
		r.Delete("/{id}", nodeHandler.DeleteNode)
	})

	return r
}

// healthCheck reports liveness
// GET /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
