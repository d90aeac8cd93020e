package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cipherstudio/internal/domain/services"
	"cipherstudio/internal/httputil"
)

// NodeHandler handles file-tree node HTTP requests
type NodeHandler struct {
	nodeService services.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService services.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateNode creates a file or folder
// POST /api/files
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req services.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	node, err := h.nodeService.CreateNode(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetNode retrieves a single node
// GET /api/files/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// UpdateNode renames a node and/or replaces its content
// PUT /api/files/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req services.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	node, err := h.nodeService.UpdateNode(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// MoveNode re-parents a node
// PUT /api/files/{id}/move
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req services.MoveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	node, err := h.nodeService.MoveNode(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode soft-deletes a node and its descendants
// DELETE /api/files/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	if err := h.nodeService.DeleteNode(r.Context(), id, httputil.GetUserID(r)); err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondMessage(w, http.StatusOK, "node deleted")
}
