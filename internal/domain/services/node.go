package services

import (
	"context"

	"cipherstudio/internal/domain/models"
)

// CreateNodeRequest represents a request to create a file or folder
type CreateNodeRequest struct {
	UserID    string          `json:"-"`
	ProjectID string          `json:"project_id"`
	ParentID  *string         `json:"parent_id"`
	Name      string          `json:"name"`
	Type      models.NodeType `json:"type"`
	Content   string          `json:"content"`
}

// UpdateNodeRequest represents a rename and/or content update.
// Nil pointers leave the field unchanged.
type UpdateNodeRequest struct {
	UserID  string  `json:"-"`
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

// MoveNodeRequest re-parents a node. A nil NewParentID moves it to the root.
type MoveNodeRequest struct {
	UserID      string  `json:"-"`
	NewParentID *string `json:"new_parent_id"`
}

// NodeService defines business logic operations for file-tree nodes.
// The server derives paths, extensions and languages itself; clients never
// send them.
type NodeService interface {
	// CreateNode creates a node with a server-derived path
	CreateNode(ctx context.Context, req *CreateNodeRequest) (*models.Node, error)

	// GetNode retrieves a node the user may read
	GetNode(ctx context.Context, id, userID string) (*models.Node, error)

	// UpdateNode renames a node and/or replaces its content. A rename
	// cascades new paths to every descendant.
	UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*models.Node, error)

	// DeleteNode soft-deletes a node and all its descendants
	DeleteNode(ctx context.Context, id, userID string) error

	// MoveNode re-parents a node and cascades new paths to every
	// descendant. Moves into the node's own subtree are rejected.
	MoveNode(ctx context.Context, id string, req *MoveNodeRequest) (*models.Node, error)
}
