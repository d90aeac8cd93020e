package repositories

import (
	"context"

	"cipherstudio/internal/domain/models"
)

// NodeRepository defines data access operations for file-tree nodes
type NodeRepository interface {
	// Create creates a new node
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a live node by ID
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// ListByProject retrieves all live nodes of a project, folders first
	ListByProject(ctx context.Context, projectID string) ([]*models.Node, error)

	// Update persists a node's structural fields and content
	Update(ctx context.Context, node *models.Node) error

	// SoftDeleteMany tombstones the given nodes
	SoftDeleteMany(ctx context.Context, ids []string) error
}
