package remote

import (
	"context"

	"cipherstudio/internal/domain/models"
)

// Store is the slice of the backend the tree manager depends on. Consumers
// should take this interface rather than *Client so tests can substitute a
// fake backend.
type Store interface {
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectWithFiles, error)
	GetProject(ctx context.Context, slug string) (*ProjectWithFiles, error)
	CreateNode(ctx context.Context, req *CreateNodeRequest) (*models.Node, error)
	UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) error
	MoveNode(ctx context.Context, id string, newParentID *string) (*models.Node, error)
}

// Verify *Client satisfies Store at compile time.
var _ Store = (*Client)(nil)
