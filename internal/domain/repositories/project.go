package repositories

import (
	"context"

	"cipherstudio/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a live project by ID
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// GetBySlug retrieves a live project by slug
	GetBySlug(ctx context.Context, slug string) (*models.Project, error)

	// List retrieves all live projects for a user, ordered by updated_at DESC
	List(ctx context.Context, userID string) ([]*models.Project, error)

	// Update persists mutable project fields and the updated_at timestamp
	Update(ctx context.Context, project *models.Project) error

	// SoftDelete tombstones a project
	SoftDelete(ctx context.Context, id string) error
}
