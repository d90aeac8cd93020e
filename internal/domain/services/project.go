package services

import (
	"context"

	"cipherstudio/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	UserID      string            `json:"-"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Framework   models.Framework  `json:"framework"`
	Visibility  models.Visibility `json:"visibility"`
}

// UpdateProjectRequest represents a request to update a project.
// Nil pointers leave the field unchanged.
type UpdateProjectRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Visibility  *models.Visibility `json:"visibility"`
	AutoSave    *bool              `json:"auto_save"`
	AutoRefresh *bool              `json:"auto_refresh"`
}

// ProjectWithNodes bundles a project with its live file tree.
type ProjectWithNodes struct {
	Project *models.Project `json:"project"`
	Files   []*models.Node  `json:"files"`
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	// CreateProject creates a project with its starter file set
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectWithNodes, error)

	// GetProjectBySlug retrieves a project and its tree. Private projects
	// are only visible to their owner.
	GetProjectBySlug(ctx context.Context, slug, userID string) (*ProjectWithNodes, error)

	// ListProjects retrieves all projects owned by a user
	ListProjects(ctx context.Context, userID string) ([]*models.Project, error)

	// UpdateProject updates project settings
	UpdateProject(ctx context.Context, id, userID string, req *UpdateProjectRequest) (*models.Project, error)

	// DeleteProject soft-deletes a project and its whole tree
	DeleteProject(ctx context.Context, id, userID string) error

	// ForkProject copies a readable project, and its tree, under a new
	// owner with a fresh slug
	ForkProject(ctx context.Context, id, userID string) (*ProjectWithNodes, error)
}
