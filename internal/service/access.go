package service

import (
	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
)

// requireOwner gates mutating operations: only the owner may change a
// project or its tree.
func requireOwner(project *models.Project, userID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}
	if project.UserID != userID {
		return &domain.ForbiddenError{Message: "you do not own this project"}
	}
	return nil
}

// requireReadable gates read operations: owners always, everyone else only
// when the project is public.
func requireReadable(project *models.Project, userID string) error {
	if project.Visibility == models.VisibilityPublic {
		return nil
	}
	if userID == "" {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}
	if project.UserID != userID {
		return &domain.ForbiddenError{Message: "this project is private"}
	}
	return nil
}
