package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/domain/repositories"
	"cipherstudio/internal/domain/services"
	"cipherstudio/internal/scaffold"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	nodeRepo    repositories.NodeRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateProject creates a project and its starter files in one transaction.
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*services.ProjectWithNodes, error) {
	if req.UserID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	if err := models.ValidateProjectName(req.Name); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	switch req.Framework {
	case models.FrameworkReact, models.FrameworkVue, models.FrameworkVanilla:
	case "":
		req.Framework = models.FrameworkReact
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown framework %q", req.Framework)}
	}
	switch req.Visibility {
	case models.VisibilityPublic, models.VisibilityPrivate:
	case "":
		req.Visibility = models.VisibilityPrivate
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown visibility %q", req.Visibility)}
	}

	now := time.Now()
	project := &models.Project{
		ID:           uuid.NewString(),
		Slug:         models.NewSlug(req.Name),
		UserID:       req.UserID,
		Name:         req.Name,
		Description:  req.Description,
		Framework:    req.Framework,
		Visibility:   req.Visibility,
		Dependencies: models.DefaultDependencies(req.Framework),
		AutoSave:     true,
		AutoRefresh:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	files := scaffold.DefaultFiles(project)
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return err
		}
		for _, n := range files {
			if err := s.nodeRepo.Create(txCtx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", project.ID,
		"slug", project.Slug,
		"framework", project.Framework,
		"files", len(files),
	)
	return &services.ProjectWithNodes{Project: project, Files: files}, nil
}

// GetProjectBySlug retrieves a project and its live tree.
func (s *projectService) GetProjectBySlug(ctx context.Context, slug, userID string) (*services.ProjectWithNodes, error) {
	project, err := s.projectRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := requireReadable(project, userID); err != nil {
		return nil, err
	}

	files, err := s.nodeRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return &services.ProjectWithNodes{Project: project, Files: files}, nil
}

// ListProjects retrieves all projects owned by a user
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	return s.projectRepo.List(ctx, userID)
}

// UpdateProject updates project settings
func (s *projectService) UpdateProject(ctx context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(project, userID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := models.ValidateProjectName(*req.Name); err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Visibility != nil {
		switch *req.Visibility {
		case models.VisibilityPublic, models.VisibilityPrivate:
			project.Visibility = *req.Visibility
		default:
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown visibility %q", *req.Visibility)}
		}
	}
	if req.AutoSave != nil {
		project.AutoSave = *req.AutoSave
	}
	if req.AutoRefresh != nil {
		project.AutoRefresh = *req.AutoRefresh
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject tombstones a project and its whole tree in one transaction.
func (s *projectService) DeleteProject(ctx context.Context, id, userID string) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(project, userID); err != nil {
		return err
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		nodes, err := s.nodeRepo.ListByProject(txCtx, project.ID)
		if err != nil {
			return err
		}
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		if err := s.nodeRepo.SoftDeleteMany(txCtx, ids); err != nil {
			return err
		}
		return s.projectRepo.SoftDelete(txCtx, project.ID)
	})
}

// ForkProject deep-copies a readable project under a new owner. Node ids
// are reminted and parent references remapped; paths carry over unchanged.
func (s *projectService) ForkProject(ctx context.Context, id, userID string) (*services.ProjectWithNodes, error) {
	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}

	source, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireReadable(source, userID); err != nil {
		return nil, err
	}

	sourceNodes, err := s.nodeRepo.ListByProject(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fork := &models.Project{
		ID:           uuid.NewString(),
		Slug:         models.NewSlug(source.Name),
		UserID:       userID,
		Name:         source.Name,
		Description:  source.Description,
		Framework:    source.Framework,
		Visibility:   models.VisibilityPrivate,
		Dependencies: source.Dependencies,
		AutoSave:     true,
		AutoRefresh:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	idMap := make(map[string]string, len(sourceNodes))
	for _, n := range sourceNodes {
		idMap[n.ID] = uuid.NewString()
	}

	forkNodes := make([]*models.Node, 0, len(sourceNodes))
	for _, n := range sourceNodes {
		copied := *n
		copied.ID = idMap[n.ID]
		copied.ProjectID = fork.ID
		copied.CreatedAt = now
		copied.UpdatedAt = now
		if n.ParentID != nil {
			mapped, ok := idMap[*n.ParentID]
			if !ok {
				return nil, fmt.Errorf("node %s has dangling parent %s", n.ID, *n.ParentID)
			}
			copied.ParentID = &mapped
		}
		forkNodes = append(forkNodes, &copied)
	}

	// ListByProject orders folders first and by path, so parents are
	// always created before their children.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, fork); err != nil {
			return err
		}
		for _, n := range forkNodes {
			if err := s.nodeRepo.Create(txCtx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project forked",
		"source_id", source.ID,
		"fork_id", fork.ID,
		"nodes", len(forkNodes),
	)
	return &services.ProjectWithNodes{Project: fork, Files: forkNodes}, nil
}
