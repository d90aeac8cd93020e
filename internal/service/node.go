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
)

// nodeService implements the NodeService interface. Paths, extensions and
// languages are derived here; whatever clients send for them is ignored.
type nodeService struct {
	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.NodeService {
	return &nodeService{
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateNode creates a node with a server-derived path
func (s *nodeService) CreateNode(ctx context.Context, req *services.CreateNodeRequest) (*models.Node, error) {
	if err := models.ValidateNodeName(req.Name); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if req.Type != models.NodeTypeFile && req.Type != models.NodeTypeFolder {
		return nil, &domain.ValidationError{Message: "type must be file or folder"}
	}

	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(project, req.UserID); err != nil {
		return nil, err
	}

	// Empty string means root, same as absent
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != project.ID {
			return nil, &domain.ValidationError{Message: "parent belongs to a different project"}
		}
		if !parent.IsFolder() {
			return nil, &domain.ValidationError{Message: "parent must be a folder"}
		}
		parentPath = parent.Path
	}

	now := time.Now()
	node := &models.Node{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		Type:      req.Type,
		Path:      models.DerivePath(parentPath, req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if node.Type == models.NodeTypeFile {
		node.Extension = models.Extension(req.Name)
		node.Language = models.LanguageForExtension(node.Extension)
		node.SetContent(req.Content)
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNode retrieves a node the user may read
func (s *nodeService) GetNode(ctx context.Context, id, userID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, node.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireReadable(project, userID); err != nil {
		return nil, err
	}
	return node, nil
}

// UpdateNode renames a node and/or replaces its content
func (s *nodeService) UpdateNode(ctx context.Context, id string, req *services.UpdateNodeRequest) (*models.Node, error) {
	node, err := s.ownedNode(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		if node.Type != models.NodeTypeFile {
			return nil, &domain.ValidationError{Message: "folders have no content"}
		}
		node.SetContent(*req.Content)
	}

	if req.Name == nil || *req.Name == node.Name {
		if req.Content != nil {
			if err := s.nodeRepo.Update(ctx, node); err != nil {
				return nil, err
			}
		}
		return node, nil
	}

	if err := models.ValidateNodeName(*req.Name); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	node.Name = *req.Name
	if node.Type == models.NodeTypeFile {
		node.Extension = models.Extension(node.Name)
		node.Language = models.LanguageForExtension(node.Extension)
	}
	node.UpdatedAt = time.Now()

	if err := s.rewritePaths(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// MoveNode re-parents a node and cascades paths to its subtree
func (s *nodeService) MoveNode(ctx context.Context, id string, req *services.MoveNodeRequest) (*models.Node, error) {
	node, err := s.ownedNode(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}

	newParentID := req.NewParentID
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}

	if newParentID != nil {
		if *newParentID == node.ID {
			return nil, &domain.ValidationError{Message: "cannot move a folder into itself"}
		}
		parent, err := s.nodeRepo.GetByID(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != node.ProjectID {
			return nil, &domain.ValidationError{Message: "destination belongs to a different project"}
		}
		if !parent.IsFolder() {
			return nil, &domain.ValidationError{Message: "destination must be a folder"}
		}

		arena, err := s.projectArena(ctx, node.ProjectID)
		if err != nil {
			return nil, err
		}
		if models.IsDescendant(arena, node.ID, *newParentID) {
			return nil, &domain.ValidationError{Message: "cannot move a folder into one of its descendants"}
		}
	}

	node.ParentID = newParentID
	node.UpdatedAt = time.Now()

	if err := s.rewritePaths(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// DeleteNode soft-deletes a node and all its descendants in one
// transaction. The doomed set is collected over a worklist first, so the
// cascade is all or nothing.
func (s *nodeService) DeleteNode(ctx context.Context, id, userID string) error {
	node, err := s.ownedNode(ctx, id, userID)
	if err != nil {
		return err
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		nodes, err := s.nodeRepo.ListByProject(txCtx, node.ProjectID)
		if err != nil {
			return err
		}

		children := make(map[string][]string)
		for _, n := range nodes {
			if n.ParentID != nil {
				children[*n.ParentID] = append(children[*n.ParentID], n.ID)
			}
		}

		doomed := []string{node.ID}
		queue := []string{node.ID}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			doomed = append(doomed, children[cur]...)
			queue = append(queue, children[cur]...)
		}

		s.logger.Info("deleting subtree", "root_id", node.ID, "nodes", len(doomed))
		return s.nodeRepo.SoftDeleteMany(txCtx, doomed)
	})
}

// ownedNode loads a node and checks the caller owns its project.
func (s *nodeService) ownedNode(ctx context.Context, id, userID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, node.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(project, userID); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *nodeService) projectArena(ctx context.Context, projectID string) (map[string]*models.Node, error) {
	nodes, err := s.nodeRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	arena := make(map[string]*models.Node, len(nodes))
	for _, n := range nodes {
		arena[n.ID] = n
	}
	return arena, nil
}

// rewritePaths re-derives node's path from its current parent and name,
// then walks the subtree re-deriving every descendant, persisting all
// changed rows in one transaction.
func (s *nodeService) rewritePaths(ctx context.Context, node *models.Node) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		arena, err := s.projectArena(txCtx, node.ProjectID)
		if err != nil {
			return err
		}
		// The arena was loaded before node's in-memory changes; substitute
		// the updated copy so derivations see the new name and parent.
		arena[node.ID] = node

		parentPath := ""
		if node.ParentID != nil {
			parent, ok := arena[*node.ParentID]
			if !ok {
				return fmt.Errorf("parent %s: %w", *node.ParentID, domain.ErrNotFound)
			}
			parentPath = parent.Path
		}
		node.Path = models.DerivePath(parentPath, node.Name)
		if err := s.nodeRepo.Update(txCtx, node); err != nil {
			return err
		}

		children := make(map[string][]*models.Node)
		for _, n := range arena {
			if n.ParentID != nil {
				children[*n.ParentID] = append(children[*n.ParentID], n)
			}
		}

		now := time.Now()
		queue := []*models.Node{node}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, child := range children[cur.ID] {
				child.Path = models.DerivePath(cur.Path, child.Name)
				child.UpdatedAt = now
				if err := s.nodeRepo.Update(txCtx, child); err != nil {
					return err
				}
				queue = append(queue, child)
			}
		}
		return nil
	})
}
