package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/domain/repositories"
)

// In-memory repository implementations mirroring the SQL semantics the
// services rely on: soft-delete filtering, path uniqueness per project,
// folders-then-path ordering.

type memProjectRepo struct {
	projects map[string]*models.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{projects: make(map[string]*models.Project)}
}

func (r *memProjectRepo) Create(ctx context.Context, project *models.Project) error {
	for _, p := range r.projects {
		if p.Slug == project.Slug && p.DeletedAt == nil {
			return &domain.ConflictError{Message: "slug taken", ResourceType: "project", ResourceID: p.ID}
		}
	}
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r *memProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := r.projects[id]
	if !ok || p.DeletedAt != nil {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *memProjectRepo) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	for _, p := range r.projects {
		if p.Slug == slug && p.DeletedAt == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", slug, domain.ErrNotFound)
}

func (r *memProjectRepo) List(ctx context.Context, userID string) ([]*models.Project, error) {
	out := make([]*models.Project, 0)
	for _, p := range r.projects {
		if p.UserID == userID && p.DeletedAt == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memProjectRepo) Update(ctx context.Context, project *models.Project) error {
	p, ok := r.projects[project.ID]
	if !ok || p.DeletedAt != nil {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r *memProjectRepo) SoftDelete(ctx context.Context, id string) error {
	p, ok := r.projects[id]
	if !ok || p.DeletedAt != nil {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	now := p.UpdatedAt
	p.DeletedAt = &now
	return nil
}

type memNodeRepo struct {
	nodes map[string]*models.Node
}

func newMemNodeRepo() *memNodeRepo {
	return &memNodeRepo{nodes: make(map[string]*models.Node)}
}

func (r *memNodeRepo) pathTaken(projectID, path, excludeID string) *models.Node {
	for _, n := range r.nodes {
		if n.ID != excludeID && n.ProjectID == projectID && n.Path == path && !n.IsDeleted {
			return n
		}
	}
	return nil
}

func (r *memNodeRepo) Create(ctx context.Context, node *models.Node) error {
	if other := r.pathTaken(node.ProjectID, node.Path, node.ID); other != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%q already exists", node.Path),
			ResourceType: string(other.Type),
			ResourceID:   other.ID,
		}
	}
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	n, ok := r.nodes[id]
	if !ok || n.IsDeleted {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *memNodeRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Node, error) {
	out := make([]*models.Node, 0)
	for _, n := range r.nodes {
		if n.ProjectID == projectID && !n.IsDeleted {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Type == models.NodeTypeFolder) != (out[j].Type == models.NodeTypeFolder) {
			return out[i].Type == models.NodeTypeFolder
		}
		return strings.Compare(out[i].Path, out[j].Path) < 0
	})
	return out, nil
}

func (r *memNodeRepo) Update(ctx context.Context, node *models.Node) error {
	stored, ok := r.nodes[node.ID]
	if !ok || stored.IsDeleted {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	if other := r.pathTaken(node.ProjectID, node.Path, node.ID); other != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%q already exists", node.Path),
			ResourceType: string(other.Type),
			ResourceID:   other.ID,
		}
	}
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *memNodeRepo) SoftDeleteMany(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if n, ok := r.nodes[id]; ok {
			n.IsDeleted = true
		}
	}
	return nil
}

// memTxManager runs the function directly; the in-memory repositories have
// no transactional isolation to manage.
type memTxManager struct{}

func (memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
