package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const nodeColumns = `id, project_id, parent_id, name, type, path, extension, language, content, size_in_bytes, created_at, updated_at`

// Create creates a new node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, parent_id, name, type, path, extension, language, content, size_in_bytes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.ProjectID,
		node.ParentID,
		node.Name,
		node.Type,
		node.Path,
		node.Extension,
		node.Language,
		node.Content,
		node.SizeInBytes,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Partial unique index on (project_id, path) WHERE deleted_at IS NULL
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%q already exists", node.Path),
				ResourceType: string(node.Type),
				ResourceID:   node.ID,
			}
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: parent or project does not exist", domain.ErrValidation)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a live node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, nodeColumns, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	n, err := scanNode(executor.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// ListByProject retrieves all live nodes of a project, folders first, then
// by path for a stable tree rendering order.
func (r *PostgresNodeRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY (type = 'folder') DESC, path ASC
	`, nodeColumns, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]*models.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Update persists a node's structural fields and content
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $2, name = $3, path = $4, extension = $5, language = $6,
		    content = $7, size_in_bytes = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		node.ID,
		node.ParentID,
		node.Name,
		node.Path,
		node.Extension,
		node.Language,
		node.Content,
		node.SizeInBytes,
		node.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%q already exists", node.Path),
				ResourceType: string(node.Type),
				ResourceID:   node.ID,
			}
		}
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDeleteMany tombstones the given nodes
func (r *PostgresNodeRepository) SoftDeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $2 WHERE id = ANY($1) AND deleted_at IS NULL
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, time.Now()); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	return nil
}

func scanNode(row rowScanner) (*models.Node, error) {
	var n models.Node
	err := row.Scan(
		&n.ID,
		&n.ProjectID,
		&n.ParentID,
		&n.Name,
		&n.Type,
		&n.Path,
		&n.Extension,
		&n.Language,
		&n.Content,
		&n.SizeInBytes,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
