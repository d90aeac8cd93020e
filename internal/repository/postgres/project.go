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

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const projectColumns = `id, slug, user_id, name, description, framework, visibility, dependencies, auto_save, auto_refresh, created_at, updated_at`

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, slug, user_id, name, description, framework, visibility, dependencies, auto_save, auto_refresh, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		project.ID,
		project.Slug,
		project.UserID,
		project.Name,
		project.Description,
		project.Framework,
		project.Visibility,
		project.Dependencies,
		project.AutoSave,
		project.AutoRefresh,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("project slug %q already taken", project.Slug),
				ResourceType: "project",
				ResourceID:   project.ID,
			}
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a live project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, projectColumns, r.tables.Projects)

	return r.queryOne(ctx, query, id)
}

// GetBySlug retrieves a live project by slug
func (r *PostgresProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE slug = $1 AND deleted_at IS NULL
	`, projectColumns, r.tables.Projects)

	return r.queryOne(ctx, query, slug)
}

// List retrieves all live projects for a user, newest activity first
func (r *PostgresProjectRepository) List(ctx context.Context, userID string) ([]*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`, projectColumns, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update persists mutable project fields
func (r *PostgresProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, description = $3, visibility = $4, dependencies = $5,
		    auto_save = $6, auto_refresh = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Visibility,
		project.Dependencies,
		project.AutoSave,
		project.AutoRefresh,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDelete tombstones a project
func (r *PostgresProjectRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresProjectRepository) queryOne(ctx context.Context, query string, arg any) (*models.Project, error) {
	executor := GetExecutor(ctx, r.pool)
	p, err := scanProject(executor.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Framework,
		&p.Visibility,
		&p.Dependencies,
		&p.AutoSave,
		&p.AutoRefresh,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
