package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCode looks a project up by code, ignoring case
func (r *ProjectRepository) GetByCode(ctx context.Context, projectCode string) (*entity.Project, error) {
	query := `
		SELECT project_id, project_code, project_name, du_id,
			project_start_date, project_end_date,
			project_manager, project_manager_email, project_status,
			du_head_name, du_head_email, is_active
		FROM projects
		WHERE project_code = ?
	`

	var p entity.Project
	var duID sql.NullInt64
	var start, end sql.NullTime
	var manager, managerEmail, status, duHead, duHeadEmail sql.NullString

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, projectCode).Scan(
		&p.ProjectID, &p.ProjectCode, &p.ProjectName, &duID,
		&start, &end,
		&manager, &managerEmail, &status,
		&duHead, &duHeadEmail, &p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.String("project_code", projectCode), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p.DuID = int(duID.Int64)
	p.ProjectStartDate = start.Time
	p.ProjectEndDate = end.Time
	p.ProjectManager = manager.String
	p.ProjectManagerEmail = managerEmail.String
	p.ProjectStatus = status.String
	p.DuHeadName = duHead.String
	p.DuHeadEmail = duHeadEmail.String
	return &p, nil
}

// Create inserts a project and fills in its ProjectID
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `
		INSERT INTO projects (
			project_code, project_name, du_id, project_start_date, project_end_date,
			project_manager, project_manager_email, project_status,
			du_head_name, du_head_email, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectCode, p.ProjectName, p.DuID, nullDate(p.ProjectStartDate), nullDate(p.ProjectEndDate),
		nullString(p.ProjectManager), nullString(p.ProjectManagerEmail), nullString(p.ProjectStatus),
		nullString(p.DuHeadName), nullString(p.DuHeadEmail), p.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("project_code", p.ProjectCode), zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ProjectID = id
	return nil
}

func (r *ProjectRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.ProjectRepository = (*ProjectRepository)(nil)
