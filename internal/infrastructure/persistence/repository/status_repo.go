package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

// StatusRepository implements port.StatusRepository
type StatusRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *sql.DB, logger *zap.Logger) *StatusRepository {
	return &StatusRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every seeded status ordered by id
func (r *StatusRepository) List(ctx context.Context) ([]port.StatusRow, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT status_id, status_name FROM request_statuses ORDER BY status_id ASC`)
	if err != nil {
		r.logger.Error("Failed to list statuses", zap.Error(err))
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []port.StatusRow
	for rows.Next() {
		var s port.StatusRow
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

var _ port.StatusRepository = (*StatusRepository)(nil)
