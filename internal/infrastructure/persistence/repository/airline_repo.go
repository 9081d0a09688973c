package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

// AirlineRepository implements port.AirlineRepository
type AirlineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAirlineRepository creates a new airline detail repository
func NewAirlineRepository(db *sql.DB, logger *zap.Logger) *AirlineRepository {
	return &AirlineRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForRequest swaps the stored legs for segments. Callers run it inside
// a transaction so a failed insert leaves the old legs in place.
func (r *AirlineRepository) ReplaceForRequest(ctx context.Context, requestID string, segments []entity.AirlineSegment) error {
	exec := r.getExecutor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM airline_details WHERE request_id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to clear airline details: %w", err)
	}

	now := nowUTC()
	for _, segment := range segments {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO airline_details (request_id, airline_name, expense, created_at) VALUES (?, ?, ?, ?)`,
			requestID, segment.Name, segment.Expense, now); err != nil {
			r.logger.Error("Failed to insert airline detail",
				zap.String("request_id", requestID),
				zap.String("airline", segment.Name),
				zap.Error(err))
			return fmt.Errorf("failed to insert airline detail: %w", err)
		}
	}
	return nil
}

// ListByRequest returns a request's booked legs in insertion order
func (r *AirlineRepository) ListByRequest(ctx context.Context, requestID string) ([]entity.AirlineSegment, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT id, request_id, airline_name, expense, created_at FROM airline_details WHERE request_id = ? ORDER BY id ASC`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list airline details: %w", err)
	}
	defer rows.Close()

	var segments []entity.AirlineSegment
	for rows.Next() {
		var s entity.AirlineSegment
		if err := rows.Scan(&s.ID, &s.RequestID, &s.Name, &s.Expense, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan airline detail: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *AirlineRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.AirlineRepository = (*AirlineRepository)(nil)
