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

const auditLogColumns = `log_id, request_id, user_id, action_type, old_status_id, new_status_id,
	change_description, comments, action_date, timestamp`

// AuditLogRepository implements port.AuditLogRepository. Rows are never
// updated or deleted.
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an entry and fills in its LogID
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			request_id, user_id, action_type, old_status_id, new_status_id,
			change_description, comments, action_date, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var userID sql.NullInt64
	if log.UserID != 0 {
		userID = sql.NullInt64{Int64: log.UserID, Valid: true}
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		log.RequestID, userID, log.ActionType,
		nullInt(log.OldStatusID), nullInt(log.NewStatusID),
		nullString(log.ChangeDescription), nullString(log.Comments),
		log.ActionDate.UTC(), log.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create audit log",
			zap.String("request_id", log.RequestID),
			zap.String("action_type", log.ActionType),
			zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.LogID = id
	return nil
}

// GetByID retrieves a single entry
func (r *AuditLogRepository) GetByID(ctx context.Context, logID int64) (*entity.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE log_id = ?`

	log, err := scanAuditLog(r.getExecutor(ctx).QueryRowContext(ctx, query, logID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get audit log", zap.Int64("log_id", logID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	return log, nil
}

// ListByRequest returns a request's entries, oldest first
func (r *AuditLogRepository) ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs
		WHERE request_id = ?
		ORDER BY timestamp ASC, log_id ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list audit logs", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func scanAuditLog(row rowScanner) (*entity.AuditLog, error) {
	var log entity.AuditLog
	var userID, oldStatus, newStatus sql.NullInt64
	var description, comments sql.NullString

	err := row.Scan(
		&log.LogID, &log.RequestID, &userID, &log.ActionType, &oldStatus, &newStatus,
		&description, &comments, &log.ActionDate, &log.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	log.UserID = userID.Int64
	log.OldStatusID = intPtr(oldStatus)
	log.NewStatusID = intPtr(newStatus)
	log.ChangeDescription = description.String
	log.Comments = comments.String
	return &log, nil
}

func (r *AuditLogRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
