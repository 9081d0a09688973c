package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

const ticketOptionColumns = `option_id, request_id, created_by_user_id, option_description, is_selected, created_at, updated_at`

// TicketOptionRepository implements port.TicketOptionRepository
type TicketOptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTicketOptionRepository creates a new ticket option repository
func NewTicketOptionRepository(db *sql.DB, logger *zap.Logger) *TicketOptionRepository {
	return &TicketOptionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an option and fills in its OptionID
func (r *TicketOptionRepository) Create(ctx context.Context, option *entity.TicketOption) error {
	now := nowUTC()
	option.CreatedAt, option.UpdatedAt = now, now

	var createdBy sql.NullInt64
	if option.CreatedByUserID != 0 {
		createdBy = sql.NullInt64{Int64: option.CreatedByUserID, Valid: true}
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, `
		INSERT INTO ticket_options (request_id, created_by_user_id, option_description, is_selected, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		option.RequestID, createdBy, option.OptionDescription, option.IsSelected, now, now)
	if err != nil {
		r.logger.Error("Failed to create ticket option", zap.String("request_id", option.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create ticket option: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	option.OptionID = id
	return nil
}

// GetByID retrieves an option
func (r *TicketOptionRepository) GetByID(ctx context.Context, optionID int64) (*entity.TicketOption, error) {
	query := `SELECT ` + ticketOptionColumns + ` FROM ticket_options WHERE option_id = ?`

	option, err := scanTicketOption(r.getExecutor(ctx).QueryRowContext(ctx, query, optionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ticket option", zap.Int64("option_id", optionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get ticket option: %w", err)
	}
	return option, nil
}

// ListByRequest returns a request's options in creation order
func (r *TicketOptionRepository) ListByRequest(ctx context.Context, requestID string) ([]*entity.TicketOption, error) {
	query := `SELECT ` + ticketOptionColumns + ` FROM ticket_options WHERE request_id = ? ORDER BY option_id ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list ticket options", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list ticket options: %w", err)
	}
	defer rows.Close()

	var options []*entity.TicketOption
	for rows.Next() {
		option, err := scanTicketOption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket option: %w", err)
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

// CountByRequest counts a request's options
func (r *TicketOptionRepository) CountByRequest(ctx context.Context, requestID string) (int, error) {
	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ticket_options WHERE request_id = ?`, requestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ticket options: %w", err)
	}
	return count, nil
}

// UpdateDescription rewrites an option's text
func (r *TicketOptionRepository) UpdateDescription(ctx context.Context, optionID int64, description string) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE ticket_options SET option_description = ?, updated_at = ? WHERE option_id = ?`,
		description, nowUTC(), optionID)
	if err != nil {
		return fmt.Errorf("failed to update ticket option: %w", err)
	}
	return requireRow(result, "ticket option", strconv.FormatInt(optionID, 10))
}

// MarkSelected clears every sibling's flag before setting the chosen one, so
// the partial unique index never sees two selected rows.
func (r *TicketOptionRepository) MarkSelected(ctx context.Context, requestID string, optionID int64) error {
	exec := r.getExecutor(ctx)
	now := nowUTC()

	if _, err := exec.ExecContext(ctx,
		`UPDATE ticket_options SET is_selected = 0, updated_at = ? WHERE request_id = ? AND is_selected = 1 AND option_id != ?`,
		now, requestID, optionID); err != nil {
		return fmt.Errorf("failed to clear selected ticket option: %w", err)
	}

	result, err := exec.ExecContext(ctx,
		`UPDATE ticket_options SET is_selected = 1, updated_at = ? WHERE option_id = ? AND request_id = ?`,
		now, optionID, requestID)
	if err != nil {
		r.logger.Error("Failed to select ticket option",
			zap.String("request_id", requestID),
			zap.Int64("option_id", optionID),
			zap.Error(err))
		return fmt.Errorf("failed to select ticket option: %w", err)
	}
	return requireRow(result, "ticket option", strconv.FormatInt(optionID, 10))
}

// Delete removes one option
func (r *TicketOptionRepository) Delete(ctx context.Context, optionID int64) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM ticket_options WHERE option_id = ?`, optionID)
	if err != nil {
		return fmt.Errorf("failed to delete ticket option: %w", err)
	}
	return requireRow(result, "ticket option", strconv.FormatInt(optionID, 10))
}

// DeleteByRequest removes every option of a request and returns how many went
func (r *TicketOptionRepository) DeleteByRequest(ctx context.Context, requestID string) (int64, error) {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM ticket_options WHERE request_id = ?`, requestID)
	if err != nil {
		r.logger.Error("Failed to delete ticket options", zap.String("request_id", requestID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete ticket options: %w", err)
	}
	return result.RowsAffected()
}

func scanTicketOption(row rowScanner) (*entity.TicketOption, error) {
	var option entity.TicketOption
	var createdBy sql.NullInt64

	err := row.Scan(&option.OptionID, &option.RequestID, &createdBy, &option.OptionDescription,
		&option.IsSelected, &option.CreatedAt, &option.UpdatedAt)
	if err != nil {
		return nil, err
	}
	option.CreatedByUserID = createdBy.Int64
	return &option, nil
}

func (r *TicketOptionRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.TicketOptionRepository = (*TicketOptionRepository)(nil)
