package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

const userColumns = `user_id, employee_name, employee_email, password_hash, phone_number,
	user_role, department, is_active, created_at, updated_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user and fills in its UserID
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	now := nowUTC()
	user.CreatedAt, user.UpdatedAt = now, now

	result, err := r.getExecutor(ctx).ExecContext(ctx, `
		INSERT INTO users (
			employee_name, employee_email, password_hash, phone_number,
			user_role, department, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.EmployeeName, strings.TrimSpace(user.EmployeeEmail), nullString(user.PasswordHash),
		nullString(user.PhoneNumber), user.UserRole, nullString(user.Department),
		user.IsActive, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.EmployeeEmail), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.UserID = id
	return nil
}

// GetByID retrieves a user
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
}

// GetByEmail matches the address ignoring case and surrounding space
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE employee_email = ? COLLATE NOCASE`, strings.TrimSpace(email))
}

// ListActiveByRole returns active users holding role
func (r *UserRepository) ListActiveByRole(ctx context.Context, role string) ([]*entity.User, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_role = ? COLLATE NOCASE AND is_active = 1 ORDER BY user_id ASC`, role)
	if err != nil {
		r.logger.Error("Failed to list users", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE user_id = ?`, hash, nowUTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(result, "user", fmt.Sprint(userID))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	user, err := scanUser(r.getExecutor(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var hash, phone, department sql.NullString

	err := row.Scan(&user.UserID, &user.EmployeeName, &user.EmployeeEmail, &hash, &phone,
		&user.UserRole, &department, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash.String
	user.PhoneNumber = phone.String
	user.Department = department.String
	return &user, nil
}

func (r *UserRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.UserRepository = (*UserRepository)(nil)
