package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// LoginResult is returned on successful authentication
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	Department  string `json:"department"`
}

// AuthService authenticates users and manages their credentials
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, user *entity.User, password string) (*entity.User, error)
}

type authServiceImpl struct {
	userRepo port.UserRepository
	hasher   port.PasswordHasher
	tokens   port.TokenIssuer
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, hasher port.PasswordHasher, tokens port.TokenIssuer, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

const invalidCredentials = "User not found or invalid credentials."

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil || !user.IsActive || user.PasswordHash == "" {
		return nil, apperr.NotFound(invalidCredentials)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Warn("Login rejected", "user_id", user.UserID)
		return nil, apperr.NotFound(invalidCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.UserID, "role", user.UserRole)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.UserID,
		Name:        user.EmployeeName,
		Role:        user.UserRole,
		Email:       user.EmployeeEmail,
		Department:  user.Department,
	}, nil
}

func (s *authServiceImpl) Register(ctx context.Context, user *entity.User, password string) (*entity.User, error) {
	user.EmployeeEmail = strings.TrimSpace(user.EmployeeEmail)
	if user.EmployeeEmail == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}
	if user.UserRole == "" {
		user.UserRole = entity.RoleEmployee
	}

	existing, err := s.userRepo.GetByEmail(ctx, user.EmployeeEmail)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("User with email %s already exists.", user.EmployeeEmail)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.UserID, "role", user.UserRole)
	return user, nil
}
