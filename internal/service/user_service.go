package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService resolves and registers users
type UserService struct {
	users  UserRepository
	cost   int
	logger *zap.Logger
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost, logger: util.GetLogger()}
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FindByUsername resolves a username to a user record
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found! User with username: %s does not exist", username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Register creates a user with the regular role
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	return s.create(ctx, req.Username, req.Password, models.RoleUser)
}

// EnsureAdmin creates the administrator account unless the username is taken.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if _, err := s.create(ctx, username, password, models.RoleAdmin); err != nil {
		return err
	}
	s.logger.Info("Admin user seeded", zap.String("username", username))
	return nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid username or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid username or password")
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.BadRequest("Username must not be empty")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.BadRequest("Password must be at least %d characters long", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindBadRequest, err, fmt.Sprintf("Username %s is already taken", username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", role))
	return user, nil
}
