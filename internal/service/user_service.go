package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/service/auth"
	"github.com/phrazzld/chazara-api/internal/store"
)

// UserService provides user account operations.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser creates a new user with the specified email and password.
	// The password is validated against domain rules and hashed before it
	// reaches the store.
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)

	// DeleteUser deletes a user by their ID. Everything the user owns is
	// removed by cascade.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	db *sql.DB,
	log *slog.Logger,
) UserService {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		db:        db,
		logger:    log.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email")
		} else {
			s.logger.Error("failed to retrieve user by email",
				"error", err)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	return user, nil
}

// CreateUser creates a new user with the specified email and password.
// Uses a transaction to ensure atomicity of the operation.
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Debug("failed to create user object",
			"error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		return txStore.Create(ctx, user)
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email")
		} else {
			s.logger.Error("failed to save user to database",
				"error", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID)

	return user, nil
}

// DeleteUser deletes a user by their ID.
// Uses a transaction to ensure atomicity of the operation.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		err := txStore.Delete(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				s.logger.Debug("attempted to delete non-existent user",
					"user_id", userID)
			} else {
				s.logger.Error("failed to delete user",
					"error", err,
					"user_id", userID)
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}

		s.logger.Info("user deleted successfully",
			"user_id", userID)

		return nil
	})
}
