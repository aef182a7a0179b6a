package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/db"
	"github.com/jonathan/fittrack/internal/types"
)

// UserService provides business logic for user authentication operations
type UserService struct {
	store          Store
	passwordConfig *config.PasswordConfig
	now            func() time.Time
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store Store, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
		now:            time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and its default profile document.
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (uuid.UUID, error) {
	email := normalizeEmail(req.Email)

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := types.NewProfileDocument(s.now().UTC().Format(time.RFC3339))
	id, err := s.store.CreateUser(ctx, email, strings.TrimSpace(req.DisplayName), passwordHash, profile)
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return uuid.Nil, &ErrEmailAlreadyExists{Email: email}
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// Login authenticates a user and returns the stored account.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password look the same to the caller.
	if user == nil || !user.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// UpdateDisplayName changes the name shown for userID.
func (s *UserService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) error {
	ok, err := s.store.UpdateDisplayName(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	if !ok {
		return &ErrUserNotFound{UserID: userID.String()}
	}
	return nil
}
