package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/fittrack/internal/types"
)

// User is an account together with its profile document.
type User struct {
	ID           uuid.UUID             `json:"id"`
	Email        string                `json:"email"`
	DisplayName  string                `json:"display_name"`
	PasswordHash string                `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool                  `json:"password_set" db:"password_set"`
	Profile      types.ProfileDocument `json:"profile"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

const userColumns = `id, email, display_name, password_hash, password_set, profile, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var profile []byte
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.PasswordSet, &profile, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profile, &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile of user %s: %w", u.ID, err)
	}
	return &u, nil
}

// CreateUser inserts an account with its initial profile document.
func (db *DB) CreateUser(ctx context.Context, email, displayName, passwordHash string, profile types.ProfileDocument) (uuid.UUID, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	id := uuid.New()
	_, err = db.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, password_set, profile)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, displayName, passwordHash, passwordHash != "", string(profileJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser returns nil, nil when the user does not exist.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns nil, nil when no account uses email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// UpdateDisplayName reports false when the user does not exist.
func (db *DB) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET display_name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return false, fmt.Errorf("failed to update display name: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PatchProfile sets one value inside the profile document. path is the dotted path
// split into its keys; missing intermediate objects are not created.
func (db *DB) PatchProfile(ctx context.Context, id uuid.UUID, path []string, value any) (bool, error) {
	if len(path) == 0 {
		return false, fmt.Errorf("empty profile path")
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal profile value: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET profile = jsonb_set(profile, $2::text[], $3::jsonb, true), updated_at = NOW()
		 WHERE id = $1`,
		id, path, string(valueJSON),
	)
	if err != nil {
		return false, fmt.Errorf("failed to patch profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteUser removes the user and, by cascade, their routines.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
