package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/fittrack/internal/db"
	"github.com/jonathan/fittrack/internal/types"
)

// Store is the persistence the API needs; *db.DB implements it. Lookups return
// nil, nil for missing rows and updates report whether a row matched.
type Store interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string, profile types.ProfileDocument) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) (bool, error)
	PatchProfile(ctx context.Context, id uuid.UUID, path []string, value any) (bool, error)

	CreateRoutine(ctx context.Context, uid uuid.UUID, name string, limit int) (*types.RoutineDocument, error)
	ListRoutines(ctx context.Context, uid uuid.UUID) ([]types.RoutineDocument, error)
	GetRoutine(ctx context.Context, refID uuid.UUID) (*types.RoutineDocument, error)
	ReplaceRoutine(ctx context.Context, refID uuid.UUID, doc types.RoutineDocument) (bool, error)
	DeleteRoutine(ctx context.Context, refID uuid.UUID) (bool, error)
}

var _ Store = (*db.DB)(nil)
