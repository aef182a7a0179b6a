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

const routineColumns = `ref_id, uid, routine_name, workouts, created_at`

func scanRoutine(row pgx.Row) (*types.RoutineDocument, error) {
	var (
		refID, uid uuid.UUID
		doc        types.RoutineDocument
		workouts   []byte
		createdAt  time.Time
	)
	if err := row.Scan(&refID, &uid, &doc.RoutineName, &workouts, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(workouts, &doc.Workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts of routine %s: %w", refID, err)
	}
	if doc.Workouts == nil {
		doc.Workouts = []types.WorkoutEntry{}
	}
	doc.RefID = refID.String()
	doc.UID = uid.String()
	doc.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return &doc, nil
}

// CreateRoutine inserts an empty routine for uid. When limit > 0 and uid already owns
// limit routines it returns ErrRoutineLimit; the count and insert run in one
// transaction holding the user's row lock.
func (db *DB) CreateRoutine(ctx context.Context, uid uuid.UUID, name string, limit int) (*types.RoutineDocument, error) {
	var created *types.RoutineDocument
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, uid).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("user %s not found", uid)
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		if limit > 0 {
			var count int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM routines WHERE uid = $1`, uid).Scan(&count); err != nil {
				return fmt.Errorf("failed to count routines: %w", err)
			}
			if count >= limit {
				return ErrRoutineLimit
			}
		}

		doc, err := scanRoutine(tx.QueryRow(ctx,
			`INSERT INTO routines (ref_id, uid, routine_name) VALUES ($1, $2, $3)
			 RETURNING `+routineColumns,
			uuid.New(), uid, name,
		))
		if err != nil {
			return fmt.Errorf("failed to create routine: %w", err)
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListRoutines returns uid's routines, oldest first.
func (db *DB) ListRoutines(ctx context.Context, uid uuid.UUID) ([]types.RoutineDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE uid = $1 ORDER BY created_at ASC, ref_id`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	defer rows.Close()

	out := []types.RoutineDocument{}
	for rows.Next() {
		doc, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}
	return out, nil
}

// GetRoutine returns nil, nil when the routine does not exist.
func (db *DB) GetRoutine(ctx context.Context, refID uuid.UUID) (*types.RoutineDocument, error) {
	doc, err := scanRoutine(db.pool.QueryRow(ctx, `SELECT `+routineColumns+` FROM routines WHERE ref_id = $1`, refID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}
	return doc, nil
}

// ReplaceRoutine overwrites the editable parts of a routine (name and workouts).
// It reports false when the routine does not exist.
func (db *DB) ReplaceRoutine(ctx context.Context, refID uuid.UUID, doc types.RoutineDocument) (bool, error) {
	workouts := doc.Workouts
	if workouts == nil {
		workouts = []types.WorkoutEntry{}
	}
	workoutsJSON, err := json.Marshal(workouts)
	if err != nil {
		return false, fmt.Errorf("failed to marshal workouts: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE routines SET routine_name = $2, workouts = $3::jsonb, updated_at = NOW() WHERE ref_id = $1`,
		refID, doc.RoutineName, string(workoutsJSON),
	)
	if err != nil {
		return false, fmt.Errorf("failed to replace routine: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteRoutine reports false when the routine does not exist.
func (db *DB) DeleteRoutine(ctx context.Context, refID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM routines WHERE ref_id = $1`, refID)
	if err != nil {
		return false, fmt.Errorf("failed to delete routine: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
