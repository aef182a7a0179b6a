package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fittrack/internal/db"
	"github.com/jonathan/fittrack/internal/types"
)

// memStore is an in-memory Store with the same contract as *db.DB.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*db.User
	routines map[uuid.UUID]*types.RoutineDocument
	clock    time.Time
	// failWith, when set, is returned by every call.
	failWith error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*db.User),
		routines: make(map[uuid.UUID]*types.RoutineDocument),
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so list order is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func copyUser(u *db.User) *db.User {
	out := *u
	out.Profile = u.Profile.Clone()
	return &out
}

func (m *memStore) CreateUser(_ context.Context, email, displayName, passwordHash string, profile types.ProfileDocument) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return uuid.Nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return uuid.Nil, db.ErrEmailTaken
		}
	}
	now := m.tick()
	id := uuid.New()
	m.users[id] = &db.User{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		PasswordSet:  passwordHash != "",
		Profile:      profile.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return id, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateDisplayName(_ context.Context, id uuid.UUID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.DisplayName = name
	u.UpdatedAt = m.tick()
	return true, nil
}

// PatchProfile mirrors jsonb_set: the last key is created, intermediate objects must exist.
func (m *memStore) PatchProfile(_ context.Context, id uuid.UUID, path []string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}

	raw, err := json.Marshal(u.Profile)
	if err != nil {
		return false, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	node := doc
	for _, key := range path[:len(path)-1] {
		next, ok := node[key].(map[string]any)
		if !ok {
			return true, nil
		}
		node = next
	}
	node[path[len(path)-1]] = value

	raw, err = json.Marshal(doc)
	if err != nil {
		return false, err
	}
	var profile types.ProfileDocument
	if err := json.Unmarshal(raw, &profile); err != nil {
		return false, fmt.Errorf("failed to patch profile: %w", err)
	}
	u.Profile = profile
	u.UpdatedAt = m.tick()
	return true, nil
}

func (m *memStore) CreateRoutine(_ context.Context, uid uuid.UUID, name string, limit int) (*types.RoutineDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, ok := m.users[uid]; !ok {
		return nil, fmt.Errorf("user %s not found", uid)
	}
	if limit > 0 {
		count := 0
		for _, r := range m.routines {
			if r.UID == uid.String() {
				count++
			}
		}
		if count >= limit {
			return nil, db.ErrRoutineLimit
		}
	}
	refID := uuid.New()
	doc := &types.RoutineDocument{
		RoutineName: name,
		UID:         uid.String(),
		CreatedAt:   m.tick().Format(time.RFC3339),
		RefID:       refID.String(),
		Workouts:    []types.WorkoutEntry{},
	}
	m.routines[refID] = doc
	out := doc.Clone()
	return &out, nil
}

func (m *memStore) ListRoutines(_ context.Context, uid uuid.UUID) ([]types.RoutineDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []types.RoutineDocument
	for _, r := range m.routines {
		if r.UID == uid.String() {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *memStore) GetRoutine(_ context.Context, refID uuid.UUID) (*types.RoutineDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	r, ok := m.routines[refID]
	if !ok {
		return nil, nil
	}
	out := r.Clone()
	return &out, nil
}

func (m *memStore) ReplaceRoutine(_ context.Context, refID uuid.UUID, doc types.RoutineDocument) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	r, ok := m.routines[refID]
	if !ok {
		return false, nil
	}
	next := doc.Clone()
	r.RoutineName = next.RoutineName
	r.Workouts = next.Workouts
	return true, nil
}

func (m *memStore) DeleteRoutine(_ context.Context, refID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	if _, ok := m.routines[refID]; !ok {
		return false, nil
	}
	delete(m.routines, refID)
	return true, nil
}

// setTier overwrites a user's subscription tier.
func (m *memStore) setTier(id uuid.UUID, tier types.SubscriptionTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Profile.Settings.SubscriptionTier = &tier
}
