package server

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/types"
)

func newTestUserService(t *testing.T) (*UserService, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewUserService(store, &config.PasswordConfig{BcryptCost: 10, Pepper: "pepper"})
	svc.now = func() time.Time { return time.Date(2026, 5, 17, 8, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestUserService_Register(t *testing.T) {
	svc, store := newTestUserService(t)

	id, err := svc.Register(t.Context(), &types.RegisterRequest{
		Email: "New@Example.com", Password: testPassword, DisplayName: "  Newbie ",
	})
	require.NoError(t, err)

	user, err := store.GetUser(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "Newbie", user.DisplayName)
	assert.True(t, user.PasswordSet)
	assert.Equal(t, types.NewProfileDocument("2026-05-17T08:30:00Z"), user.Profile)
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	svc, _ := newTestUserService(t)
	req := &types.RegisterRequest{Email: "a@example.com", Password: testPassword, DisplayName: "A"}

	_, err := svc.Register(t.Context(), req)
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), req)
	var exists *ErrEmailAlreadyExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "a@example.com", exists.Email)
}

func TestUserService_Login(t *testing.T) {
	svc, _ := newTestUserService(t)
	id, err := svc.Register(t.Context(), &types.RegisterRequest{Email: "b@example.com", Password: testPassword, DisplayName: "B"})
	require.NoError(t, err)

	user, err := svc.Login(t.Context(), &types.LoginRequest{Email: " B@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = svc.Login(t.Context(), &types.LoginRequest{Email: "b@example.com", Password: "nope-nope"})
	assert.ErrorAs(t, err, new(*ErrInvalidCredentials))

	_, err = svc.Login(t.Context(), &types.LoginRequest{Email: "ghost@example.com", Password: testPassword})
	assert.ErrorAs(t, err, new(*ErrInvalidCredentials))
}

func TestUserService_PepperMatters(t *testing.T) {
	svc, store := newTestUserService(t)
	_, err := svc.Register(t.Context(), &types.RegisterRequest{Email: "c@example.com", Password: testPassword, DisplayName: "C"})
	require.NoError(t, err)

	unpeppered := NewUserService(store, &config.PasswordConfig{BcryptCost: 10})
	_, err = unpeppered.Login(t.Context(), &types.LoginRequest{Email: "c@example.com", Password: testPassword})
	assert.ErrorAs(t, err, new(*ErrInvalidCredentials))
}

func TestUserService_UpdateDisplayName(t *testing.T) {
	svc, store := newTestUserService(t)

	err := svc.UpdateDisplayName(t.Context(), uuid.New(), "x")
	assert.ErrorAs(t, err, new(*ErrUserNotFound))

	store.failWith = errors.New("db down")
	err = svc.UpdateDisplayName(t.Context(), uuid.New(), "x")
	require.Error(t, err)
	assert.Equal(t, 500, HTTPStatus(err))
}
