package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/register/email", types.RegisterRequest{
		Email: "  Lifter@Example.com ", Password: testPassword, DisplayName: "Lifter",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "successfully created new user", decode[types.MessageResponse](t, rec).Message)

	user, err := ts.store.GetUserByEmail(t.Context(), "lifter@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Lifter", user.DisplayName)
	assert.NotEqual(t, testPassword, user.PasswordHash)

	// New accounts start Imperial, Free, with zeroed metrics.
	assert.Equal(t, units.Imperial, user.Profile.Settings.UnitsPreference)
	assert.Equal(t, types.TierFree, user.Profile.Tier())
	assert.Zero(t, user.Profile.Metrics.Weight)
	assert.NotEmpty(t, user.Profile.Metrics.JoinDate)
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.account("dup@example.com")

	rec := ts.do(http.MethodPost, "/api/v1/register/email", types.RegisterRequest{
		Email: "DUP@example.com", Password: testPassword, DisplayName: "Again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorOf(t, rec), "already registered")
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "bad email", body: types.RegisterRequest{Email: "nope", Password: testPassword, DisplayName: "x"}},
		{name: "short password", body: types.RegisterRequest{Email: "a@example.com", Password: "short", DisplayName: "x"}},
		{name: "missing name", body: types.RegisterRequest{Email: "a@example.com", Password: testPassword}},
		{name: "malformed json", body: []byte(`{"email":`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/v1/register/email", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorOf(t, rec))
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("login@example.com")

	claims, err := ts.srv.jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)

	rec := ts.do(http.MethodPost, "/api/v1/login/email", types.LoginRequest{Email: "login@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[types.LoginResponse](t, rec)
	assert.Equal(t, "successfully logged in user", resp.Message)
	assert.Equal(t, "login@example.com", resp.Email)
	assert.Equal(t, "Test User", resp.DisplayName)
	assert.Equal(t, uid.String(), resp.UID)

	rec = ts.do(http.MethodPost, "/api/v1/login/email", types.LoginRequest{Email: " LOGIN@Example.com\t", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "login@example.com", decode[types.LoginResponse](t, rec).Email)
}

func TestAuthHandler_LoginFailuresLookAlike(t *testing.T) {
	ts := newTestServer(t)
	ts.account("known@example.com")

	wrongPassword := ts.do(http.MethodPost, "/api/v1/login/email", types.LoginRequest{Email: "known@example.com", Password: "wrong-password"})
	unknownEmail := ts.do(http.MethodPost, "/api/v1/login/email", types.LoginRequest{Email: "unknown@example.com", Password: testPassword})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, errorOf(t, wrongPassword), errorOf(t, unknownEmail))
}

func TestAuthHandler_UpdateDisplayName(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("name@example.com")

	rec := ts.do(http.MethodPut, "/api/v1/user/displayname/"+uid.String()+"/"+token, types.DisplayNameRequest{DisplayName: " Big Lifter "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := ts.store.GetUser(t.Context(), uid)
	require.NoError(t, err)
	assert.Equal(t, "Big Lifter", user.DisplayName)
}

func TestAuthHandler_UpdateDisplayNameOtherUser(t *testing.T) {
	ts := newTestServer(t)
	victim, _ := ts.account("victim@example.com")
	_, token := ts.account("attacker@example.com")

	rec := ts.do(http.MethodPut, "/api/v1/user/displayname/"+victim.String()+"/"+token, types.DisplayNameRequest{DisplayName: "pwned"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	user, err := ts.store.GetUser(t.Context(), victim)
	require.NoError(t, err)
	assert.Equal(t, "Test User", user.DisplayName)
}

func TestAuthHandler_BadToken(t *testing.T) {
	ts := newTestServer(t)
	uid, _ := ts.account("token@example.com")

	rec := ts.do(http.MethodPut, "/api/v1/user/displayname/"+uid.String()+"/not-a-jwt", types.DisplayNameRequest{DisplayName: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, errorOf(t, rec))
}
