package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

func TestGetProfile(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("profile@example.com")

	rec := ts.do(http.MethodGet, "/api/v1/user/"+uid.String()+"/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[types.ProfileResponse](t, rec)
	assert.Equal(t, "successfully retrieved user profile", resp.Message)
	assert.Equal(t, "Test User", resp.DisplayName)
	assert.Equal(t, units.Imperial, resp.Data.Settings.UnitsPreference)
	assert.Equal(t, types.TierFree, resp.Data.Tier())
}

func TestGetProfile_Ownership(t *testing.T) {
	ts := newTestServer(t)
	other, _ := ts.account("other@example.com")
	_, token := ts.account("me@example.com")

	rec := ts.do(http.MethodGet, "/api/v1/user/"+other.String()+"/"+token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/user/not-a-uuid/"+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchProfile(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("patch@example.com")
	path := "/api/v1/user/" + uid.String() + "/" + token

	for _, body := range []string{
		`{"Metrics.Weight": 185}`,
		`{"Metrics.Height": 5.9}`,
		`{"Settings.UnitsPreference": "Metric"}`,
		`{"CurrentGoal": "Bulk"}`,
	} {
		rec := ts.do(http.MethodPut, path, []byte(body))
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", body, rec.Body.String())
	}

	user, err := ts.store.GetUser(t.Context(), uid)
	require.NoError(t, err)
	assert.Equal(t, 185.0, user.Profile.Metrics.Weight)
	assert.Equal(t, 5.9, user.Profile.Metrics.Height)
	assert.Equal(t, units.Metric, user.Profile.Settings.UnitsPreference)
	assert.Equal(t, "Bulk", user.Profile.CurrentGoal)
	// untouched fields survive a partial write
	assert.Equal(t, types.TierFree, user.Profile.Tier())
	assert.NotEmpty(t, user.Profile.Metrics.JoinDate)
}

func TestPatchProfile_Rejections(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("reject@example.com")
	path := "/api/v1/user/" + uid.String() + "/" + token

	tests := []struct {
		name string
		body string
	}{
		{name: "two fields", body: `{"Metrics.Weight": 1, "Metrics.Height": 2}`},
		{name: "empty", body: `{}`},
		{name: "tier is server owned", body: `{"Settings.SubscriptionTier": "Pro"}`},
		{name: "join date is read only", body: `{"Metrics.JoinDate": "2020-01-01"}`},
		{name: "negative weight", body: `{"Metrics.Weight": -3}`},
		{name: "weight as string", body: `{"Metrics.Weight": "heavy"}`},
		{name: "unknown unit system", body: `{"Settings.UnitsPreference": "Furlongs"}`},
		{name: "goal as number", body: `{"CurrentGoal": 7}`},
		{name: "not an object", body: `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPut, path, []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorOf(t, rec))
		})
	}

	user, err := ts.store.GetUser(t.Context(), uid)
	require.NoError(t, err)
	assert.Equal(t, types.NewProfileDocument(user.Profile.Metrics.JoinDate), user.Profile)
}

func TestPatchProfile_StoreFailureIsHidden(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("boom@example.com")
	ts.store.failWith = errors.New("connection reset by peer")

	rec := ts.do(http.MethodPut, "/api/v1/user/"+uid.String()+"/"+token, []byte(`{"CurrentGoal": "Cut"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorOf(t, rec))
}
