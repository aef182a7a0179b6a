package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fittrack/internal/types"
)

func (ts *testServer) createRoutine(uid uuid.UUID, token, name string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/user/routine/create", types.CreateRoutineRequest{
		RoutineName: name, UID: uid.String(), IDToken: token,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[types.CreateRoutineResponse](ts.t, rec)
	require.NotEmpty(ts.t, resp.RefID)
	return resp.RefID
}

func TestCreateAndListRoutines(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("routines@example.com")

	first := ts.createRoutine(uid, token, "Push Pull Legs")
	second := ts.createRoutine(uid, token, "Upper Lower")

	rec := ts.do(http.MethodGet, "/api/v1/user/routine/"+uid.String()+"/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[types.RoutineListResponse](t, rec)
	require.Len(t, list.Data, 2)
	assert.Equal(t, first, list.Data[0].RefID)
	assert.Equal(t, second, list.Data[1].RefID)
	assert.Equal(t, "Push Pull Legs", list.Data[0].RoutineName)
	assert.Equal(t, uid.String(), list.Data[0].UID)
	assert.Empty(t, list.Data[0].Workouts)
}

func TestListRoutines_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("empty@example.com")

	rec := ts.do(http.MethodGet, "/api/v1/user/routine/"+uid.String()+"/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestCreateRoutine_FreeTierLimit(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("free@example.com")

	for _, name := range []string{"A", "B", "C"} {
		ts.createRoutine(uid, token, name)
	}

	rec := ts.do(http.MethodPost, "/api/v1/user/routine/create", types.CreateRoutineRequest{
		RoutineName: "D", UID: uid.String(), IDToken: token,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Free tier user cannot make more than 3 routines", errorOf(t, rec))

	// Pro users are not limited.
	ts.store.setTier(uid, types.TierPro)
	ts.createRoutine(uid, token, "D")
}

func TestCreateRoutine_TokenMustMatchUID(t *testing.T) {
	ts := newTestServer(t)
	victim, _ := ts.account("victim@example.com")
	_, token := ts.account("attacker@example.com")

	rec := ts.do(http.MethodPost, "/api/v1/user/routine/create", types.CreateRoutineRequest{
		RoutineName: "Sneaky", UID: victim.String(), IDToken: token,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/user/routine/create", types.CreateRoutineRequest{
		RoutineName: "Sneaky", UID: victim.String(), IDToken: "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/user/routine/create", types.CreateRoutineRequest{UID: victim.String(), IDToken: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func sampleRoutine(name string) types.RoutineDocument {
	return types.RoutineDocument{
		RoutineName: name,
		Workouts: []types.WorkoutEntry{{
			WorkoutName: "Push",
			Exercises: []types.ExerciseEntry{{
				ExerciseName: "Bench Press",
				MuscleGroup:  types.Chest,
				Sets: []types.SetEntry{
					{Reps: 5, Weight: 185, IsWarmUp: false},
					{Reps: 8, Weight: 135, IsDropSet: true},
				},
			}},
		}},
	}
}

func TestReplaceAndGetRoutine(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("replace@example.com")
	refID := ts.createRoutine(uid, token, "Original")
	path := "/api/v1/user/routine/single/" + refID + "/" + token

	before := decode[types.RoutineResponse](t, ts.do(http.MethodGet, path, nil)).Data

	doc := sampleRoutine("Renamed")
	// Server-owned fields in the body are ignored.
	doc.UID = uuid.NewString()
	doc.RefID = uuid.NewString()
	doc.CreatedAt = "1999-01-01T00:00:00Z"

	rec := ts.do(http.MethodPut, path, doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[types.RoutineResponse](t, rec).Data
	assert.Equal(t, "Renamed", got.RoutineName)
	assert.Equal(t, sampleRoutine("").Workouts, got.Workouts)
	assert.Equal(t, refID, got.RefID)
	assert.Equal(t, uid.String(), got.UID)
	assert.Equal(t, before.CreatedAt, got.CreatedAt)
}

func TestReplaceRoutine_Validation(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("invalid@example.com")
	refID := ts.createRoutine(uid, token, "Keep Me")
	path := "/api/v1/user/routine/single/" + refID + "/" + token

	negative := sampleRoutine("Bad")
	negative.Workouts[0].Exercises[0].Sets[0].Weight = -5
	negativeJSON, err := json.Marshal(negative)
	require.NoError(t, err)

	badGroup := sampleRoutine("Bad")
	badGroup.Workouts[0].Exercises[0].MuscleGroup = 42
	badGroupJSON, err := json.Marshal(badGroup)
	require.NoError(t, err)

	for name, body := range map[string][]byte{
		"negative weight":   negativeJSON,
		"muscle group":      badGroupJSON,
		"missing name":      []byte(`{"Workouts": []}`),
		"workouts not list": []byte(`{"RoutineName": "x", "Workouts": {}}`),
		"malformed":         []byte(`{"RoutineName":`),
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(http.MethodPut, path, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	got := decode[types.RoutineResponse](t, ts.do(http.MethodGet, path, nil)).Data
	assert.Equal(t, "Keep Me", got.RoutineName)
}

func TestRoutine_Ownership(t *testing.T) {
	ts := newTestServer(t)
	owner, ownerToken := ts.account("owner@example.com")
	_, otherToken := ts.account("other@example.com")
	refID := ts.createRoutine(owner, ownerToken, "Mine")
	path := "/api/v1/user/routine/single/" + refID + "/" + otherToken

	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPut, path, sampleRoutine("Stolen")).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/v1/user/routine/"+owner.String()+"/"+otherToken, nil).Code)
}

func TestRoutine_NotFound(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.account("missing@example.com")

	rec := ts.do(http.MethodGet, "/api/v1/user/routine/single/"+uuid.NewString()+"/"+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorOf(t, rec), "not found")

	rec = ts.do(http.MethodGet, "/api/v1/user/routine/single/not-a-uuid/"+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRoutine(t *testing.T) {
	ts := newTestServer(t)
	uid, token := ts.account("delete@example.com")
	refID := ts.createRoutine(uid, token, "Doomed")
	path := "/api/v1/user/routine/single/" + refID + "/" + token

	rec := ts.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, path, nil).Code)

	// Deleting frees a Free-tier slot.
	for _, name := range []string{"A", "B", "C"} {
		ts.createRoutine(uid, token, name)
	}
}
