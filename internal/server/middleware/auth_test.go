package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(userID), nil
}

type testClaims uuid.UUID

func (c testClaims) GetUserID() uuid.UUID {
	return uuid.UUID(c)
}

func newMux(t *testing.T, v TokenValidator, seen *uuid.UUID) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r)
		require.NoError(t, err)
		*seen = id
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /api/v1/user/{uid}/{idToken}", RequireToken(v)(handler))
	mux.Handle("GET /bearer", RequireToken(v)(handler))
	return mux
}

func TestRequireToken_PathToken(t *testing.T) {
	userID := uuid.New()
	v := &testTokenValidator{validTokens: map[string]uuid.UUID{"good": userID}}
	var seen uuid.UUID
	mux := newMux(t, v, &seen)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/user/"+userID.String()+"/good", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, seen)
}

func TestRequireToken_BearerFallback(t *testing.T) {
	userID := uuid.New()
	v := &testTokenValidator{validTokens: map[string]uuid.UUID{"good": userID}}
	var seen uuid.UUID
	mux := newMux(t, v, &seen)

	req := httptest.NewRequest(http.MethodGet, "/bearer", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, seen)
}

func TestRequireToken_Rejections(t *testing.T) {
	v := &testTokenValidator{validTokens: map[string]uuid.UUID{}}
	var seen uuid.UUID
	mux := newMux(t, v, &seen)

	tests := []struct {
		name   string
		path   string
		header string
	}{
		{"invalid path token", "/api/v1/user/u/bad", ""},
		{"no bearer", "/bearer", ""},
		{"wrong scheme", "/bearer", "Basic abc"},
		{"invalid bearer", "/bearer", "Bearer bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, uuid.Nil, seen)
}

func TestGetUserID_Missing(t *testing.T) {
	_, err := GetUserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), id))
	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
