package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/fittrack/internal/server/middleware"
	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

// tokenUser returns the user the verified id token belongs to.
func tokenUser(r *http.Request) (uuid.UUID, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, &ErrForbidden{}
	}
	return id, nil
}

// pathUser returns the {uid} of the route after checking it is the token's user.
func pathUser(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("uid")
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrUserNotFound{UserID: raw}
	}
	owner, err := tokenUser(r)
	if err != nil {
		return uuid.Nil, err
	}
	if owner != uid {
		return uuid.Nil, &ErrForbidden{}
	}
	return uid, nil
}

// handleGetProfile serves GET /api/v1/user/{uid}/{idToken}.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.store.GetUser(r.Context(), uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if user == nil {
		s.fail(w, r, &ErrUserNotFound{UserID: uid.String()})
		return
	}

	s.jsonResponse(w, http.StatusOK, types.ProfileResponse{
		Data:        user.Profile,
		Message:     "successfully retrieved user profile",
		DisplayName: user.DisplayName,
	})
}

// handlePatchProfile serves PUT /api/v1/user/{uid}/{idToken}. The body holds exactly
// one dotted path from types.PatchablePaths.
func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(body) != 1 {
		s.fail(w, r, &ErrValidation{Field: "body", Message: fmt.Sprintf("patch must contain exactly one field, got %d", len(body))})
		return
	}

	var path string
	var raw json.RawMessage
	for k, v := range body {
		path, raw = k, v
	}
	value, err := patchValue(path, raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ok, err := s.store.PatchProfile(r.Context(), uid, strings.Split(path, "."), value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, &ErrUserNotFound{UserID: uid.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "successfully updated user profile"})
}

// patchValue decodes and type-checks the value written at path.
func patchValue(path string, raw json.RawMessage) (any, error) {
	switch path {
	case types.PathWeight, types.PathHeight:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &ErrValidation{Field: path, Message: "must be a number"}
		}
		if v < 0 || math.IsInf(v, 0) {
			return nil, &ErrValidation{Field: path, Message: "must be a finite number >= 0"}
		}
		return v, nil
	case types.PathUnitsPreference:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &ErrValidation{Field: path, Message: "must be a string"}
		}
		sys := units.System(v)
		if !sys.Valid() {
			return nil, &ErrValidation{Field: path, Message: "must be Imperial or Metric"}
		}
		return sys, nil
	case types.PathCurrentGoal:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &ErrValidation{Field: path, Message: "must be a string"}
		}
		return v, nil
	default:
		return nil, &ErrValidation{Field: path, Message: "field cannot be patched"}
	}
}
