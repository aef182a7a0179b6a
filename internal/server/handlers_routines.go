package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/db"
	"github.com/jonathan/fittrack/internal/schemas"
	"github.com/jonathan/fittrack/internal/types"
)

// handleListRoutines serves GET /api/v1/user/routine/{uid}/{idToken}.
func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUser(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	routines, err := s.store.ListRoutines(r.Context(), uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if routines == nil {
		routines = []types.RoutineDocument{}
	}
	s.jsonResponse(w, http.StatusOK, types.RoutineListResponse{Data: routines})
}

// ownedRoutine loads {refId} and checks that the token's user owns it.
func (s *Server) ownedRoutine(r *http.Request) (uuid.UUID, *types.RoutineDocument, error) {
	raw := r.PathValue("refId")
	refID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, &ErrRoutineNotFound{RefID: raw}
	}
	owner, err := tokenUser(r)
	if err != nil {
		return uuid.Nil, nil, err
	}

	doc, err := s.store.GetRoutine(r.Context(), refID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if doc == nil {
		return uuid.Nil, nil, &ErrRoutineNotFound{RefID: raw}
	}
	if doc.UID != owner.String() {
		return uuid.Nil, nil, &ErrForbidden{}
	}
	return refID, doc, nil
}

// handleGetRoutine serves GET /api/v1/user/routine/single/{refId}/{idToken}.
func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	_, doc, err := s.ownedRoutine(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.RoutineResponse{Data: *doc})
}

// handleReplaceRoutine serves PUT /api/v1/user/routine/single/{refId}/{idToken}. The
// body replaces the routine's name and workouts; RefId, UID and CreatedAt stay as
// stored.
func (s *Server) handleReplaceRoutine(w http.ResponseWriter, r *http.Request) {
	refID, _, err := s.ownedRoutine(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if err := schemas.ValidateBytes(schemas.Routine, body); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, &ErrValidation{Field: "routine", Message: err.Error()})
		return
	}

	var doc types.RoutineDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		s.fail(w, r, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if err := doc.Validate(); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	ok, err := s.store.ReplaceRoutine(r.Context(), refID, doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, &ErrRoutineNotFound{RefID: refID.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "successfully updated routine"})
}

// handleDeleteRoutine serves DELETE /api/v1/user/routine/single/{refId}/{idToken}.
func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	refID, _, err := s.ownedRoutine(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ok, err := s.store.DeleteRoutine(r.Context(), refID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, &ErrRoutineNotFound{RefID: refID.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "successfully deleted routine"})
}

// handleCreateRoutine serves POST /api/v1/user/routine/create. The id token travels
// in the body, so this route sits outside the token middleware.
func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req types.CreateRoutineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	claims, err := s.jwtService.ValidateToken(req.IDToken)
	if err != nil {
		errorResponse(w, s.logger, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	uid, err := uuid.Parse(req.UID)
	if err != nil || uid != claims.GetUserID() {
		s.fail(w, r, &ErrForbidden{})
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

	limit := 0
	if user.Profile.Tier() != types.TierPro {
		limit = s.freeTierLimit
	}

	doc, err := s.store.CreateRoutine(r.Context(), uid, req.RoutineName, limit)
	if errors.Is(err, db.ErrRoutineLimit) {
		s.fail(w, r, &ErrRoutineLimit{Limit: limit})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("routine created",
		zap.String("uid", uid.String()),
		zap.String("ref_id", doc.RefID))
	s.jsonResponse(w, http.StatusCreated, types.CreateRoutineResponse{
		Message: "successfully created routine",
		RefID:   doc.RefID,
	})
}
