package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/types"
)

// AuthHandler handles registration, login and display-name changes.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Register handles POST /api/v1/register/email.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failResponse(w, r, h.logger, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		failResponse(w, r, h.logger, validationError(err))
		return
	}

	id, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		failResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered", zap.String("uid", id.String()))
	jsonResponse(w, h.logger, http.StatusOK, types.MessageResponse{Message: "successfully created new user"})
}

// Login handles POST /api/v1/login/email and mints the id token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failResponse(w, r, h.logger, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		failResponse(w, r, h.logger, validationError(err))
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		failResponse(w, r, h.logger, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		failResponse(w, r, h.logger, err)
		return
	}

	jsonResponse(w, h.logger, http.StatusOK, types.LoginResponse{
		Message:     "successfully logged in user",
		IDToken:     token,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		UID:         user.ID.String(),
	})
}

// UpdateDisplayName handles PUT /api/v1/user/displayname/{uid}/{idToken}.
func (h *AuthHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUser(r)
	if err != nil {
		failResponse(w, r, h.logger, err)
		return
	}

	var req types.DisplayNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		failResponse(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		failResponse(w, r, h.logger, validationError(err))
		return
	}

	if err := h.userService.UpdateDisplayName(r.Context(), uid, req.DisplayName); err != nil {
		failResponse(w, r, h.logger, err)
		return
	}
	jsonResponse(w, h.logger, http.StatusOK, types.MessageResponse{Message: "successfully updated display name"})
}
