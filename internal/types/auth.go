package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest creates an account and its profile document.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayname" validate:"required,min=1,max=64"`
}

// LoginRequest exchanges credentials for an id token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the id token used in every path-token route.
type LoginResponse struct {
	Message     string `json:"message"`
	IDToken     string `json:"idToken"`
	Email       string `json:"email"`
	DisplayName string `json:"displayname"`
	UID         string `json:"uid"`
}

// DisplayNameRequest changes the name the identity service holds for a user.
type DisplayNameRequest struct {
	DisplayName string `json:"displayName" validate:"required,min=1,max=64"`
}

// CreateRoutineRequest creates an empty routine owned by UID.
type CreateRoutineRequest struct {
	RoutineName string `json:"RoutineName" validate:"required,max=100"`
	UID         string `json:"UID" validate:"required"`
	IDToken     string `json:"IdToken" validate:"required"`
}

// MessageResponse is a plain success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the failure body. Its presence, not the status code, marks failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the health check body.
type StatusResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Validate validates the RegisterRequest.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the LoginRequest.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the DisplayNameRequest.
func (r *DisplayNameRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CreateRoutineRequest.
func (r *CreateRoutineRequest) Validate() error {
	return validate.Struct(r)
}

// CreateRoutineResponse reports the RefId of a newly created routine.
type CreateRoutineResponse struct {
	Message string `json:"message"`
	RefID   string `json:"RefId"`
}
