package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID string
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrRoutineNotFound indicates the routine does not exist
type ErrRoutineNotFound struct {
	RefID string
}

func (e *ErrRoutineNotFound) Error() string {
	return fmt.Sprintf("routine not found: %s", e.RefID)
}

// ErrForbidden indicates the token's user may not touch the addressed document
type ErrForbidden struct{}

func (e *ErrForbidden) Error() string {
	return "id token does not belong to this user"
}

// ErrRoutineLimit indicates a Free user already owns the maximum number of routines
type ErrRoutineLimit struct {
	Limit int
}

func (e *ErrRoutineLimit) Error() string {
	return fmt.Sprintf("Free tier user cannot make more than %d routines", e.Limit)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailExists     *ErrEmailAlreadyExists
		badCredentials  *ErrInvalidCredentials
		userNotFound    *ErrUserNotFound
		routineNotFound *ErrRoutineNotFound
		forbidden       *ErrForbidden
		routineLimit    *ErrRoutineLimit
		validation      *ErrValidation
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound), errors.As(err, &routineNotFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden), errors.As(err, &routineLimit):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
