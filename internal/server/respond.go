package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; a routine document is far smaller.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes the {"error": message} envelope.
func errorResponse(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	jsonResponse(w, logger, status, map[string]string{"error": message})
}

// failResponse maps err to a status. Internal errors are logged and their text is
// not sent to the client.
func failResponse(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		errorResponse(w, logger, status, "internal server error")
		return
	}
	errorResponse(w, logger, status, err.Error())
}

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// validationError converts validator errors to ErrValidation, reporting the first.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Namespace(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}
