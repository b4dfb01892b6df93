package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "articly/pkg/errors"
	"articly/pkg/logger"
)

// SuccessResponse is the standard success envelope
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorBody represents the error payload inside the envelope
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// errorEnvelope is the standard error envelope
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// writeSuccess writes a success envelope with the given status code
func writeSuccess(w http.ResponseWriter, log *logger.Logger, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := SuccessResponse{Success: true, Data: data, Message: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps an error to the error envelope. AppErrors keep their type
// and status; anything else becomes an opaque internal error.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	statusCode := http.StatusInternalServerError
	body := ErrorBody{Type: string(apperrors.ErrorTypeInternal), Message: "Internal server error"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		statusCode = appErr.StatusCode
		body.Type = string(appErr.Type)
		body.Message = appErr.Message
	}

	if statusCode >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encodeErr := json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: body}); encodeErr != nil {
		log.WithError(encodeErr).Error("Failed to encode error response")
	}
}

// decodeJSON decodes a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid JSON body", nil)
	}
	return nil
}
