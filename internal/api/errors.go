package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"petalz/internal/handoff"
)

const maxBodyBytes = 64 << 10

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []handoff.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, verr *handoff.ValidationError) {
	writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: APIError{
		Code:    "validation_failed",
		Message: verr.Error(),
		Fields:  verr.Fields,
	}})
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
