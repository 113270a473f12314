package api

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

// EnvelopeVersion is the version of the response envelope.
const EnvelopeVersion = 1

// Envelope wraps every JSON response body.
type Envelope struct {
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Version int       `json:"v"`
	Success bool      `json:"success"`
}

// EnvelopeTransformer wraps handler output and errors in an Envelope.
// Register it on the huma config before creating the API.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if _, ok := v.(*Envelope); ok {
		return v, nil
	}

	code, err := strconv.Atoi(status)
	if err != nil {
		code = http.StatusOK
	}

	if code < http.StatusBadRequest {
		return &Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	return &Envelope{Version: EnvelopeVersion, Success: false, Error: toAPIError(code, v)}, nil
}

// toAPIError normalizes whatever huma hands the transformer for an error status.
func toAPIError(status int, v any) *APIError {
	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) {
		return apiErr
	}
	if err, ok := v.(error); ok {
		return newAPIError(status, err.Error())
	}
	apiErr = newAPIError(status, http.StatusText(status))
	apiErr.Details = v
	return apiErr
}

func newAPIError(status int, message string) *APIError {
	return &APIError{status: status, Code: string(domainerrors.CodeForStatus(status)), Message: message}
}

// writeError writes an enveloped error outside of huma, for chi middleware.
func writeError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	env := Envelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   newAPIError(status, message),
	}
	if err := json.MarshalWrite(w, env); err != nil && logger != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}
