// Package handler exposes the services over a JSON HTTP API. Every response
// uses the envelope {"error": string|null, "data": ...}.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/despensa/internal/apperr"
)

type envelope struct {
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: &msg})
}

// writeError renders err with the status of its kind. Remote failures and
// foreign errors are logged; the rest are expected outcomes.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= 500 {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind.String(),
			"error", err,
		)
	}

	msg := err.Error()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		msg = "internal error"
	}
	writeMessage(w, status, msg)
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInvalidTransition, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRemoteFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v. A malformed body is a
// validation failure.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
