package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/nutricare/server/internal/apperr"
)

// errorBody is the JSON shape of every failed request
type errorBody struct {
	Message       string          `json:"message"`
	Field         string          `json:"field,omitempty"`
	MissingFields map[string]bool `json:"missingFields,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	AttemptsLeft  *int            `json:"attemptsLeft,omitempty"`
	LockUntil     *time.Time      `json:"lockUntil,omitempty"`
	RetryAfter    int             `json:"retryAfterSeconds,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, errorBody{Message: message})
}

// respondWithAppError maps a service error onto a status code by its kind
func respondWithAppError(w http.ResponseWriter, log *slog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error("unhandled error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	body := errorBody{Message: e.Message}
	status := http.StatusInternalServerError

	switch e.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		body.Field = e.Field
		body.MissingFields = e.Fields
	case apperr.KindDuplicateAccount:
		status = http.StatusBadRequest
		body.Field = e.Field
	case apperr.KindInvalidCredentials:
		status = http.StatusUnauthorized
	case apperr.KindAccountLocked:
		status = http.StatusTooManyRequests
		until := e.LockedUntil
		secs := int(math.Ceil(e.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		minutes := (secs + 59) / 60
		body.LockUntil = &until
		body.RetryAfter = secs
		body.Message = "Account is temporarily locked due to too many failed login attempts. Please try again in " +
			strconv.Itoa(minutes) + " minute(s)."
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	case apperr.KindOtpInvalid:
		status = http.StatusBadRequest
		if e.OtpReason == apperr.OtpMaxAttempts {
			status = http.StatusTooManyRequests
		}
		body.Reason = string(e.OtpReason)
		if e.OtpReason == apperr.OtpMismatch {
			left := e.AttemptsLeft
			body.AttemptsLeft = &left
		}
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
		body.Reason = e.Reason
	case apperr.KindDependency:
		log.Error("dependency failure", "message", e.Message, "error", e.Err)
	}

	respondJSON(w, status, body)
}

// decodeJSON reads the request body into v; false means a response was sent
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
