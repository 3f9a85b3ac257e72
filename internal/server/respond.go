package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/emberwiki/emberwiki/wiki"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error                 string `json:"error"`
	Field                 string `json:"field,omitempty"`
	CurrentRevisionNumber int    `json:"currentRevisionNumber,omitempty"`
}

func writeJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps a service error onto an HTTP status and JSON body.
// Conflicts carry the current revision number so the client can reload
// and resubmit; rate limits carry a Retry-After header.
func writeError(rw http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var validation *wiki.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}

	var conflict *wiki.ConflictError
	if errors.As(err, &conflict) {
		resp.CurrentRevisionNumber = conflict.CurrentRevisionNumber
	}

	var limited *wiki.RateLimitError
	if errors.As(err, &limited) {
		seconds := int(math.Ceil(limited.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		rw.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		resp.Error = "internal error"
	}
	writeJSON(rw, status, resp)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, wiki.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, wiki.ErrUnauthorized) || errors.Is(err, wiki.ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, wiki.ErrForbidden) || errors.Is(err, wiki.ErrStaffRequired):
		return http.StatusForbidden
	case errors.Is(err, wiki.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wiki.ErrConflict),
		errors.Is(err, wiki.ErrSlugTaken),
		errors.Is(err, wiki.ErrUsernameTaken),
		errors.Is(err, wiki.ErrEmailTaken),
		errors.Is(err, wiki.ErrRevisionExists):
		return http.StatusConflict
	case errors.Is(err, wiki.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
