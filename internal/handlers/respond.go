package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

// requestTimeout bounds the store round trips of a single request.
const requestTimeout = 5 * time.Second

// ErrorResponse is the body of a 400 or 401 response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func writeEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// writeError maps service errors to status codes. Validation problems carry
// their message; not-found and internal failures have an empty body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: verr.Message})
	case errors.Is(err, services.ErrNotFound):
		writeEmpty(w, http.StatusNotFound)
	case errors.Is(err, services.ErrUnableToLogin):
		writeEmpty(w, http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthenticated):
		writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "Please authenticate."})
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeEmpty(w, http.StatusInternalServerError)
	}
}

var errInvalidBody = &utils.ValidationError{Message: "Invalid request body"}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &utils.ValidationError{Field: typeErr.Field, Message: typeErr.Field + " is invalid"}
		}
		return errInvalidBody
	}
	return nil
}

// decodeFields reads a patch body keeping every key the client sent, so the
// allow-list check sees all of them.
func decodeFields(r *http.Request) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := decodeBody(r, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errInvalidBody
	}
	return fields, nil
}
