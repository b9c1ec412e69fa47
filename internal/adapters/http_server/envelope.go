package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/domain"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func respond(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Code: status, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string, fields map[string][]string) {
	writeJSON(w, status, envelope{Success: false, Code: status, Message: msg, Errors: fields})
}

// writeError maps a service error onto the envelope. Unknown errors are 500
// and only show their text when debug is on.
func writeError(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	var (
		ve  *domain.ValidationError
		br  *domain.BadRequestError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		fail(w, http.StatusUnprocessableEntity, "The given data was invalid", ve.Fields)
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, domain.ErrForbidden):
		fail(w, http.StatusForbidden, "This picture does not belong to the given hotel", nil)
	case errors.As(err, &br):
		fail(w, http.StatusBadRequest, br.Msg, nil)
	case errors.As(err, &mbe), strings.Contains(err.Error(), "request body too large"):
		fail(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		msg := "Internal server error"
		if debug {
			msg = err.Error()
		}
		fail(w, http.StatusInternalServerError, msg, nil)
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}
