package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"spot_rental/internal/domain"
)

const (
	msgResourceNotFound = "The requested resource couldn't be found."
	msgAuthRequired     = "Authentication required"
	maxBodyBytes        = 1 << 20
)

// status is the {message,statusCode} envelope used for 404, 403, 401 and deletes.
type status struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type validationBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

// fallback is the envelope for everything the handlers do not classify.
type fallback struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Stack   string   `json:"stack,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, status{Message: msg, StatusCode: code})
}

func writeFallback(w http.ResponseWriter, code int, body fallback) {
	writeJSON(w, code, body)
}

func serverError(err error) fallback {
	return fallback{Title: "Server Error", Message: "Internal server error", Errors: []string{err.Error()}}
}

// writeError maps a service error onto its envelope and status code.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		de *domain.Error
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, validationBody{Message: "Validation Error", StatusCode: http.StatusBadRequest, Error: ve.Message})
	case errors.As(err, &de) && errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusNotFound, de.Message)
	case errors.As(err, &de) && errors.Is(err, domain.ErrForbidden):
		writeStatus(w, http.StatusForbidden, de.Message)
	case errors.As(err, &de) && errors.Is(err, domain.ErrInvalidCredentials):
		writeStatus(w, http.StatusUnauthorized, de.Message)
	case errors.As(err, &de) && errors.Is(err, domain.ErrInvalidData):
		writeFallback(w, http.StatusBadRequest, fallback{Title: "Validation error", Message: "Validation error", Errors: []string{de.Message}})
	default:
		log.Error().Err(err).
			Str("route", routeOf(r)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request failed")
		body := serverError(err)
		if h.Dev {
			body.Stack = err.Error()
		} else {
			body.Errors = nil
		}
		writeFallback(w, http.StatusInternalServerError, body)
	}
}

// bodyMarker is implemented by payloads that report an unreadable body
// themselves, once the target row has been checked.
type bodyMarker interface{ MarkMalformed() }

// decodeJSON reads one JSON object into dst. A malformed body is recorded on
// dst when it supports that, and reported as a validation failure otherwise.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		if m, ok := dst.(bodyMarker); ok {
			m.MarkMalformed()
			return nil
		}
		return &domain.ValidationError{Field: "body", Message: "Request body must be a JSON object"}
	}
	return nil
}

// pathID parses an integer route parameter. Anything else cannot name a row.
func pathID(r *http.Request, name, entity string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NotFound(entity)
	}
	return id, nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes a 200 with a weak ETag, or 304 when the client already has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeFallback(w, http.StatusInternalServerError, fallback{Title: "Server Error", Message: "Internal server error"})
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write cached body")
	}
}
