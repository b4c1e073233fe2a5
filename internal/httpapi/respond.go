package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-literacy/internal/ai"
	"github.com/p-n-ai/pai-literacy/internal/audit"
	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/grading"
	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

const maxBodyBytes = 64 << 10

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("missing caller identity")
	errForbidden    = errors.New("forbidden")
	errUnavailable  = errors.New("feature not configured")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// writeError maps err to a status code and writes {"error": "..."}.
// Server-side failures are logged and their detail is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status >= 500 {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		msg = http.StatusText(status)
		if status == http.StatusServiceUnavailable || status == http.StatusBadGateway {
			msg = rootMessage(err)
		}
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, tracker.ErrInvalidActivity),
		errors.Is(err, audit.ErrInvalid),
		errors.Is(err, grading.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, progress.ErrNotFound),
		errors.Is(err, curriculum.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, grading.ErrBudgetExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, grading.ErrInvalidVerdict):
		return http.StatusBadGateway
	case errors.Is(err, tracker.ErrLogUnavailable),
		errors.Is(err, ai.ErrNoProvider),
		errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// rootMessage returns the sentinel text for known unavailability errors.
func rootMessage(err error) string {
	for _, s := range []error{tracker.ErrLogUnavailable, ai.ErrNoProvider, errUnavailable, grading.ErrInvalidVerdict} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "service unavailable"
}

// decode reads the body, validates it against schema and unmarshals it
// into v.
func decode(w http.ResponseWriter, r *http.Request, schema *gojsonschema.Schema, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", errBadRequest, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %w", errBadRequest, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", errBadRequest, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
