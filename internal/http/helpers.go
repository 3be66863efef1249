package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/log"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

// writeError renders err with the status of its AppError, or as an internal
// error when it carries none.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
		appErr = apperr.ErrInternal
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{
		Kind:    string(appErr.Kind),
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func invalidParam(format string, args ...any) error {
	return apperr.WithMessage(apperr.ErrInvalidRange, fmt.Sprintf(format, args...))
}

// decodeBody reads a single JSON object into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidParam("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam("invalid id %q", raw)
	}
	return id, nil
}

func queryDate(r *http.Request, key string, fallback core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		if fallback.IsZero() {
			return core.Date{}, invalidParam("%s is required", key)
		}
		return fallback, nil
	}
	return queryDateValue(key, v)
}

func queryDateValue(key, v string) (core.Date, error) {
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, invalidParam("%s must be formatted as YYYY-MM-DD", key)
	}
	return d, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam("%s must be an integer", key)
	}
	return n, nil
}
