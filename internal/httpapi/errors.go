package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"userSessionService/internal/auth"
	"userSessionService/pkg/errutil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorKind maps an error kind to its HTTP status and stable code.
type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{auth.ErrValidation, http.StatusBadRequest, "validation_error"},
	{auth.ErrUsernameTaken, http.StatusBadRequest, "username_taken"},
	{auth.ErrUnknownUsername, http.StatusBadRequest, "unknown_username"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{auth.ErrSessionNotFound, http.StatusUnauthorized, "session_expired"},
	{auth.ErrForbidden, http.StatusForbidden, "forbidden"},
	{auth.ErrNotFound, http.StatusNotFound, "not_found"},
	{auth.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

// writeError renders err. Expected outcomes are logged at info, everything else at error.
func writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		msg := err.Error()
		if k.status >= http.StatusInternalServerError {
			errutil.LogError(ctx, logger, "request failed", err)
			msg = "service temporarily unavailable"
			w.Header().Set("Retry-After", "1")
		} else {
			logger.InfoContext(ctx, "request rejected", "code", k.code, "reason", err.Error())
		}
		writeJSON(w, k.status, errorBody{Code: k.code, Message: msg})
		return
	}
	errutil.LogError(ctx, logger, "request failed", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
