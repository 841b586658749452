package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userSessionService/internal/auth"
	"userSessionService/repository"
)

func TestWriteError_StatusAndLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		logError bool
	}{
		{"session gone", oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound), http.StatusUnauthorized, "session_expired", false},
		{"forbidden", oops.Wrap(auth.ErrForbidden), http.StatusForbidden, "forbidden", false},
		{"store down", repository.Unavailable("get session", errors.New("disk I/O error")), http.StatusServiceUnavailable, "store_unavailable", true},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			rec := httptest.NewRecorder()

			writeError(context.Background(), rec, logger, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.logError, bytes.Contains(logs.Bytes(), []byte("level=ERROR")), logs.String())
		})
	}
}
