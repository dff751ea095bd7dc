package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/logging"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogRequestError_Level(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantLevel string
		wantCode  string
	}{
		{"catalogued client error", core.ErrSessionNotFound, http.StatusNotFound, "WARN", "SES001"},
		{"uncatalogued error", errors.New("disk on fire"), http.StatusNotFound, "ERROR", "ERR000"},
		{"server error", &core.CommitError{Err: errors.New("connection reset")}, http.StatusBadGateway, "ERROR", "IMP002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			r := httptest.NewRequest(http.MethodGet, "/api/imports/x", nil)

			logRequestError(r, core.NewUserError(tt.err), tt.status)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantCode, entry["code"])
			assert.Equal(t, tt.err.Error(), entry["error"])
		})
	}
}

func TestNewErrorResponse_UsesUserMessage(t *testing.T) {
	resp := newErrorResponse(core.NewUserError(core.ErrNoFile))

	assert.Equal(t, "FILE005", resp.Code)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, resp.Message, resp.Error)
}
