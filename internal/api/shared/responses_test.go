package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"abc"}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	t.Run("string detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/file/x", nil)

		RespondWithError(w, r, http.StatusNotFound, "Task not found")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail":"Task not found"}`, w.Body.String())
	})

	t.Run("object detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/file/x", nil)

		RespondWithError(w, r, http.StatusTooEarly, map[string]string{"status": "pending"})

		assert.JSONEq(t, `{"detail":{"status":"pending"}}`, w.Body.String())
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantLevel: "WARN"},
		{name: "client error", status: http.StatusUnprocessableEntity, wantLevel: "DEBUG"},
		{
			name:      "elevated client error",
			status:    http.StatusNotFound,
			opts:      []ResponseOption{WithElevatedLogLevel()},
			wantLevel: "WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			log := logger.New(buf, "debug")
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
			r = r.WithContext(logger.WithLogger(SetTraceID(r.Context()), log))

			RespondWithErrorAndLog(w, r, tc.status, "safe message", errors.New("internal detail"), tc.opts...)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "safe message", body["detail"])
			assert.NotContains(t, w.Body.String(), "internal detail")

			entries, err := buf.GetLogEntries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.wantLevel, entries[0]["level"])
			assert.Equal(t, GetTraceID(r.Context()), entries[0]["trace_id"])
			assert.Equal(t, "internal detail", entries[0]["error"])
		})
	}
}
