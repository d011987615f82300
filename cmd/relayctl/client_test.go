package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTaskID = "5b1f5f3e-8a1e-4a53-9d7e-3c2f0e1a9b7c"

// fakeRelayAPI serves /api/upload and /api/file/{id}. The file endpoint
// reports processing for the first pendingPolls requests.
func fakeRelayAPI(t *testing.T, pendingPolls int32, final string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL           string `json:"url"`
			ForceDocument bool   `json:"force_document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"url: required field"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         testTaskID,
			"url":        req.URL,
			"status":     "pending",
			"created_at": time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	})
	mux.HandleFunc("/api/file/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/file/"):]
		w.Header().Set("Content-Type", "application/json")
		if id != testTaskID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Task not found"}`))
			return
		}
		if polls.Add(1) <= pendingPolls {
			w.WriteHeader(http.StatusTooEarly)
			_, _ = w.Write([]byte(`{"detail":{"id":"` + id + `","status":"processing","message":"File is still being processed"}}`))
			return
		}
		_, _ = w.Write([]byte(final))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

const completedBody = `{"id":"` + testTaskID + `","channel_message_id":"42","status":"completed","error_message":null}`
const failedBody = `{"id":"` + testTaskID + `","channel_message_id":null,"status":"failed","error_message":"failed to download file: HTTP 404"}`

func TestClient_Upload(t *testing.T) {
	srv, _ := fakeRelayAPI(t, 0, completedBody)
	client := NewClient(srv.URL+"/", nil)

	result, err := client.Upload(context.Background(), "https://example.com/a.png", true)

	require.NoError(t, err)
	assert.Equal(t, testTaskID, result.ID)
	assert.Equal(t, "https://example.com/a.png", result.URL)
	assert.Equal(t, "pending", result.Status)
	assert.False(t, result.CreatedAt.IsZero())
}

func TestClient_UploadValidationError(t *testing.T) {
	srv, _ := fakeRelayAPI(t, 0, completedBody)
	client := NewClient(srv.URL, nil)

	_, err := client.Upload(context.Background(), "", false)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "url: required field", apiErr.Detail)
}

func TestClient_Status(t *testing.T) {
	t.Run("in_flight", func(t *testing.T) {
		srv, _ := fakeRelayAPI(t, 1, completedBody)
		status, err := NewClient(srv.URL, nil).Status(context.Background(), testTaskID)

		require.NoError(t, err)
		assert.Equal(t, "processing", status.Status)
		assert.Equal(t, "File is still being processed", status.Message)
		assert.False(t, status.Done())
	})

	t.Run("completed", func(t *testing.T) {
		srv, _ := fakeRelayAPI(t, 0, completedBody)
		status, err := NewClient(srv.URL, nil).Status(context.Background(), testTaskID)

		require.NoError(t, err)
		assert.True(t, status.Done())
		require.NotNil(t, status.ChannelMessageID)
		assert.Equal(t, "42", *status.ChannelMessageID)
		assert.Nil(t, status.ErrorMessage)
	})

	t.Run("not_found", func(t *testing.T) {
		srv, _ := fakeRelayAPI(t, 0, completedBody)
		_, err := NewClient(srv.URL, nil).Status(context.Background(), "nope")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "Task not found", apiErr.Detail)
	})
}

func TestClient_Wait(t *testing.T) {
	srv, polls := fakeRelayAPI(t, 2, failedBody)
	client := NewClient(srv.URL, nil)

	var seen []string
	status, err := client.Wait(context.Background(), testTaskID, 5*time.Millisecond, func(s *TaskStatus) {
		seen = append(seen, s.Status)
	})

	require.NoError(t, err)
	assert.Equal(t, "failed", status.Status)
	require.NotNil(t, status.ErrorMessage)
	assert.Equal(t, "failed to download file: HTTP 404", *status.ErrorMessage)
	assert.Equal(t, []string{"processing", "processing"}, seen)
	assert.Equal(t, int32(3), polls.Load())
}

func TestClient_WaitContextDone(t *testing.T) {
	srv, _ := fakeRelayAPI(t, 1<<30, completedBody)
	client := NewClient(srv.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	status, err := client.Wait(ctx, testTaskID, 5*time.Millisecond, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, status)
	assert.Equal(t, "processing", status.Status)
}

func TestClient_WaitDeadlineDuringRequest(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) > 1 {
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooEarly)
		_, _ = w.Write([]byte(`{"detail":{"id":"` + testTaskID + `","status":"pending","message":"File is still being processed"}}`))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	status, err := NewClient(srv.URL, nil).Wait(ctx, testTaskID, 5*time.Millisecond, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, status)
	assert.Equal(t, "pending", status.Status)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestClient_WaitRejectsNonPositiveInterval(t *testing.T) {
	srv, polls := fakeRelayAPI(t, 0, completedBody)
	client := NewClient(srv.URL, nil)

	for _, interval := range []time.Duration{0, -time.Second} {
		status, err := client.Wait(context.Background(), testTaskID, interval, nil)
		assert.ErrorIs(t, err, ErrInvalidInterval)
		assert.Nil(t, status)
	}
	assert.Equal(t, int32(0), polls.Load())
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		pending    int32
		final      string
		args       func(base string) []string
		wantCode   int
		wantStdout string
	}{
		{
			name:  "upload",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "upload", "https://example.com/a.png"}
			},
			wantCode:   exitOK,
			wantStdout: `"status": "pending"`,
		},
		{
			name:    "upload_and_wait_completed",
			pending: 1,
			final:   completedBody,
			args: func(base string) []string {
				return []string{"upload", "https://example.com/a.png", "--server", base, "--wait", "--interval", "5ms"}
			},
			wantCode:   exitOK,
			wantStdout: `"channel_message_id": "42"`,
		},
		{
			name:  "upload_and_wait_failed",
			final: failedBody,
			args: func(base string) []string {
				return []string{"-s", base, "-w", "--interval", "5ms", "upload", "https://example.com/missing"}
			},
			wantCode:   exitFailed,
			wantStdout: `"status": "failed"`,
		},
		{
			name:  "status",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "status", testTaskID}
			},
			wantCode:   exitOK,
			wantStdout: `"status": "completed"`,
		},
		{
			name:  "status_not_found",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "status", "nope"}
			},
			wantCode: exitFailed,
		},
		{
			name:  "unknown_command",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "delete", testTaskID}
			},
			wantCode: exitUsage,
		},
		{
			name:  "missing_argument",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "upload"}
			},
			wantCode: exitUsage,
		},
		{
			name:  "zero_interval",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "--wait", "--interval", "0s", "upload", "https://example.com/a.png"}
			},
			wantCode: exitUsage,
		},
		{
			name:  "negative_timeout",
			final: completedBody,
			args: func(base string) []string {
				return []string{"--server", base, "--timeout", "-1s", "status", testTaskID}
			},
			wantCode: exitUsage,
		},
		{
			name:  "bad_flag",
			final: completedBody,
			args: func(string) []string {
				return []string{"--bogus"}
			},
			wantCode: exitUsage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := fakeRelayAPI(t, tc.pending, tc.final)
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tc.args(srv.URL), &stdout, &stderr)

			assert.Equal(t, tc.wantCode, code, "stderr: %s", stderr.String())
			if tc.wantStdout != "" {
				assert.Contains(t, stdout.String(), tc.wantStdout)
			}
		})
	}
}
