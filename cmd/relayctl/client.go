package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// APIError is a non-success response from the relay API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("relay API returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("relay API returned HTTP %d: %s", e.StatusCode, e.Detail)
}

// UploadResult is the accepted-task response of POST /api/upload.
type UploadResult struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskStatus is the state of a task as reported by GET /api/file/{id}.
type TaskStatus struct {
	ID               string  `json:"id"`
	Status           string  `json:"status"`
	ChannelMessageID *string `json:"channel_message_id,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	Message          string  `json:"message,omitempty"`
}

// Done reports whether the task reached a terminal state.
func (s *TaskStatus) Done() bool {
	return s.Status == "completed" || s.Status == "failed"
}

// Client talks to a relay API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL. A nil httpClient uses a pooled
// client with sane timeouts.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Upload submits rawURL for relaying.
func (c *Client) Upload(ctx context.Context, rawURL string, forceDocument bool) (*UploadResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"url":            rawURL,
		"force_document": forceDocument,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result UploadResult
	if err := c.do(req, []int{http.StatusCreated}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status fetches the current state of a task. Tasks still in flight are
// reported without error and with Done() false.
func (c *Client) Status(ctx context.Context, id string) (*TaskStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/file/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var status TaskStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &status, nil
	case http.StatusTooEarly:
		var body struct {
			Detail TaskStatus `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &body.Detail, nil
	default:
		return nil, readAPIError(resp)
	}
}

// ErrInvalidInterval is returned by Wait for a non-positive poll interval.
var ErrInvalidInterval = errors.New("poll interval must be positive")

// Wait polls Status every interval until the task is terminal or ctx is done.
// When ctx ends first, the last status seen is returned with ctx.Err().
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration, progress func(*TaskStatus)) (*TaskStatus, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *TaskStatus
	for {
		status, err := c.Status(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return last, ctxErr
			}
			return last, err
		}
		last = status
		if status.Done() {
			return status, nil
		}
		if progress != nil {
			progress(status)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request, okStatus []int, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	for _, code := range okStatus {
		if resp.StatusCode == code {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}
	}
	return readAPIError(resp)
}

// readAPIError extracts the detail message from an error response.
func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var text string
		if json.Unmarshal(body.Detail, &text) == nil {
			apiErr.Detail = text
		} else {
			apiErr.Detail = string(body.Detail)
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(raw))
	return apiErr
}
