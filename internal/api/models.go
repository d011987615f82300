package api

import (
	"time"

	"github.com/phrazzld/relay-api/internal/domain"
)

// UploadRequest defines the payload for the upload endpoint.
type UploadRequest struct {
	URL           string `json:"url"            validate:"required,http_url"`
	ForceDocument bool   `json:"force_document"`
}

// UploadResponse is returned once an upload task has been accepted.
type UploadResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FileStatusResponse describes a task that has reached a terminal state.
type FileStatusResponse struct {
	ID               string  `json:"id"`
	ChannelMessageID *string `json:"channel_message_id"`
	Status           string  `json:"status"`
	ErrorMessage     *string `json:"error_message"`
}

// ProcessingDetail is the detail body returned while a task is still running.
type ProcessingDetail struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status           string `json:"status"`
	ChannelValidated bool   `json:"channel_validated"`
}

func taskToUploadResponse(t *domain.Task) UploadResponse {
	return UploadResponse{
		ID:        t.ID.String(),
		URL:       t.URL,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}

func taskToFileStatusResponse(t *domain.Task) FileStatusResponse {
	return FileStatusResponse{
		ID:               t.ID.String(),
		ChannelMessageID: t.ChannelMessageID,
		Status:           string(t.Status),
		ErrorMessage:     t.ErrorMessage,
	}
}
