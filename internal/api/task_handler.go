package api

import (
	"net/http"

	"github.com/phrazzld/relay-api/internal/api/shared"
	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/phrazzld/relay-api/internal/service"
)

// processingMessage is returned while a task has not reached a terminal state.
const processingMessage = "File is still being processed"

// TaskHandler handles upload task HTTP requests
type TaskHandler struct {
	uploadService service.UploadService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(uploadService service.UploadService) *TaskHandler {
	return &TaskHandler{
		uploadService: uploadService,
	}
}

// Upload handles POST /api/upload requests. The task is accepted and queued;
// the transfer itself happens in the background.
func (h *TaskHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, SanitizeValidationError(err), err)
		return
	}

	created, err := h.uploadService.Submit(r.Context(), req.URL, req.ForceDocument)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("upload accepted", "task_id", created.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToUploadResponse(created))
}

// GetFile handles GET /api/file/{task_id} requests. Terminal tasks return
// their outcome; tasks still in flight return 425 Too Early.
func (h *TaskHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "task_id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	record, err := h.uploadService.Get(r.Context(), taskID)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	if !record.IsTerminal() {
		shared.RespondWithError(w, r, http.StatusTooEarly, ProcessingDetail{
			ID:      record.ID.String(),
			Status:  string(record.Status),
			Message: processingMessage,
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToFileStatusResponse(record))
}
