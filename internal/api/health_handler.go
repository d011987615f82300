package api

import (
	"net/http"

	"github.com/phrazzld/relay-api/internal/api/shared"
)

// SessionChecker reports whether the messaging session is ready to send.
type SessionChecker interface {
	Validated() bool
}

// HealthHandler reports service readiness.
type HealthHandler struct {
	session SessionChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(session SessionChecker) *HealthHandler {
	return &HealthHandler{session: session}
}

// Health handles GET /health. The service keeps accepting requests when the
// session is not validated; this endpoint is how operators see it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	validated := h.session != nil && h.session.Validated()
	if !validated {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
			Status:           "unavailable",
			ChannelValidated: false,
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:           "ok",
		ChannelValidated: true,
	})
}
