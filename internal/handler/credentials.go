package handler

import (
	"net/http"

	"github.com/hearthbot/memorycore/internal/llm"
)

// CredentialsHandler exposes gateway credential usage stats.
type CredentialsHandler struct {
	gateway *llm.Gateway
}

// NewCredentialsHandler creates a new credentials handler.
func NewCredentialsHandler(gateway *llm.Gateway) *CredentialsHandler {
	return &CredentialsHandler{gateway: gateway}
}

// Stats handles GET /api/v1/llm/credentials
func (h *CredentialsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"credentials": h.gateway.CredentialStats(),
	})
}
