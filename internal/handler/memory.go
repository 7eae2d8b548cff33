// Package handler provides HTTP handlers for the admin API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/memory"
	"github.com/hearthbot/memorycore/internal/middleware"
	"github.com/hearthbot/memorycore/pkg/logger"
)

// MemoryHandler exposes the memory system's operational surface.
type MemoryHandler struct {
	system *memory.System
	logger *logger.Logger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(system *memory.System, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{system: system, logger: log}
}

// Reindex handles POST /api/v1/memory/{historyID}/reindex
func (h *MemoryHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	historyID := chi.URLParam(r, "historyID")
	if err := middleware.ValidateHistoryID(historyID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.system.ForceIndexNow(r.Context(), historyID)
	if !res.Success {
		h.logger.Warn("forced reindex failed",
			zap.String("history_id", historyID),
			zap.String("reason", res.Message),
		)
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/v1/memory/status
func (h *MemoryHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.system.QueueStatus())
}

// Entries handles GET /api/v1/memory/{historyID}/entries
func (h *MemoryHandler) Entries(w http.ResponseWriter, r *http.Request) {
	historyID := chi.URLParam(r, "historyID")
	if err := middleware.ValidateHistoryID(historyID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.system.MemoryEntries(r.Context(), historyID, limit)
	if err != nil {
		h.logger.Error("memory entry fetch failed",
			zap.String("history_id", historyID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load memory entries")
		return
	}

	// Embeddings are large and useless to a human; strip them, keep the
	// preview text.
	type preview struct {
		ID           string `json:"id"`
		Timestamp    int64  `json:"timestamp"`
		MessageCount int    `json:"message_count"`
		Text         string `json:"text"`
	}
	out := make([]preview, len(entries))
	for i, e := range entries {
		out[i] = preview{
			ID:           e.ID,
			Timestamp:    e.Timestamp,
			MessageCount: len(e.Messages),
			Text:         e.Text,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history_id": historyID,
		"entries":    out,
	})
}

// DeleteOldEntries handles DELETE /api/v1/memory/entries?before=<RFC3339>
func (h *MemoryHandler) DeleteOldEntries(w http.ResponseWriter, r *http.Request) {
	before := r.URL.Query().Get("before")
	if before == "" {
		writeError(w, http.StatusBadRequest, "missing before parameter")
		return
	}

	cutoff, err := time.Parse(time.RFC3339, before)
	if err != nil {
		writeError(w, http.StatusBadRequest, "before must be RFC3339")
		return
	}

	deleted, err := h.system.DeleteOldEntries(r.Context(), cutoff)
	if err != nil {
		h.logger.Error("retention pass failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete old entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
