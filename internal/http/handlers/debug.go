// Package handlers contains the operator-facing HTTP handlers that sit next
// to the public webhook surface.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/rochsolutions/ai-receptionist/internal/session"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

// DebugHandler exposes read-only inspection endpoints for live call state.
// The router only mounts it behind admin auth.
type DebugHandler struct {
	sessions *session.Store
	rdb      *redis.Client
	logger   *logging.Logger
}

func NewDebugHandler(sessions *session.Store, rdb *redis.Client, logger *logging.Logger) *DebugHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DebugHandler{sessions: sessions, rdb: rdb, logger: logger}
}

// Session handles GET /debug/session/{callID}, returning the raw stored
// session JSON for a call.
func (h *DebugHandler) Session(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing call ID"})
		return
	}

	raw, err := h.sessions.Dump(r.Context(), callID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session for call"})
			return
		}
		h.logger.Error("failed to dump session", "error", err, "call_id", callID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session lookup failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Redis handles GET /debug/redis, reporting connectivity and key volume.
func (h *DebugHandler) Redis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.logger.Error("redis ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}

	keys, err := h.rdb.DBSize(ctx).Result()
	if err != nil {
		keys = -1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"keys":   keys,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
