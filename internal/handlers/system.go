package handlers

import "net/http"

// ReloadMedals forces the award engine to re-read medal and pack
// definitions without waiting for the staleness window.
func (h *Handler) ReloadMedals(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reload(r.Context()); err != nil {
		h.logger.Errorw("Medal reload failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "reload failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
