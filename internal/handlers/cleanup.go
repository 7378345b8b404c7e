package handlers

import "net/http"

// HandleCleanup renders the cleanup page on GET and removes the caller's
// uploads on DELETE.
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, "cleanup.html", nil)
	case http.MethodDelete:
		sessionID := h.resolveSession(w, r)
		h.sweeper.SweepOwner(sessionID)
		w.WriteHeader(http.StatusOK)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
