package handlers

import "net/http"

// HandleDetail renders the stored predictions for one image, if it is
// visible to the caller's session.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	image := r.URL.Query().Get("image")
	if image == "" {
		h.writeError(w, "400: Missing image parameter", http.StatusBadRequest)
		return
	}

	sessionID := h.resolveSession(w, r)
	record, ok := h.index.Get(image, sessionID)
	if !ok {
		h.writeError(w, "404: Image not found", http.StatusNotFound)
		return
	}

	h.render(w, "detail-snippet.html", record)
}
