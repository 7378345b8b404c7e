package handlers

import (
	"net/http"

	"github.com/caption-gallery/caption-gallery/internal/models"
)

type galleryView struct {
	Records []*models.CaptionRecord
}

// HandleGallery renders the main page with the caller-visible slice of the
// index, expiring stale uploads first.
func (h *Handler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.sweeper.SweepExpired()

	sessionID := h.resolveSession(w, r)
	h.render(w, "index.html", galleryView{
		Records: h.index.VisibleTo(sessionID),
	})
}
