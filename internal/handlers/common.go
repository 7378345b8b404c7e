package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/caption-gallery/caption-gallery/internal/index"
	"github.com/caption-gallery/caption-gallery/internal/pipeline"
	"github.com/caption-gallery/caption-gallery/internal/retention"
	"github.com/caption-gallery/caption-gallery/internal/session"
)

type Handler struct {
	index     *index.Index
	pipeline  *pipeline.Pipeline
	sweeper   *retention.Sweeper
	templates *template.Template
}

func New(ix *index.Index, p *pipeline.Pipeline, sweeper *retention.Sweeper, templatesDir string) (*Handler, error) {
	templates, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		index:     ix,
		pipeline:  p,
		sweeper:   sweeper,
		templates: templates,
	}, nil
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Unable to render template", "template", name, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// resolveSession returns the caller's session ID, minting and setting the
// cookie when the request carries none.
func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request) string {
	var token string
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		token = cookie.Value
	}

	id, isNew := session.Resolve(token)
	if isNew {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}
