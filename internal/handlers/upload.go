package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/caption-gallery/caption-gallery/internal/pipeline"
	"github.com/caption-gallery/caption-gallery/internal/predict"
)

const (
	maxFormMemory = 32 * 1024 * 1024
	maxFileSize   = 10 * 1024 * 1024
)

// HandleUpload accepts a multipart batch of images, runs them through the
// captioning pipeline, and answers with the batch's own results sorted by
// path.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := h.resolveSession(w, r)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	var uploads []pipeline.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["file"] {
			file, err := header.Open()
			if err != nil {
				h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
				return
			}

			data, err := io.ReadAll(io.LimitReader(file, maxFileSize))
			file.Close()
			if err != nil {
				h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
				return
			}
			if len(data) >= maxFileSize {
				h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
				return
			}

			uploads = append(uploads, pipeline.Upload{
				Filename: header.Filename,
				Data:     data,
			})
		}
	}

	results, err := h.pipeline.Process(r.Context(), sessionID, uploads)
	if err != nil {
		switch {
		case errors.Is(err, predict.ErrServiceUnavailable):
			h.writeError(w, "Caption service is not reachable", http.StatusNotFound)
		case errors.Is(err, pipeline.ErrNoValidFiles):
			h.writeError(w, "No valid image files in request", http.StatusBadRequest)
		default:
			h.writeError(w, "Upload failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	slog.Info("Upload batch captioned", "session", sessionID, "images", len(results))
	h.writeJSON(w, results)
}
