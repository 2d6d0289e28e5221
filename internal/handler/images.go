package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yourorg/drukstay/internal/storage"
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImagesHandler serves stored property images
type ImagesHandler struct {
	store  *storage.ImageStore
	logger *slog.Logger
}

// NewImagesHandler creates a new image serving handler
func NewImagesHandler(store *storage.ImageStore, logger *slog.Logger) *ImagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImagesHandler{store: store, logger: logger}
}

// Serve handles GET /property/{file}
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if file == "" {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}

	data, err := h.store.Read(r.Context(), file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeMessage(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.Error("failed to read image", slog.String("file", file), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	contentType := imageContentTypes[filepath.Ext(file)]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
