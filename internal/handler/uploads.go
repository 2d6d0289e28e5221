package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/observability/metrics"
	"github.com/yourorg/drukstay/internal/security/middleware"
	"github.com/yourorg/drukstay/internal/storage"
)

// UploadsHandler accepts multipart image uploads ahead of property creation
type UploadsHandler struct {
	store          *storage.ImageStore
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewUploadsHandler creates a new uploads handler
func NewUploadsHandler(store *storage.ImageStore, maxUploadBytes int64, logger *slog.Logger) *UploadsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadsHandler{store: store, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /api/uploads. The body is multipart/form-data with one
// or more "images" parts; the response lists the hosted URLs in order.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if middleware.CallerFromContext(r.Context()) == "" {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		metrics.ObserveImageUpload("rejected")
		writeMessage(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeMessage(w, http.StatusBadRequest, "No images provided")
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			metrics.ObserveImageUpload("failure")
			writeError(w, h.logger, domain.ErrUpload)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			metrics.ObserveImageUpload("failure")
			writeError(w, h.logger, domain.ErrUpload)
			return
		}

		url, err := h.store.SaveUpload(header.Filename, data)
		if err != nil {
			h.logger.Error("upload failed",
				slog.String("file", header.Filename),
				slog.String("error", err.Error()),
			)
			metrics.ObserveImageUpload("failure")
			writeError(w, h.logger, domain.ErrUpload)
			return
		}
		urls = append(urls, url)
	}

	metrics.ObserveImageUpload("success")
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
}
