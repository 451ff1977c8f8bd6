package handlers

import (
	"encoding/json"
	"net/http"

	"frankiemoji/backend/internal/integrations"
)

type uploadURLRequest struct {
	ContentType      string `json:"contentType"`
	ContentTypeSnake string `json:"content_type"`
}

type uploadURLResponse struct {
	OK bool `json:"ok"`
	integrations.UploadTarget
}

// CreateUploadURL hands the browser a presigned PUT for the customer photo.
func (h *Handler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.svc.Uploads == nil {
		logger.Warn("upload_url", "status", "storage_not_configured")
		writeFailure(w, http.StatusServiceUnavailable, "uploads are not available", "")
		return
	}
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("upload_url", "status", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid json", "")
		return
	}
	contentType := firstNonEmpty(req.ContentType, req.ContentTypeSnake)
	if _, ok := integrations.PhotoExtension(contentType); !ok {
		logger.Warn("upload_url", "status", "unsupported_type", "content_type", contentType)
		writeFailure(w, http.StatusBadRequest, "unsupported image type", "use jpeg, png, webp or heic")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	target, err := h.svc.Uploads.PresignPhotoUpload(ctx, contentType)
	if err != nil {
		logger.Error("upload_url", "status", "presign_failed", "error", err)
		writeFailure(w, http.StatusBadGateway, "Something went wrong. Please try again.", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{OK: true, UploadTarget: target})
}
