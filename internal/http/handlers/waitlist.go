package handlers

import (
	"encoding/json"
	"net/http"

	"frankiemoji/backend/internal/orders"
)

type waitlistResponse struct {
	OK        bool   `json:"ok"`
	Email     string `json:"email"`
	Tag       string `json:"tag"`
	Duplicate bool   `json:"duplicate"`
}

func (h *Handler) NotifyWaitlist(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req orders.WaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("notify_waitlist", "status", "invalid_json")
		writeFailure(w, http.StatusBadRequest, "invalid json", "")
		return
	}
	if req.Referer == "" {
		req.Referer = r.Referer()
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	entry, created, err := h.svc.Waitlist.Join(ctx, req)
	if err != nil {
		writePublicOrderError(logger, w, "notify_waitlist", err)
		return
	}
	writeJSON(w, http.StatusOK, waitlistResponse{OK: true, Email: entry.Email, Tag: entry.Tag, Duplicate: !created})
}
