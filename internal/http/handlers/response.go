package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"frankiemoji/backend/internal/orders"
)

// failureResponse is the body of a failed customer-facing request. Detail is
// for operators reading browser consoles and never carries credentials.
type failureResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes j s o n.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes error.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

func writeFailure(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, failureResponse{OK: false, Error: message, Detail: detail})
}

// classifyOrderError maps the orders error taxonomy onto a status and a
// message safe to show to any caller.
func classifyOrderError(err error) (int, string) {
	var verr *orders.ValidationError
	var aerr *orders.AuthError
	var nf *orders.NotFoundError
	var uerr *orders.UpstreamError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &aerr):
		return http.StatusUnauthorized, "unauthorized"
	case errors.As(err, &nf):
		return http.StatusNotFound, "not found"
	case errors.Is(err, orders.ErrTransitionNotAllowed):
		return http.StatusConflict, "transition not allowed"
	case errors.As(err, &uerr) && uerr.Provider:
		return http.StatusBadGateway, "payment provider error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeOrderError logs err and writes the terse admin form of it.
func writeOrderError(logger *slog.Logger, w http.ResponseWriter, action string, err error) {
	status, message := classifyOrderError(err)
	logOrderError(logger, action, status, err)
	writeError(w, status, message)
}

// writePublicOrderError writes the customer-facing form, which adds the
// operator detail.
func writePublicOrderError(logger *slog.Logger, w http.ResponseWriter, action string, err error) {
	status, message := classifyOrderError(err)
	logOrderError(logger, action, status, err)
	if status >= http.StatusInternalServerError {
		writeFailure(w, status, "Something went wrong. Please try again.", err.Error())
		return
	}
	writeFailure(w, status, message, err.Error())
}

func logOrderError(logger *slog.Logger, action string, status int, err error) {
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(action, "status", "upstream_error", "http_status", status, "error", err)
	case status == http.StatusNotFound:
		logger.Warn(action, "status", "not_found", "error", err)
	case status == http.StatusConflict:
		logger.Warn(action, "status", "conflict", "error", err)
	default:
		logger.Warn(action, "status", "invalid_request", "error", err)
	}
}
