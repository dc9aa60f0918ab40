package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps engine error kinds onto HTTP status codes. Anything
// without a kind is treated as an internal failure and not echoed back.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: "internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidDuration, domain.KindInvalidQuantity, domain.KindNoApplicableRate:
		status = http.StatusBadRequest
	case domain.KindInsufficientInventory, domain.KindInvalidTransition,
		domain.KindOverpaymentNotAllowed, domain.KindConcurrencyConflict:
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Code: string(de.Kind), Message: de.Error()})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: message})
}

func decodeBody(r *http.Request, dst any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst) == nil
}
