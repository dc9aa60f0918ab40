package http

import (
	"net/http"
	"time"
)

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	var req struct {
		AmountCents   int64     `json:"amount_cents"`
		Method        string    `json:"method"`
		ReceivedOn    time.Time `json:"received_on"`
		AdvanceCredit bool      `json:"advance_credit"`
	}
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.Method == "" {
		req.Method = "card"
	}
	if req.ReceivedOn.IsZero() {
		req.ReceivedOn = time.Now().UTC()
	}
	if !h.checkIdempotency(w, r) {
		return
	}
	payment, err := h.payments.RecordPayment(r.Context(), id, req.AmountCents, req.Method, req.ReceivedOn, req.AdvanceCredit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	record, err := h.payments.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
