package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/domain"
)

// bookingView is a booking decorated with its derived display status.
type bookingView struct {
	*domain.Booking
	EffectiveStatus domain.BookingStatus `json:"effective_status"`
}

func viewOf(b *domain.Booking) bookingView {
	return bookingView{Booking: b, EffectiveStatus: b.EffectiveStatus(time.Now().UTC())}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	result, err := h.bookings.Quote(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	if !h.checkIdempotency(w, r) {
		return
	}
	b, err := h.bookings.CreateDraft(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(b))
}

func (h *Handler) handleListBookings(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	if err != nil || customerID <= 0 {
		writeBadRequest(w, "customer_id query parameter is required")
		return
	}
	page, pageSize := pagination(r)

	items, total, err := h.bookings.ListByCustomer(r.Context(), customerID, r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]bookingView, len(items))
	for i := range items {
		views[i] = viewOf(&items[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":    views,
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}

func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.payments.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking": viewOf(b),
		"payment": record,
	})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	if !h.checkIdempotency(w, r) {
		return
	}
	b, err := h.bookings.Confirm(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleStartDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	b, err := h.bookings.StartDelivery(r.Context(), id, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	b, err := h.bookings.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(b))
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	events, err := h.bookings.Timeline(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleRecordReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	var req struct {
		ActualReturnDate time.Time                 `json:"actual_return_date"`
		Items            []domain.ReturnItemReport `json:"items"`
		Note             string                    `json:"note,omitempty"`
	}
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	if req.ActualReturnDate.IsZero() {
		req.ActualReturnDate = time.Now().UTC()
	}
	rc, err := h.returns.RecordReturn(r.Context(), id, req.ActualReturnDate, req.Items, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	if rc == nil {
		writeJSON(w, http.StatusOK, map[string]string{"result": "returned on time, no deviations"})
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *Handler) handleResolveReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid booking id")
		return
	}
	var req struct {
		ReceivableCents int64  `json:"receivable_cents"`
		Note            string `json:"note,omitempty"`
	}
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}
	rc, err := h.returns.Resolve(r.Context(), id, req.ReceivableCents, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func pagination(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
