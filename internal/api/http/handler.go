package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/inventory"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/payments"
	"rentdesk-backend/internal/returns"
)

// IdempotencyStore remembers request keys so retried mutations are not
// applied twice. A nil store disables the check.
type IdempotencyStore interface {
	SetIdempotency(ctx context.Context, key string) (bool, error)
}

// Handler exposes the booking engine over JSON endpoints.
type Handler struct {
	bookings *booking.Service
	payments *payments.Service
	returns  *returns.Resolver
	ledger   *inventory.Ledger
	idem     IdempotencyStore
}

func NewHandler(bookings *booking.Service, paymentSvc *payments.Service, resolver *returns.Resolver, ledger *inventory.Ledger, idem IdempotencyStore) *Handler {
	return &Handler{
		bookings: bookings,
		payments: paymentSvc,
		returns:  resolver,
		ledger:   ledger,
		idem:     idem,
	}
}

// RegisterRoutes wires all engine endpoints onto the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/bookings/quote", h.handleQuote).Methods("POST")
	api.HandleFunc("/bookings", h.handleCreateBooking).Methods("POST")
	api.HandleFunc("/bookings", h.handleListBookings).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}", h.handleGetBooking).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}/confirm", h.handleConfirm).Methods("POST")
	api.HandleFunc("/bookings/{id:[0-9]+}/delivery", h.handleStartDelivery).Methods("POST")
	api.HandleFunc("/bookings/{id:[0-9]+}/return", h.handleRecordReturn).Methods("POST")
	api.HandleFunc("/bookings/{id:[0-9]+}/cancel", h.handleCancel).Methods("POST")
	api.HandleFunc("/bookings/{id:[0-9]+}/timeline", h.handleTimeline).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}/payments", h.handleRecordPayment).Methods("POST")
	api.HandleFunc("/bookings/{id:[0-9]+}/payments", h.handlePaymentStatus).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}/resolve", h.handleResolveReturn).Methods("POST")

	api.HandleFunc("/products/{id:[0-9]+}/availability", h.handleAvailability).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}/maintenance", h.handleMaintenance).Methods("POST")

	api.HandleFunc("/health", h.handleHealth).Methods("GET")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkIdempotency consumes the Idempotency-Key header. It returns false
// when the key was already seen and the request must not be reapplied.
func (h *Handler) checkIdempotency(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get("Idempotency-Key")
	if key == "" || h.idem == nil {
		return true
	}
	fresh, err := h.idem.SetIdempotency(r.Context(), key)
	if err != nil {
		// Treat a cache outage as a pass, the database guards remain.
		logger.Warn("Idempotency check unavailable", "error", err)
		return true
	}
	if !fresh {
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "DUPLICATE_REQUEST",
			Message: "request with this idempotency key was already processed",
		})
		return false
	}
	return true
}
