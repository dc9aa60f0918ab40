package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/inventory"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/notify"
	"rentdesk-backend/internal/payments"
	"rentdesk-backend/internal/pricing"
	"rentdesk-backend/internal/repository"
)

// ItemRequest is one requested product line on an inbound booking
// request.
type ItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Request is the inbound booking request at the engine boundary.
type Request struct {
	CustomerID       int64         `json:"customer_id"`
	CustomerSegment  string        `json:"customer_segment,omitempty"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	Items            []ItemRequest `json:"items"`
	DeliveryRequired bool          `json:"delivery_required"`
	PickupRequired   bool          `json:"pickup_required"`
	PricelistID      int64         `json:"pricelist_id,omitempty"`
}

// Service owns the booking aggregate and drives it through its lifecycle,
// coordinating the inventory ledger, pricing engine and payment ledger.
type Service struct {
	bookings   repository.BookingRepository
	products   repository.ProductRepository
	pricelists repository.PricelistRepository
	timeline   repository.TimelineRepository
	ledger     *inventory.Ledger
	engine     *pricing.Engine
	payments   *payments.Service
	publisher  notify.Publisher
	cfg        config.BookingConfig
	charges    config.PricingConfig
	log        *slog.Logger
}

func NewService(
	bookings repository.BookingRepository,
	products repository.ProductRepository,
	pricelists repository.PricelistRepository,
	timeline repository.TimelineRepository,
	ledger *inventory.Ledger,
	engine *pricing.Engine,
	paymentSvc *payments.Service,
	publisher notify.Publisher,
	cfg config.BookingConfig,
	charges config.PricingConfig,
) *Service {
	return &Service{
		bookings:   bookings,
		products:   products,
		pricelists: pricelists,
		timeline:   timeline,
		ledger:     ledger,
		engine:     engine,
		payments:   paymentSvc,
		publisher:  publisher,
		cfg:        cfg,
		charges:    charges,
		log:        logger.WithService("booking"),
	}
}

// Quote prices a booking request without reserving anything.
func (s *Service) Quote(ctx context.Context, req Request) (*pricing.Result, error) {
	result, _, err := s.price(ctx, req)
	return result, err
}

// CreateDraft prices the request and persists a DRAFT booking. No
// inventory is held until the draft is confirmed.
func (s *Service) CreateDraft(ctx context.Context, req Request) (*domain.Booking, error) {
	result, items, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &domain.Booking{
		CustomerID:          req.CustomerID,
		CustomerSegment:     req.CustomerSegment,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Items:               items,
		SubtotalCents:       result.SubtotalCents,
		DiscountCents:       result.DiscountCents,
		TaxCents:            result.TaxCents,
		DepositCents:        result.DepositCents,
		DeliveryChargeCents: result.DeliveryChargeCents,
		FinalCents:          result.FinalCents,
		Status:              domain.BookingStatusDraft,
		DeliveryRequired:    req.DeliveryRequired,
		PickupRequired:      req.PickupRequired,
		CreatedOn:           now,
		UpdatedOn:           now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.emit(ctx, b.ID, domain.TimelineBookingCreated,
		fmt.Sprintf("Booking drafted for customer %d, %d item(s), total %d", b.CustomerID, len(b.Items), b.FinalCents))
	return b, nil
}

// Confirm reserves inventory for every item and moves the booking to
// CONFIRMED. Reservation is all-or-nothing: if any item cannot be
// reserved, the booking stays DRAFT and nothing is held.
func (s *Service) Confirm(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	next, err := Next(b.Status, EventConfirm)
	if err != nil {
		return nil, err
	}

	requests := make([]inventory.ReserveRequest, 0, len(b.Items))
	for _, it := range b.Items {
		requests = append(requests, inventory.ReserveRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Start:     b.StartDate,
			End:       b.EndDate,
		})
	}
	reserved, err := s.ledger.ReserveAll(ctx, b.ID, requests)
	if err != nil {
		return nil, err
	}
	for i := range b.Items {
		b.Items[i].ReservationID = reserved[i].ID
	}

	b.Status = next
	if err := s.bookings.Update(ctx, b); err != nil {
		// A concurrent transition won the version race; give the units
		// back before surfacing the conflict.
		s.releaseReservations(ctx, b)
		return nil, err
	}

	if err := s.scheduleCharges(ctx, b); err != nil {
		// The payment schedule is part of the confirmation contract, so a
		// confirmed booking without one must not exist. Back out the
		// reservations and the status change before surfacing the error.
		s.releaseReservations(ctx, b)
		b.Status = domain.BookingStatusDraft
		for i := range b.Items {
			b.Items[i].ReservationID = ""
		}
		if rbErr := s.bookings.Update(ctx, b); rbErr != nil {
			s.log.Error("Failed to revert booking after charge scheduling failure", "booking_id", b.ID, "error", rbErr)
		}
		return nil, err
	}

	s.emit(ctx, b.ID, domain.TimelineBookingConfirmed,
		fmt.Sprintf("Booking confirmed, %d reservation(s) held", len(reserved)))
	return b, nil
}

// StartDelivery moves a confirmed booking into IN_PROGRESS. Delivery may
// begin at most DeliveryLeadDays before the start date.
func (s *Service) StartDelivery(ctx context.Context, bookingID int64, now time.Time) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	next, err := Next(b.Status, EventStartDelivery)
	if err != nil {
		return nil, err
	}

	earliest := b.StartDate.AddDate(0, 0, -s.cfg.DeliveryLeadDays)
	if now.Before(earliest) {
		return nil, domain.Errorf(domain.KindInvalidTransition,
			"delivery cannot start before %s", earliest.Format("2006-01-02"))
	}

	b.Status = next
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.emit(ctx, b.ID, domain.TimelineDeliveryStarted, "Delivery/pickup started")
	return b, nil
}

// Cancel aborts a DRAFT or CONFIRMED booking, releasing any held
// reservations. Later states cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, bookingID int64, reason string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	next, err := Next(b.Status, EventCancel)
	if err != nil {
		return nil, err
	}

	b.Status = next
	b.CancelReason = reason
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.releaseReservations(ctx, b)

	desc := "Booking cancelled"
	if reason != "" {
		desc = fmt.Sprintf("Booking cancelled: %s", reason)
	}
	s.emit(ctx, b.ID, domain.TimelineBookingCancelled, desc)
	return b, nil
}

// Complete closes out an in-progress booking after a return event has
// been recorded, releasing the reservations. Called by the returns
// resolver, never directly by the boundary.
func (s *Service) Complete(ctx context.Context, bookingID int64, actualReturn time.Time) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	next, err := Next(b.Status, EventComplete)
	if err != nil {
		return nil, err
	}

	b.Status = next
	b.ActualReturnDate = &actualReturn
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.releaseReservations(ctx, b)

	s.emit(ctx, b.ID, domain.TimelineBookingCompleted,
		fmt.Sprintf("Booking completed, returned %s", actualReturn.Format("2006-01-02")))
	return b, nil
}

func (s *Service) Get(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookings.ListByCustomer(ctx, customerID, status, page, pageSize)
}

func (s *Service) Timeline(ctx context.Context, bookingID int64) ([]domain.TimelineEvent, error) {
	return s.timeline.ListByBooking(ctx, bookingID)
}

// EmitReminder publishes an overdue reminder event for a booking. Used by
// the nightly job; it does not mutate booking state.
func (s *Service) EmitReminder(ctx context.Context, b *domain.Booking) {
	s.emit(ctx, b.ID, domain.TimelineOverdueReminder,
		fmt.Sprintf("Booking past due since %s with no recorded return", b.EndDate.Format("2006-01-02")))
}

// EmitReturnRecorded publishes the return event for a booking. Used by
// the returns resolver.
func (s *Service) EmitReturnRecorded(ctx context.Context, bookingID int64, desc string) {
	s.emit(ctx, bookingID, domain.TimelineReturnRecorded, desc)
}

func (s *Service) price(ctx context.Context, req Request) (*pricing.Result, []domain.BookingItem, error) {
	if len(req.Items) == 0 {
		return nil, nil, domain.Errorf(domain.KindInvalidQuantity, "booking request has no items")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, nil, domain.Errorf(domain.KindInvalidDuration, "booking end date must be after start date")
	}

	var pricelist *domain.Pricelist
	if req.PricelistID != 0 {
		pl, err := s.pricelists.GetByID(ctx, req.PricelistID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		pricelist = pl
	}

	quoteItems := make([]pricing.QuoteItem, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, nil, err
		}
		quoteItems = append(quoteItems, pricing.QuoteItem{
			Product:  p,
			Quantity: it.Quantity,
			Start:    req.StartDate,
			End:      req.EndDate,
		})
	}

	var delivery int64
	if req.DeliveryRequired {
		delivery += s.charges.DeliveryChargeCents
	}
	if req.PickupRequired {
		delivery += s.charges.PickupChargeCents
	}

	result, err := s.engine.PriceItems(quoteItems, pricing.Context{
		CustomerSegment:     req.CustomerSegment,
		Pricelist:           pricelist,
		DeliveryChargeCents: delivery,
	})
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.BookingItem, 0, len(result.Breakdown))
	for _, line := range result.Breakdown {
		var deposit int64
		if line.Quantity > 0 {
			deposit = line.DepositCents / int64(line.Quantity)
		}
		items = append(items, domain.BookingItem{
			ProductID:           line.ProductID,
			Quantity:            line.Quantity,
			BilledUnits:         line.BilledUnits,
			RateUnit:            line.RateUnit,
			UnitRateCents:       line.UnitRateCents,
			LineTotalCents:      line.LineTotalCents,
			DepositPerUnitCents: deposit,
		})
	}
	return result, items, nil
}

func (s *Service) scheduleCharges(ctx context.Context, b *domain.Booking) error {
	if _, err := s.payments.RecordCharge(ctx, b.ID, "Rental charge", b.FinalCents, b.StartDate); err != nil {
		return err
	}
	if b.DepositCents > 0 {
		if _, err := s.payments.RecordCharge(ctx, b.ID, "Security deposit", b.DepositCents, b.StartDate); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) releaseReservations(ctx context.Context, b *domain.Booking) {
	log := logger.WithBooking(b.ID)
	for _, it := range b.Items {
		if it.ReservationID == "" {
			continue
		}
		if err := s.ledger.Release(ctx, it.ReservationID); err != nil {
			log.Error("Failed to release reservation", "reservation_id", it.ReservationID, "error", err)
		}
	}
}

func (s *Service) emit(ctx context.Context, bookingID int64, evType domain.TimelineEventType, desc string) {
	ev := domain.TimelineEvent{
		ID:          uuid.NewString(),
		BookingID:   bookingID,
		Type:        evType,
		Description: desc,
		OccurredOn:  time.Now().UTC(),
	}
	if err := s.timeline.Create(ctx, &ev); err != nil {
		logger.WithBooking(bookingID).Error("Failed to persist timeline event", "type", evType, "error", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
