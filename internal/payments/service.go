package payments

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

// Service is the payment ledger: it owns the installment schedule per
// booking and applies recorded payments to it. The booking-level payment
// status is always derived from the schedule, never cached.
type Service struct {
	installments repository.InstallmentRepository
	payments     repository.PaymentRepository
	gateway      Gateway
	log          *slog.Logger
}

func NewService(installments repository.InstallmentRepository, payments repository.PaymentRepository, gateway Gateway) *Service {
	if gateway == nil {
		gateway = NullGateway{}
	}
	return &Service{
		installments: installments,
		payments:     payments,
		gateway:      gateway,
		log:          logger.WithService("payments"),
	}
}

// RecordCharge adds an installment to the booking's schedule.
func (s *Service) RecordCharge(ctx context.Context, bookingID int64, description string, amountCents int64, dueDate time.Time) (*domain.Installment, error) {
	if amountCents <= 0 {
		return nil, domain.Errorf(domain.KindInvalidQuantity, "charge amount must be positive, got %d", amountCents)
	}
	in := &domain.Installment{
		BookingID:   bookingID,
		Description: description,
		AmountCents: amountCents,
		DueDate:     dueDate,
		Status:      domain.InstallmentStatusPending,
		CreatedOn:   time.Now().UTC(),
	}
	if err := s.installments.Create(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// RecordPayment captures through the gateway collaborator and applies the
// amount to unpaid installments in strict due-date order. Paying beyond
// the outstanding total fails with OverpaymentNotAllowed unless the
// payment is flagged as an advance credit.
func (s *Service) RecordPayment(ctx context.Context, bookingID int64, amountCents int64, method string, receivedOn time.Time, advanceCredit bool) (*domain.Payment, error) {
	if amountCents <= 0 {
		return nil, domain.Errorf(domain.KindInvalidQuantity, "payment amount must be positive, got %d", amountCents)
	}

	schedule, err := s.installments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].DueDate.Before(schedule[j].DueDate) })

	var outstanding int64
	for i := range schedule {
		outstanding += schedule[i].AmountCents - schedule[i].PaidCents
	}
	if amountCents > outstanding && !advanceCredit {
		return nil, domain.Errorf(domain.KindOverpaymentNotAllowed,
			"booking %d: payment of %d exceeds outstanding %d", bookingID, amountCents, outstanding)
	}

	txnID, err := s.gateway.Capture(ctx, amountCents, method)
	if err != nil {
		return nil, err
	}

	remaining := amountCents
	var applied []domain.Installment
	for i := range schedule {
		if remaining == 0 {
			break
		}
		due := schedule[i].AmountCents - schedule[i].PaidCents
		if due <= 0 {
			continue
		}
		credit := min(remaining, due)
		schedule[i].PaidCents += credit
		remaining -= credit
		if schedule[i].PaidCents >= schedule[i].AmountCents {
			now := receivedOn
			schedule[i].Status = domain.InstallmentStatusPaid
			schedule[i].PaidOn = &now
		}
		applied = append(applied, schedule[i])
	}

	payment := &domain.Payment{
		BookingID:     bookingID,
		AmountCents:   amountCents,
		Method:        method,
		TransactionID: txnID,
		AdvanceCredit: remaining > 0,
		ReceivedOn:    receivedOn,
	}
	// The installment credits and the payment row commit together.
	if err := s.payments.CreateApplied(ctx, payment, applied); err != nil {
		return nil, err
	}

	s.log.Debug("Payment recorded", "booking_id", bookingID, "amount_cents", amountCents, "credit_cents", remaining)
	return payment, nil
}

// RecordRefund records a gateway refund outcome against a booking, for
// deposit returns and early-return credits.
func (s *Service) RecordRefund(ctx context.Context, bookingID int64, transactionID string, amountCents int64) error {
	if amountCents <= 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "refund amount must be positive, got %d", amountCents)
	}
	if err := s.gateway.Refund(ctx, transactionID, amountCents); err != nil {
		return err
	}
	refund := &domain.Payment{
		BookingID:     bookingID,
		AmountCents:   -amountCents,
		Method:        "refund",
		TransactionID: transactionID,
		ReceivedOn:    time.Now().UTC(),
	}
	return s.payments.Create(ctx, refund)
}

// Status returns the derived payment record for a booking as of now.
func (s *Service) Status(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	return s.statusAt(ctx, bookingID, time.Now().UTC())
}

func (s *Service) statusAt(ctx context.Context, bookingID int64, now time.Time) (*domain.PaymentRecord, error) {
	schedule, err := s.installments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].DueDate.Before(schedule[j].DueDate) })

	rec := &domain.PaymentRecord{
		BookingID:    bookingID,
		Installments: schedule,
		Status:       domain.DerivePaymentStatus(schedule, now),
	}
	for i := range schedule {
		rec.TotalCents += schedule[i].AmountCents
		rec.PaidCents += schedule[i].PaidCents
	}
	rec.PendingCents = rec.TotalCents - rec.PaidCents

	pays, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var received int64
	for i := range pays {
		received += pays[i].AmountCents
	}
	if received > rec.PaidCents {
		rec.CreditCents = received - rec.PaidCents
	}
	return rec, nil
}
