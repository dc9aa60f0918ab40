package returns

import (
	"context"
	"fmt"
	"math"
	"time"

	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/payments"
	"rentdesk-backend/internal/pricing"
	"rentdesk-backend/internal/repository"
)

// Resolver evaluates a booking at return time: late fees, damage charges
// capped by the held deposit, and early-return refunds when the policy
// prorates. A return that deviates from plan opens a ReturnCase; damage
// beyond the deposit keeps the case open for a human.
type Resolver struct {
	bookings *booking.Service
	payments *payments.Service
	cases    repository.ReturnCaseRepository
	pricing  config.PricingConfig
	policy   config.BookingConfig
}

func NewResolver(bookings *booking.Service, paymentSvc *payments.Service, cases repository.ReturnCaseRepository, pricingCfg config.PricingConfig, policy config.BookingConfig) *Resolver {
	return &Resolver{
		bookings: bookings,
		payments: paymentSvc,
		cases:    cases,
		pricing:  pricingCfg,
		policy:   policy,
	}
}

// RecordReturn processes an actual return against the plan. A clean
// on-time return completes the booking and returns a nil case; any
// deviation produces a ReturnCase. The booking completes immediately
// unless the case stays open (damage exceeding the deposit).
func (r *Resolver) RecordReturn(ctx context.Context, bookingID int64, actualReturn time.Time, items []domain.ReturnItemReport, note string) (*domain.ReturnCase, error) {
	b, err := r.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusInProgress {
		return nil, domain.Errorf(domain.KindInvalidTransition,
			"cannot record a return for a booking in status %s", b.Status)
	}

	rc := &domain.ReturnCase{
		BookingID:        bookingID,
		ActualReturnDate: actualReturn,
		Items:            items,
		Note:             note,
		Resolution:       domain.ReturnResolutionResolved,
		CreatedOn:        time.Now().UTC(),
	}

	r.assessLateness(b, rc)
	r.assessDamage(b, rc)
	r.assessEarlyReturn(b, rc)

	deviated := rc.DaysLate > 0 || rc.DamageCents > 0 || rc.ReceivableCents > 0 || rc.RefundCents > 0
	if !deviated {
		if _, err := r.bookings.Complete(ctx, bookingID, actualReturn); err != nil {
			return nil, err
		}
		r.bookings.EmitReturnRecorded(ctx, bookingID, "Returned on time in good condition")
		return nil, nil
	}

	// Damage beyond the deposit needs a human decision before close-out.
	if rc.ReceivableCents > 0 {
		rc.Resolution = domain.ReturnResolutionOpen
	}

	if err := r.cases.Create(ctx, rc); err != nil {
		return nil, err
	}
	r.bookings.EmitReturnRecorded(ctx, bookingID, fmt.Sprintf(
		"Return recorded: %d day(s) late, late fee %d, damage %d, refund %d",
		rc.DaysLate, rc.LateFeeCents, rc.DamageCents, rc.RefundCents))

	if rc.Resolution == domain.ReturnResolutionResolved {
		if err := r.settle(ctx, b, rc); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// Resolve closes an open return case after a human decision, applying
// the (possibly adjusted) receivable and completing the booking.
func (r *Resolver) Resolve(ctx context.Context, bookingID int64, receivableCents int64, note string) (*domain.ReturnCase, error) {
	rc, err := r.cases.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if rc.Resolution == domain.ReturnResolutionResolved {
		return rc, nil
	}
	b, err := r.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if receivableCents >= 0 {
		rc.ReceivableCents = receivableCents
	}
	if note != "" {
		rc.Note = note
	}
	now := time.Now().UTC()
	rc.Resolution = domain.ReturnResolutionResolved
	rc.ResolvedOn = &now
	if err := r.cases.Update(ctx, rc); err != nil {
		return nil, err
	}
	if err := r.settle(ctx, b, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// settle completes the booking and posts the case's money movements to
// the payment ledger: late fee and damage as immediately due charges,
// the excess receivable as its own charge, refunds as recorded gateway
// outcomes.
func (r *Resolver) settle(ctx context.Context, b *domain.Booking, rc *domain.ReturnCase) error {
	if _, err := r.bookings.Complete(ctx, b.ID, rc.ActualReturnDate); err != nil {
		return err
	}

	if rc.LateFeeCents > 0 {
		if _, err := r.payments.RecordCharge(ctx, b.ID, "Late return fee", rc.LateFeeCents, rc.ActualReturnDate); err != nil {
			logger.Error("Failed to post late fee", "booking_id", b.ID, "error", err)
		}
	}
	if rc.DamageCents > 0 {
		if _, err := r.payments.RecordCharge(ctx, b.ID, "Damage charge", rc.DamageCents, rc.ActualReturnDate); err != nil {
			logger.Error("Failed to post damage charge", "booking_id", b.ID, "error", err)
		}
	}
	if rc.ReceivableCents > 0 {
		if _, err := r.payments.RecordCharge(ctx, b.ID, "Damage beyond deposit (receivable)", rc.ReceivableCents, rc.ActualReturnDate); err != nil {
			logger.Error("Failed to post receivable", "booking_id", b.ID, "error", err)
		}
	}
	if rc.RefundCents > 0 {
		if err := r.payments.RecordRefund(ctx, b.ID, "", rc.RefundCents); err != nil {
			logger.Error("Failed to record early-return refund", "booking_id", b.ID, "error", err)
		}
	}
	return nil
}

// assessLateness fills DaysLate and LateFeeCents. Days overdue are a
// ceiling of the overage with a minimum of 1 once any overage exists;
// the fee base is the post-discount, pre-tax booking amount.
func (r *Resolver) assessLateness(b *domain.Booking, rc *domain.ReturnCase) {
	if !rc.ActualReturnDate.After(b.EndDate) {
		return
	}
	overage := rc.ActualReturnDate.Sub(b.EndDate)
	days := int(math.Ceil(overage.Hours() / 24))
	if days < 1 {
		days = 1
	}
	base := b.SubtotalCents - b.DiscountCents
	rc.DaysLate = days
	rc.LateFeeCents = int64(math.Round(r.pricing.LateFeePercentPerDay / 100 * float64(days) * float64(base)))
}

// assessDamage fills DamageCents and ReceivableCents. The charge per item
// is capped at that item's held deposit; anything above the cap is
// carried as a receivable rather than written off.
func (r *Resolver) assessDamage(b *domain.Booking, rc *domain.ReturnCase) {
	for _, rep := range rc.Items {
		if rep.Condition == domain.ItemConditionOK {
			continue
		}
		item := findItem(b, rep.ProductID)
		if item == nil {
			continue
		}
		cost := rep.RepairCostCents
		depositHeld := item.DepositPerUnitCents * int64(item.Quantity)
		if cost <= depositHeld {
			rc.DamageCents += cost
		} else {
			rc.DamageCents += depositHeld
			rc.ReceivableCents += cost - depositHeld
		}
	}
}

// assessEarlyReturn fills RefundCents when the booking's policy prorates
// early returns: the unused whole billable units of each line are
// refunded, partial units are not.
func (r *Resolver) assessEarlyReturn(b *domain.Booking, rc *domain.ReturnCase) {
	if !r.policy.EarlyReturnProrated || !rc.ActualReturnDate.Before(b.EndDate) {
		return
	}
	for _, item := range b.Items {
		used, err := pricing.BilledUnits(b.StartDate, rc.ActualReturnDate, item.RateUnit)
		if err != nil {
			continue
		}
		unused := item.BilledUnits - used
		if unused <= 0 {
			continue
		}
		rc.RefundCents += item.UnitRateCents * int64(item.Quantity) * int64(unused)
	}
}

func findItem(b *domain.Booking, productID int64) *domain.BookingItem {
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			return &b.Items[i]
		}
	}
	return nil
}
