package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/inventory"
	"rentdesk-backend/internal/payments"
	"rentdesk-backend/internal/pricing"
)

type harness struct {
	resolver     *Resolver
	bookings     *booking.Service
	products     *memProducts
	installments *memInstallments
	payments     *memPayments
	cases        *memCases
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func newHarness(policy config.BookingConfig, products ...*domain.Product) *harness {
	pricingCfg := config.PricingConfig{LateFeePercentPerDay: 5}
	prods := newMemProducts(products...)
	installments := &memInstallments{}
	pays := &memPayments{installments: installments}
	paymentSvc := payments.NewService(installments, pays, nil)
	bookingSvc := booking.NewService(
		newMemBookings(),
		prods,
		memPricelists{},
		&memTimeline{},
		inventory.NewLedger(prods, newMemReservations(prods), nil),
		pricing.NewEngine(pricingCfg),
		paymentSvc,
		nil,
		policy,
		pricingCfg,
	)
	cases := &memCases{}
	return &harness{
		resolver:     NewResolver(bookingSvc, paymentSvc, cases, pricingCfg, policy),
		bookings:     bookingSvc,
		products:     prods,
		installments: installments,
		payments:     pays,
		cases:        cases,
	}
}

func excavator(depositCents int64) *domain.Product {
	return &domain.Product{
		ID:                  1,
		Name:                "Excavator",
		BaseRateCents:       2000,
		RateUnit:            domain.RateUnitDay,
		TotalUnits:          5,
		AvailableUnits:      5,
		DepositPerUnitCents: depositCents,
	}
}

// inProgress drives a fresh booking through draft, confirm and delivery.
func (h *harness) inProgress(t *testing.T, start, end time.Time, quantity int) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := h.bookings.CreateDraft(ctx, booking.Request{
		CustomerID: 7,
		StartDate:  start,
		EndDate:    end,
		Items:      []booking.ItemRequest{{ProductID: 1, Quantity: quantity}},
	})
	require.NoError(t, err)
	_, err = h.bookings.Confirm(ctx, b.ID)
	require.NoError(t, err)
	b, err = h.bookings.StartDelivery(ctx, b.ID, start)
	require.NoError(t, err)
	return b
}

func TestRecordReturn_OnTimeCleanReturn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(0))
	b := h.inProgress(t, day(1), day(4), 1)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(4), []domain.ReturnItemReport{
		{ProductID: 1, Condition: domain.ItemConditionOK},
	}, "")
	require.NoError(t, err)
	assert.Nil(t, rc)

	got, err := h.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, got.Status)
	assert.Empty(t, h.cases.rows)
}

func TestRecordReturn_LateFee(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(0))
	// 3 days x 2000 = 6000 subtotal, returned 3 days late.
	b := h.inProgress(t, day(1), day(4), 1)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(7), nil, "")
	require.NoError(t, err)
	require.NotNil(t, rc)

	// 5% per day x 3 days x 6000 = 900.
	assert.Equal(t, 3, rc.DaysLate)
	assert.Equal(t, int64(900), rc.LateFeeCents)
	assert.Equal(t, domain.ReturnResolutionResolved, rc.Resolution)

	got, err := h.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, got.Status)

	t.Run("late fee posted to the ledger", func(t *testing.T) {
		schedule, err := h.installments.ListByBooking(ctx, b.ID)
		require.NoError(t, err)
		var found bool
		for _, in := range schedule {
			if in.Description == "Late return fee" {
				found = true
				assert.Equal(t, int64(900), in.AmountCents)
			}
		}
		assert.True(t, found)
	})
}

func TestRecordReturn_PartialDayLateCountsAsFullDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(0))
	b := h.inProgress(t, day(1), day(4), 1)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(4).Add(6*time.Hour), nil, "")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, 1, rc.DaysLate)
	assert.Equal(t, int64(300), rc.LateFeeCents) // 5% x 1 day x 6000
}

func TestRecordReturn_DamageWithinDeposit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(10000))
	b := h.inProgress(t, day(1), day(4), 2)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(4), []domain.ReturnItemReport{
		{ProductID: 1, Condition: domain.ItemConditionDamaged, RepairCostCents: 15000},
	}, "scratched boom")
	require.NoError(t, err)
	require.NotNil(t, rc)

	// Held deposit is 2 x 10000, so the full repair cost is chargeable.
	assert.Equal(t, int64(15000), rc.DamageCents)
	assert.Equal(t, int64(0), rc.ReceivableCents)
	assert.Equal(t, domain.ReturnResolutionResolved, rc.Resolution)

	got, err := h.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, got.Status)
}

func TestRecordReturn_DamageBeyondDepositOpensCase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(10000))
	b := h.inProgress(t, day(1), day(4), 1)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(4), []domain.ReturnItemReport{
		{ProductID: 1, Condition: domain.ItemConditionMissing, RepairCostCents: 25000},
	}, "unit not returned")
	require.NoError(t, err)
	require.NotNil(t, rc)

	assert.Equal(t, int64(10000), rc.DamageCents)
	assert.Equal(t, int64(15000), rc.ReceivableCents)
	assert.Equal(t, domain.ReturnResolutionOpen, rc.Resolution)

	// Booking stays in progress until a human resolves the case.
	got, err := h.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusInProgress, got.Status)

	t.Run("resolve closes the case and completes the booking", func(t *testing.T) {
		resolved, err := h.resolver.Resolve(ctx, b.ID, 12000, "partial settlement agreed")
		require.NoError(t, err)
		assert.Equal(t, domain.ReturnResolutionResolved, resolved.Resolution)
		assert.Equal(t, int64(12000), resolved.ReceivableCents)
		assert.NotNil(t, resolved.ResolvedOn)

		got, err := h.bookings.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, got.Status)

		schedule, err := h.installments.ListByBooking(ctx, b.ID)
		require.NoError(t, err)
		var receivable int64
		for _, in := range schedule {
			if in.Description == "Damage beyond deposit (receivable)" {
				receivable = in.AmountCents
			}
		}
		assert.Equal(t, int64(12000), receivable)
	})

	t.Run("resolving again is a no-op", func(t *testing.T) {
		again, err := h.resolver.Resolve(ctx, b.ID, 99999, "")
		require.NoError(t, err)
		assert.Equal(t, int64(12000), again.ReceivableCents)
	})
}

func TestRecordReturn_EarlyReturnRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("prorating policy refunds unused whole days", func(t *testing.T) {
		h := newHarness(config.BookingConfig{EarlyReturnProrated: true}, excavator(0))
		b := h.inProgress(t, day(1), day(6), 1) // 5 billed days

		rc, err := h.resolver.RecordReturn(ctx, b.ID, day(3), nil, "")
		require.NoError(t, err)
		require.NotNil(t, rc)

		// 2 days used, 3 whole days unused at 2000 each.
		assert.Equal(t, int64(6000), rc.RefundCents)

		var refund int64
		for _, p := range h.payments.rows {
			if p.Method == "refund" {
				refund = p.AmountCents
			}
		}
		assert.Equal(t, int64(-6000), refund)
	})

	t.Run("partial unused day is not refunded", func(t *testing.T) {
		h := newHarness(config.BookingConfig{EarlyReturnProrated: true}, excavator(0))
		b := h.inProgress(t, day(1), day(6), 1)

		// Returned 4.5 days in: 5 billed days minus ceil(4.5) leaves none.
		rc, err := h.resolver.RecordReturn(ctx, b.ID, day(5).Add(12*time.Hour), nil, "")
		require.NoError(t, err)
		assert.Nil(t, rc)
	})

	t.Run("strict policy refunds nothing", func(t *testing.T) {
		h := newHarness(config.BookingConfig{}, excavator(0))
		b := h.inProgress(t, day(1), day(6), 1)

		rc, err := h.resolver.RecordReturn(ctx, b.ID, day(3), nil, "")
		require.NoError(t, err)
		assert.Nil(t, rc)
	})
}

func TestRecordReturn_RequiresInProgress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(0))

	b, err := h.bookings.CreateDraft(ctx, booking.Request{
		CustomerID: 7,
		StartDate:  day(1),
		EndDate:    day(4),
		Items:      []booking.ItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = h.resolver.RecordReturn(ctx, b.ID, day(4), nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRecordReturn_LateAndDamagedCombined(t *testing.T) {
	ctx := context.Background()
	h := newHarness(config.BookingConfig{}, excavator(10000))
	b := h.inProgress(t, day(1), day(4), 1)

	rc, err := h.resolver.RecordReturn(ctx, b.ID, day(6), []domain.ReturnItemReport{
		{ProductID: 1, Condition: domain.ItemConditionDamaged, RepairCostCents: 4000},
	}, "")
	require.NoError(t, err)
	require.NotNil(t, rc)

	assert.Equal(t, 2, rc.DaysLate)
	assert.Equal(t, int64(600), rc.LateFeeCents) // 5% x 2 x 6000
	assert.Equal(t, int64(4000), rc.DamageCents)
	assert.Equal(t, domain.ReturnResolutionResolved, rc.Resolution)
}
