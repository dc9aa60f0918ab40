package domain

import "time"

type BookingStatus string

const (
	BookingStatusDraft      BookingStatus = "DRAFT"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"

	// BookingStatusOverdue is a derived display status, never stored. A
	// booking shows as overdue while it is past its end date with no
	// recorded return; it reverts as soon as the return lands.
	BookingStatusOverdue BookingStatus = "OVERDUE"
)

// BookingItem is one product line on a booking. Immutable once the
// booking reaches IN_PROGRESS.
type BookingItem struct {
	ID                  int64    `json:"id"`
	BookingID           int64    `json:"booking_id"`
	ProductID           int64    `json:"product_id"`
	Quantity            int      `json:"quantity"`
	BilledUnits         int      `json:"billed_units"`
	RateUnit            RateUnit `json:"rate_unit"`
	UnitRateCents       int64    `json:"unit_rate_cents"`
	LineTotalCents      int64    `json:"line_total_cents"`
	DepositPerUnitCents int64    `json:"deposit_per_unit_cents"`
	ReservationID       string   `json:"reservation_id,omitempty"`
}

// Booking is the aggregate root of the rental lifecycle. Bookings are
// never deleted; cancelled and completed bookings are retained for audit.
type Booking struct {
	ID                  int64         `json:"id"`
	CustomerID          int64         `json:"customer_id"`
	CustomerSegment     string        `json:"customer_segment"`
	StartDate           time.Time     `json:"start_date"`
	EndDate             time.Time     `json:"end_date"`
	Items               []BookingItem `json:"items"`
	SubtotalCents       int64         `json:"subtotal_cents"`
	DiscountCents       int64         `json:"discount_cents"`
	TaxCents            int64         `json:"tax_cents"`
	DepositCents        int64         `json:"deposit_cents"`
	DeliveryChargeCents int64         `json:"delivery_charge_cents"`
	FinalCents          int64         `json:"final_cents"`
	Status              BookingStatus `json:"status"`
	CancelReason        string        `json:"cancel_reason,omitempty"`
	ActualReturnDate    *time.Time    `json:"actual_return_date,omitempty"`
	DeliveryRequired    bool          `json:"delivery_required"`
	PickupRequired      bool          `json:"pickup_required"`
	// Version backs the optimistic check on state transitions. Bumped on
	// every successful write; a stale write fails with ConcurrencyConflict.
	Version   int64     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// IsOverdue reports whether the booking is past due with no return
// recorded. Computed on read so a racing return event can never leave a
// stale overdue flag behind.
func (b *Booking) IsOverdue(now time.Time) bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled:
		return false
	}
	return b.ActualReturnDate == nil && now.After(b.EndDate)
}

// EffectiveStatus is the display status: the stored status, or OVERDUE
// when IsOverdue holds.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.IsOverdue(now) {
		return BookingStatusOverdue
	}
	return b.Status
}
