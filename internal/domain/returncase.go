package domain

import "time"

type ItemCondition string

const (
	ItemConditionOK      ItemCondition = "OK"
	ItemConditionDamaged ItemCondition = "DAMAGED"
	ItemConditionMissing ItemCondition = "MISSING"
)

type ReturnResolution string

const (
	ReturnResolutionOpen     ReturnResolution = "OPEN"
	ReturnResolutionResolved ReturnResolution = "RESOLVED"
)

// ReturnItemReport is the per-item condition assessment captured at
// return time.
type ReturnItemReport struct {
	ProductID       int64         `json:"product_id"`
	Condition       ItemCondition `json:"condition"`
	RepairCostCents int64         `json:"repair_cost_cents,omitempty"`
	Note            string        `json:"note,omitempty"`
}

// ReturnCase records a return that deviated from plan: late, damaged,
// missing or early. Straight on-time returns close the booking without
// one.
type ReturnCase struct {
	ID               int64              `json:"id"`
	BookingID        int64              `json:"booking_id"`
	ActualReturnDate time.Time          `json:"actual_return_date"`
	DaysLate         int                `json:"days_late"`
	LateFeeCents     int64              `json:"late_fee_cents"`
	DamageCents      int64              `json:"damage_cents"`
	// ReceivableCents is damage cost in excess of the held deposit. It is
	// carried as an open receivable, never written off silently.
	ReceivableCents int64              `json:"receivable_cents"`
	RefundCents     int64              `json:"refund_cents"`
	Items           []ReturnItemReport `json:"items"`
	Resolution      ReturnResolution   `json:"resolution"`
	Note            string             `json:"note,omitempty"`
	CreatedOn       time.Time          `json:"created_on"`
	ResolvedOn      *time.Time         `json:"resolved_on,omitempty"`
}
