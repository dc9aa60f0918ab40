package domain

import "time"

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// Installment is one scheduled charge against a booking. Each carries its
// own status; the booking-level payment status is derived, not stored.
type Installment struct {
	ID          int64             `json:"id"`
	BookingID   int64             `json:"booking_id"`
	Description string            `json:"description"`
	AmountCents int64             `json:"amount_cents"`
	PaidCents   int64             `json:"paid_cents"`
	DueDate     time.Time         `json:"due_date"`
	Status      InstallmentStatus `json:"status"`
	PaidOn      *time.Time        `json:"paid_on,omitempty"`
	CreatedOn   time.Time         `json:"created_on"`
}

// Payment is a recorded gateway outcome applied to a booking's schedule.
type Payment struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	AmountCents   int64     `json:"amount_cents"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AdvanceCredit bool      `json:"advance_credit"`
	ReceivedOn    time.Time `json:"received_on"`
}

// PaymentRecord is the derived per-booking view over the installment
// schedule. Recomputed on every query so it can never drift from the
// installments themselves.
type PaymentRecord struct {
	BookingID    int64         `json:"booking_id"`
	TotalCents   int64         `json:"total_cents"`
	PaidCents    int64         `json:"paid_cents"`
	PendingCents int64         `json:"pending_cents"`
	CreditCents  int64         `json:"credit_cents"`
	Status       PaymentStatus `json:"status"`
	Installments []Installment `json:"installments"`
}

// DerivePaymentStatus computes the booking-level status from the schedule
// as of now: PAID when nothing is pending, OVERDUE when any unpaid
// installment is past due, PARTIAL when something but not everything has
// been paid, PENDING otherwise.
func DerivePaymentStatus(installments []Installment, now time.Time) PaymentStatus {
	var total, paid int64
	overdue := false
	for _, in := range installments {
		total += in.AmountCents
		paid += in.PaidCents
		if in.PaidCents < in.AmountCents && now.After(in.DueDate) {
			overdue = true
		}
	}
	switch {
	case total > 0 && paid >= total:
		return PaymentStatusPaid
	case overdue:
		return PaymentStatusOverdue
	case paid > 0:
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}
