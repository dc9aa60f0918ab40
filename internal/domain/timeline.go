package domain

import "time"

type TimelineEventType string

const (
	TimelineBookingCreated   TimelineEventType = "BOOKING_CREATED"
	TimelineBookingConfirmed TimelineEventType = "BOOKING_CONFIRMED"
	TimelineDeliveryStarted  TimelineEventType = "DELIVERY_STARTED"
	TimelineBookingCompleted TimelineEventType = "BOOKING_COMPLETED"
	TimelineBookingCancelled TimelineEventType = "BOOKING_CANCELLED"
	TimelinePaymentRecorded  TimelineEventType = "PAYMENT_RECORDED"
	TimelineReturnRecorded   TimelineEventType = "RETURN_RECORDED"
	TimelineOverdueReminder  TimelineEventType = "OVERDUE_REMINDER"
)

// TimelineEvent is emitted on every state change for the notification and
// reporting subsystems. Delivery is fire-and-forget; the engine persists
// its own copy for audit.
type TimelineEvent struct {
	ID          string            `json:"id"`
	BookingID   int64             `json:"booking_id"`
	Type        TimelineEventType `json:"type"`
	Description string            `json:"description"`
	OccurredOn  time.Time         `json:"occurred_on"`
}
