package notify

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

// LogSink writes timeline events to the application log. Used in dev and
// as a fallback when no email sink is configured.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, ev domain.TimelineEvent) error {
	logger.Info("Timeline event",
		"booking_id", ev.BookingID, "type", ev.Type, "description", ev.Description)
	return nil
}
