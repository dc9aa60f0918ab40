package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
)

// SendGridSink emails timeline events to the operations inbox. It is one
// example consumer of the event stream; the engine itself neither knows
// nor cares whether delivery succeeded.
type SendGridSink struct {
	apiKey    string
	fromEmail string
	fromName  string
	opsEmail  string
}

func NewSendGridSink(cfg config.SendGridConfig) *SendGridSink {
	return &SendGridSink{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		opsEmail:  cfg.OpsEmail,
	}
}

func (s *SendGridSink) Name() string { return "sendgrid" }

func (s *SendGridSink) Deliver(ctx context.Context, ev domain.TimelineEvent) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("Rental Operations", s.opsEmail)
	subject := fmt.Sprintf("Booking %d: %s", ev.BookingID, ev.Type)
	body := fmt.Sprintf("%s\n\nBooking: %d\nEvent: %s\nAt: %s",
		ev.Description, ev.BookingID, ev.Type, ev.OccurredOn.Format("2006-01-02 15:04:05 MST"))

	message := mail.NewSingleEmail(from, subject, to, body, "")
	client := sendgrid.NewSendClient(s.apiKey)

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send event email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
