package postgres

import (
	"context"
	"database/sql"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type timelineRepository struct {
	db *sql.DB
}

func NewTimelineRepository(db *sql.DB) repository.TimelineRepository {
	return &timelineRepository{db: db}
}

func (r *timelineRepository) Create(ctx context.Context, ev *domain.TimelineEvent) error {
	query := `INSERT INTO timeline_events (id, booking_id, type, description, occurred_on) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, ev.ID, ev.BookingID, ev.Type, ev.Description, ev.OccurredOn)
	return err
}

func (r *timelineRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.TimelineEvent, error) {
	query := `SELECT id, booking_id, type, description, occurred_on FROM timeline_events WHERE booking_id = $1 ORDER BY occurred_on, id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var ev domain.TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.BookingID, &ev.Type, &ev.Description, &ev.OccurredOn); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
