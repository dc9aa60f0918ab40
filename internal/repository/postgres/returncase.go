package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type returnCaseRepository struct {
	db *sql.DB
}

func NewReturnCaseRepository(db *sql.DB) repository.ReturnCaseRepository {
	return &returnCaseRepository{db: db}
}

func (r *returnCaseRepository) Create(ctx context.Context, rc *domain.ReturnCase) error {
	items, err := json.Marshal(rc.Items)
	if err != nil {
		return err
	}
	query := `INSERT INTO return_cases (booking_id, actual_return_date, days_late, late_fee_cents, damage_cents, receivable_cents, refund_cents, items, resolution, note, created_on, resolved_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		rc.BookingID, rc.ActualReturnDate, rc.DaysLate, rc.LateFeeCents, rc.DamageCents,
		rc.ReceivableCents, rc.RefundCents, items, rc.Resolution, nullString(rc.Note), time.Now(), rc.ResolvedOn,
	).Scan(&rc.ID)
}

func (r *returnCaseRepository) GetByBooking(ctx context.Context, bookingID int64) (*domain.ReturnCase, error) {
	rc := &domain.ReturnCase{}
	var items []byte
	var note sql.NullString
	query := `SELECT id, booking_id, actual_return_date, days_late, late_fee_cents, damage_cents, receivable_cents, refund_cents, items, resolution, note, created_on, resolved_on
	          FROM return_cases WHERE booking_id = $1 ORDER BY created_on DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&rc.ID, &rc.BookingID, &rc.ActualReturnDate, &rc.DaysLate, &rc.LateFeeCents, &rc.DamageCents,
		&rc.ReceivableCents, &rc.RefundCents, &items, &rc.Resolution, &note, &rc.CreatedOn, &rc.ResolvedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "no return case for booking %d", bookingID)
	}
	if err != nil {
		return nil, err
	}
	rc.Note = note.String
	if len(items) > 0 {
		if err := json.Unmarshal(items, &rc.Items); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

func (r *returnCaseRepository) Update(ctx context.Context, rc *domain.ReturnCase) error {
	items, err := json.Marshal(rc.Items)
	if err != nil {
		return err
	}
	query := `UPDATE return_cases
	          SET days_late=$1, late_fee_cents=$2, damage_cents=$3, receivable_cents=$4, refund_cents=$5, items=$6, resolution=$7, note=$8, resolved_on=$9
	          WHERE id=$10`
	_, err = r.db.ExecContext(ctx, query,
		rc.DaysLate, rc.LateFeeCents, rc.DamageCents, rc.ReceivableCents, rc.RefundCents,
		items, rc.Resolution, nullString(rc.Note), rc.ResolvedOn, rc.ID)
	return err
}
