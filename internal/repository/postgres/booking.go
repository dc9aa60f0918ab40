package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO bookings (customer_id, customer_segment, start_date, end_date, subtotal_cents, discount_cents, tax_cents, deposit_cents, delivery_charge_cents, final_cents, status, delivery_required, pickup_required, version, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15) RETURNING id, version`
	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		b.CustomerID, b.CustomerSegment, b.StartDate, b.EndDate,
		b.SubtotalCents, b.DiscountCents, b.TaxCents, b.DepositCents, b.DeliveryChargeCents, b.FinalCents,
		b.Status, b.DeliveryRequired, b.PickupRequired, now, now,
	).Scan(&b.ID, &b.Version)
	if err != nil {
		return err
	}

	for i := range b.Items {
		b.Items[i].BookingID = b.ID
		itemQuery := `INSERT INTO booking_items (booking_id, product_id, quantity, billed_units, rate_unit, unit_rate_cents, line_total_cents, deposit_per_unit_cents, reservation_id)
		              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
		err = tx.QueryRowContext(ctx, itemQuery,
			b.ID, b.Items[i].ProductID, b.Items[i].Quantity, b.Items[i].BilledUnits, b.Items[i].RateUnit,
			b.Items[i].UnitRateCents, b.Items[i].LineTotalCents, b.Items[i].DepositPerUnitCents,
			nullString(b.Items[i].ReservationID),
		).Scan(&b.Items[i].ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT id, customer_id, customer_segment, start_date, end_date, subtotal_cents, discount_cents, tax_cents, deposit_cents, delivery_charge_cents, final_cents, status, cancel_reason, actual_return_date, delivery_required, pickup_required, version, created_on, updated_on
	          FROM bookings WHERE id = $1`
	var cancelReason sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.CustomerID, &b.CustomerSegment, &b.StartDate, &b.EndDate,
		&b.SubtotalCents, &b.DiscountCents, &b.TaxCents, &b.DepositCents, &b.DeliveryChargeCents, &b.FinalCents,
		&b.Status, &cancelReason, &b.ActualReturnDate, &b.DeliveryRequired, &b.PickupRequired,
		&b.Version, &b.CreatedOn, &b.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "booking %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	b.CancelReason = cancelReason.String

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

// Update writes the booking guarded by its version; a stale version fails
// with ConcurrencyConflict and the caller retries from a fresh read.
func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE bookings
	          SET status=$1, cancel_reason=$2, actual_return_date=$3, version=version+1, updated_on=$4
	          WHERE id=$5 AND version=$6`
	res, err := tx.ExecContext(ctx, query, b.Status, nullString(b.CancelReason), b.ActualReturnDate, time.Now(), b.ID, b.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Errorf(domain.KindConcurrencyConflict,
			"booking %d was modified concurrently (version %d is stale)", b.ID, b.Version)
	}

	for i := range b.Items {
		if b.Items[i].ReservationID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE booking_items SET reservation_id=$1 WHERE id=$2`,
			b.Items[i].ReservationID, b.Items[i].ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.Version++
	return nil
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	baseQuery := `SELECT id, customer_id, customer_segment, start_date, end_date, subtotal_cents, discount_cents, tax_cents, deposit_cents, delivery_charge_cents, final_cents, status, cancel_reason, actual_return_date, delivery_required, pickup_required, version, created_on, updated_on
	              FROM bookings WHERE customer_id = $1`
	args := []interface{}{customerID}
	argIdx := 2
	if status != "" {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + baseQuery + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

func (r *bookingRepository) ListDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	query := `SELECT id, customer_id, customer_segment, start_date, end_date, subtotal_cents, discount_cents, tax_cents, deposit_cents, delivery_charge_cents, final_cents, status, cancel_reason, actual_return_date, delivery_required, pickup_required, version, created_on, updated_on
	          FROM bookings
	          WHERE end_date < $1 AND actual_return_date IS NULL AND status NOT IN ('COMPLETED', 'CANCELLED', 'DRAFT')
	          ORDER BY end_date`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *bookingRepository) listItems(ctx context.Context, bookingID int64) ([]domain.BookingItem, error) {
	query := `SELECT id, booking_id, product_id, quantity, billed_units, rate_unit, unit_rate_cents, line_total_cents, deposit_per_unit_cents, reservation_id
	          FROM booking_items WHERE booking_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BookingItem
	for rows.Next() {
		var it domain.BookingItem
		var rsvID sql.NullString
		if err := rows.Scan(&it.ID, &it.BookingID, &it.ProductID, &it.Quantity, &it.BilledUnits, &it.RateUnit,
			&it.UnitRateCents, &it.LineTotalCents, &it.DepositPerUnitCents, &rsvID); err != nil {
			return nil, err
		}
		it.ReservationID = rsvID.String
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var cancelReason sql.NullString
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.CustomerSegment, &b.StartDate, &b.EndDate,
			&b.SubtotalCents, &b.DiscountCents, &b.TaxCents, &b.DepositCents, &b.DeliveryChargeCents, &b.FinalCents,
			&b.Status, &cancelReason, &b.ActualReturnDate, &b.DeliveryRequired, &b.PickupRequired,
			&b.Version, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, err
		}
		b.CancelReason = cancelReason.String
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
