package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

// CreateAndHold inserts the reservation and moves its units out of the
// available bucket in one transaction. The product row is locked with
// FOR UPDATE so concurrent reserves for the same product serialize here,
// and a crash can never leave an active reservation without its counter
// move.
func (r *reservationRepository) CreateAndHold(ctx context.Context, rsv *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var available int
	err = tx.QueryRowContext(ctx, `SELECT available_units FROM products WHERE id = $1 FOR UPDATE`, rsv.ProductID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Errorf(domain.KindNotFound, "product %d not found", rsv.ProductID)
	}
	if err != nil {
		return err
	}
	if available < rsv.Quantity {
		return domain.Errorf(domain.KindInsufficientInventory,
			"product %d: requested %d units, %d available", rsv.ProductID, rsv.Quantity, available)
	}

	insert := `INSERT INTO reservations (id, product_id, booking_id, start_date, end_date, quantity, released, created_on)
	           VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`
	if _, err := tx.ExecContext(ctx, insert, rsv.ID, rsv.ProductID, rsv.BookingID, rsv.Start, rsv.End, rsv.Quantity, time.Now()); err != nil {
		return err
	}

	hold := `UPDATE products
	         SET available_units = available_units - $2,
	             reserved_units = reserved_units + $2,
	             updated_on = NOW()
	         WHERE id = $1`
	if _, err := tx.ExecContext(ctx, hold, rsv.ProductID, rsv.Quantity); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	rsv := &domain.Reservation{}
	query := `SELECT id, product_id, booking_id, start_date, end_date, quantity, released, created_on FROM reservations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rsv.ID, &rsv.ProductID, &rsv.BookingID, &rsv.Start, &rsv.End, &rsv.Quantity, &rsv.Released, &rsv.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindNotFound, "reservation %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rsv, nil
}

// Release flips the released flag exactly once; the boolean reports
// whether this call did the flip.
func (r *reservationRepository) Release(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET released = TRUE WHERE id = $1 AND released = FALSE`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *reservationRepository) ListActiveOverlapping(ctx context.Context, productID int64, start, end time.Time) ([]domain.Reservation, error) {
	// Half-open overlap: [s1,e1) and [s2,e2) intersect iff s1 < e2 && s2 < e1.
	query := `SELECT id, product_id, booking_id, start_date, end_date, quantity, released, created_on
	          FROM reservations
	          WHERE product_id = $1 AND released = FALSE AND start_date < $3 AND $2 < end_date
	          ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, query, productID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Reservation, error) {
	query := `SELECT id, product_id, booking_id, start_date, end_date, quantity, released, created_on
	          FROM reservations WHERE booking_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	for rows.Next() {
		var rsv domain.Reservation
		if err := rows.Scan(&rsv.ID, &rsv.ProductID, &rsv.BookingID, &rsv.Start, &rsv.End, &rsv.Quantity, &rsv.Released, &rsv.CreatedOn); err != nil {
			return nil, err
		}
		reservations = append(reservations, rsv)
	}
	return reservations, rows.Err()
}
