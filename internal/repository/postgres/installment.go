package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type installmentRepository struct {
	db *sql.DB
}

func NewInstallmentRepository(db *sql.DB) repository.InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) Create(ctx context.Context, in *domain.Installment) error {
	query := `INSERT INTO installments (booking_id, description, amount_cents, paid_cents, due_date, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		in.BookingID, in.Description, in.AmountCents, in.PaidCents, in.DueDate, in.Status, time.Now(),
	).Scan(&in.ID)
}

func (r *installmentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Installment, error) {
	query := `SELECT id, booking_id, description, amount_cents, paid_cents, due_date, status, paid_on, created_on
	          FROM installments WHERE booking_id = $1 ORDER BY due_date, id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []domain.Installment
	for rows.Next() {
		var in domain.Installment
		if err := rows.Scan(&in.ID, &in.BookingID, &in.Description, &in.AmountCents, &in.PaidCents,
			&in.DueDate, &in.Status, &in.PaidOn, &in.CreatedOn); err != nil {
			return nil, err
		}
		installments = append(installments, in)
	}
	return installments, rows.Err()
}

// MarkOverdueDueBefore flags unpaid installments past the cutoff. The
// booking-level payment status derives this on read anyway; the stored
// flag feeds reporting queries.
func (r *installmentRepository) MarkOverdueDueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE installments SET status = 'OVERDUE'
	          WHERE status = 'PENDING' AND paid_cents < amount_cents AND due_date < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (booking_id, amount_cents, method, transaction_id, advance_credit, received_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		p.BookingID, p.AmountCents, p.Method, nullString(p.TransactionID), p.AdvanceCredit, p.ReceivedOn,
	).Scan(&p.ID)
}

func (r *paymentRepository) CreateApplied(ctx context.Context, p *domain.Payment, applied []domain.Installment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `UPDATE installments SET paid_cents=$1, status=$2, paid_on=$3 WHERE id=$4`
	for i := range applied {
		if _, err := tx.ExecContext(ctx, update, applied[i].PaidCents, applied[i].Status, applied[i].PaidOn, applied[i].ID); err != nil {
			return err
		}
	}

	insert := `INSERT INTO payments (booking_id, amount_cents, method, transaction_id, advance_credit, received_on)
	           VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := tx.QueryRowContext(ctx, insert,
		p.BookingID, p.AmountCents, p.Method, nullString(p.TransactionID), p.AdvanceCredit, p.ReceivedOn,
	).Scan(&p.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	query := `SELECT id, booking_id, amount_cents, method, transaction_id, advance_credit, received_on
	          FROM payments WHERE booking_id = $1 ORDER BY received_on, id`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var txnID sql.NullString
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &txnID, &p.AdvanceCredit, &p.ReceivedOn); err != nil {
			return nil, err
		}
		p.TransactionID = txnID.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
