package postgres

import (
	"database/sql"

	"rentdesk-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Store bundles every repository over one database handle.
type Store struct {
	db *sql.DB
	repository.ProductRepository
	repository.ReservationRepository
	repository.BookingRepository
	repository.InstallmentRepository
	repository.PaymentRepository
	repository.ReturnCaseRepository
	repository.PricelistRepository
	repository.TimelineRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		ProductRepository:     NewProductRepository(db),
		ReservationRepository: NewReservationRepository(db),
		BookingRepository:     NewBookingRepository(db),
		InstallmentRepository: NewInstallmentRepository(db),
		PaymentRepository:     NewPaymentRepository(db),
		ReturnCaseRepository:  NewReturnCaseRepository(db),
		PricelistRepository:   NewPricelistRepository(db),
		TimelineRepository:    NewTimelineRepository(db),
	}
}

// DB exposes the raw handle for jobs that run bulk SQL.
func (s *Store) DB() *sql.DB {
	return s.db
}
