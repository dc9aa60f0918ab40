package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	List(ctx context.Context, page, pageSize int32) ([]domain.Product, int32, error)
	// AdjustCounters moves units between buckets in a single guarded
	// statement. Deltas that would drive any bucket negative fail with
	// InvalidQuantity and leave the row untouched.
	AdjustCounters(ctx context.Context, id int64, availableDelta, reservedDelta, maintenanceDelta int) error
}

type ReservationRepository interface {
	// CreateAndHold inserts the reservation and moves its units from the
	// available to the reserved bucket in one transaction, locking the
	// product row for the duration. Either both writes land or neither.
	CreateAndHold(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// Release marks the reservation released and reports whether this
	// call performed the release. Releasing twice is a no-op.
	Release(ctx context.Context, id string) (bool, error)
	ListActiveOverlapping(ctx context.Context, productID int64, start, end time.Time) ([]domain.Reservation, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Reservation, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Update writes the booking only if the stored version still matches
	// b.Version, then bumps it. A mismatch fails with ConcurrencyConflict.
	Update(ctx context.Context, b *domain.Booking) error
	ListByCustomer(ctx context.Context, customerID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
}

type InstallmentRepository interface {
	Create(ctx context.Context, in *domain.Installment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Installment, error)
	MarkOverdueDueBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	// CreateApplied inserts the payment together with the installment
	// rows it was applied to, in one transaction. A partially credited
	// schedule without its payment row is never observable.
	CreateApplied(ctx context.Context, p *domain.Payment, applied []domain.Installment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
}

type ReturnCaseRepository interface {
	Create(ctx context.Context, rc *domain.ReturnCase) error
	GetByBooking(ctx context.Context, bookingID int64) (*domain.ReturnCase, error)
	Update(ctx context.Context, rc *domain.ReturnCase) error
}

type PricelistRepository interface {
	Create(ctx context.Context, pl *domain.Pricelist) error
	GetByID(ctx context.Context, id int64) (*domain.Pricelist, error)
	ListRules(ctx context.Context, pricelistID int64) ([]domain.DiscountRule, error)
}

type TimelineRepository interface {
	Create(ctx context.Context, ev *domain.TimelineEvent) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.TimelineEvent, error)
}
