package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

// UnitCache mirrors available-unit counters into a fast store for read
// traffic. Updates are best effort; the repository stays authoritative.
type UnitCache interface {
	SetAvailable(ctx context.Context, productID int64, units int) error
	GetAvailable(ctx context.Context, productID int64) (int, bool, error)
}

// ReserveRequest asks for quantity units of one product over [Start, End).
type ReserveRequest struct {
	ProductID int64
	Quantity  int
	Start     time.Time
	End       time.Time
}

// Ledger tracks per-product unit buckets and answers availability
// queries. All mutations for a product are serialized through a
// per-product lock, so the check-then-act between availability and
// reservation cannot race within the process.
type Ledger struct {
	products     repository.ProductRepository
	reservations repository.ReservationRepository
	cache        UnitCache
	locks        *productLocks
}

func NewLedger(products repository.ProductRepository, reservations repository.ReservationRepository, cache UnitCache) *Ledger {
	return &Ledger{
		products:     products,
		reservations: reservations,
		cache:        cache,
		locks:        newProductLocks(),
	}
}

// CheckAvailability reports whether quantity units of the product can be
// held for every instant of [start, end). Capacity is total units minus
// maintenance; usage is the peak of concurrently reserved units across
// overlapping active reservations.
func (l *Ledger) CheckAvailability(ctx context.Context, productID int64, start, end time.Time, quantity int) (bool, error) {
	if err := validateWindow(start, end, quantity); err != nil {
		return false, err
	}
	// Fast precheck against the cached counter. A cached shortfall denies
	// without touching the repository; anything else falls through to the
	// authoritative check, so a stale high value can never grant units.
	if l.cache != nil {
		if cached, ok, err := l.cache.GetAvailable(ctx, productID); err == nil && ok && quantity > cached {
			return false, nil
		}
	}
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	peak, err := l.peakReserved(ctx, productID, start, end)
	if err != nil {
		return false, err
	}
	capacity := p.TotalUnits - p.MaintenanceUnits
	return quantity <= capacity-peak && quantity <= p.AvailableUnits, nil
}

// Reserve atomically creates a reservation for one product and moves the
// units from available to reserved. Fails with InsufficientInventory when
// the availability check does not pass at call time.
func (l *Ledger) Reserve(ctx context.Context, bookingID, productID int64, start, end time.Time, quantity int) (*domain.Reservation, error) {
	unlock := l.locks.lockAll([]int64{productID})
	defer unlock()
	return l.reserveLocked(ctx, bookingID, productID, start, end, quantity)
}

// ReserveAll reserves every requested item or nothing. The first failure
// rolls back the reservations already made for this attempt, so a
// half-reserved booking is never observable.
func (l *Ledger) ReserveAll(ctx context.Context, bookingID int64, requests []ReserveRequest) ([]domain.Reservation, error) {
	if len(requests) == 0 {
		return nil, domain.Errorf(domain.KindInvalidQuantity, "booking %d has no items to reserve", bookingID)
	}
	ids := make([]int64, 0, len(requests))
	for _, rq := range requests {
		ids = append(ids, rq.ProductID)
	}
	unlock := l.locks.lockAll(ids)
	defer unlock()

	made := make([]domain.Reservation, 0, len(requests))
	for _, rq := range requests {
		rsv, err := l.reserveLocked(ctx, bookingID, rq.ProductID, rq.Start, rq.End, rq.Quantity)
		if err != nil {
			for i := range made {
				if rbErr := l.releaseLocked(ctx, made[i].ID); rbErr != nil {
					logger.Error("Failed to roll back reservation", "reservation_id", made[i].ID, "error", rbErr)
				}
			}
			return nil, err
		}
		made = append(made, *rsv)
	}
	return made, nil
}

// Release returns a reservation's units to the available bucket. Calling
// it again for an already-released reservation is a no-op.
func (l *Ledger) Release(ctx context.Context, reservationID string) error {
	rsv, err := l.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	unlock := l.locks.lockAll([]int64{rsv.ProductID})
	defer unlock()
	return l.releaseLocked(ctx, reservationID)
}

// MoveToMaintenance pulls quantity units out of the available bucket.
func (l *Ledger) MoveToMaintenance(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "maintenance quantity must be positive, got %d", quantity)
	}
	unlock := l.locks.lockAll([]int64{productID})
	defer unlock()
	if err := l.products.AdjustCounters(ctx, productID, -quantity, 0, quantity); err != nil {
		return err
	}
	l.refreshCache(ctx, productID)
	return nil
}

// ReturnFromMaintenance moves quantity units back to available.
func (l *Ledger) ReturnFromMaintenance(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "maintenance quantity must be positive, got %d", quantity)
	}
	unlock := l.locks.lockAll([]int64{productID})
	defer unlock()
	if err := l.products.AdjustCounters(ctx, productID, quantity, 0, -quantity); err != nil {
		return err
	}
	l.refreshCache(ctx, productID)
	return nil
}

// DayAvailability is the free-unit count for one calendar day.
type DayAvailability struct {
	Day       time.Time `json:"day"`
	FreeUnits int       `json:"free_units"`
}

// AvailabilityCalendar returns per-day free units over [from, to), for
// booking calendars.
func (l *Ledger) AvailabilityCalendar(ctx context.Context, productID int64, from, to time.Time) ([]DayAvailability, error) {
	if !from.Before(to) {
		return nil, domain.Errorf(domain.KindInvalidDuration, "calendar range must be non-empty")
	}
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	active, err := l.reservations.ListActiveOverlapping(ctx, productID, from, to)
	if err != nil {
		return nil, err
	}
	capacity := p.TotalUnits - p.MaintenanceUnits

	var days []DayAvailability
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		used := 0
		for i := range active {
			if active[i].Overlaps(day, next) {
				used += active[i].Quantity
			}
		}
		free := capacity - used
		if free < 0 {
			free = 0
		}
		days = append(days, DayAvailability{Day: day, FreeUnits: free})
	}
	return days, nil
}

func (l *Ledger) reserveLocked(ctx context.Context, bookingID, productID int64, start, end time.Time, quantity int) (*domain.Reservation, error) {
	if err := validateWindow(start, end, quantity); err != nil {
		return nil, err
	}
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	peak, err := l.peakReserved(ctx, productID, start, end)
	if err != nil {
		return nil, err
	}
	capacity := p.TotalUnits - p.MaintenanceUnits
	if quantity > capacity-peak || quantity > p.AvailableUnits {
		return nil, domain.Errorf(domain.KindInsufficientInventory,
			"product %d: requested %d units for %s to %s, %d free in window",
			productID, quantity, start.Format("2006-01-02"), end.Format("2006-01-02"), min(capacity-peak, p.AvailableUnits))
	}

	rsv := &domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		BookingID: bookingID,
		Start:     start,
		End:       end,
		Quantity:  quantity,
		CreatedOn: time.Now().UTC(),
	}
	// The insert and the counter move commit together; the row lock taken
	// inside is what serializes reserves across processes.
	if err := l.reservations.CreateAndHold(ctx, rsv); err != nil {
		return nil, err
	}
	l.refreshCache(ctx, productID)
	return rsv, nil
}

func (l *Ledger) releaseLocked(ctx context.Context, reservationID string) error {
	rsv, err := l.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	released, err := l.reservations.Release(ctx, reservationID)
	if err != nil {
		return err
	}
	if !released {
		return nil
	}
	if err := l.products.AdjustCounters(ctx, rsv.ProductID, rsv.Quantity, -rsv.Quantity, 0); err != nil {
		return fmt.Errorf("released reservation %s but failed to return units: %w", reservationID, err)
	}
	l.refreshCache(ctx, rsv.ProductID)
	return nil
}

// peakReserved computes the maximum number of concurrently reserved units
// over [start, end) by evaluating usage at every reservation boundary
// inside the window.
func (l *Ledger) peakReserved(ctx context.Context, productID int64, start, end time.Time) (int, error) {
	active, err := l.reservations.ListActiveOverlapping(ctx, productID, start, end)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	points := []time.Time{start}
	for i := range active {
		if active[i].Start.After(start) && active[i].Start.Before(end) {
			points = append(points, active[i].Start)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	peak := 0
	for _, at := range points {
		used := 0
		for i := range active {
			if !active[i].Start.After(at) && at.Before(active[i].End) {
				used += active[i].Quantity
			}
		}
		if used > peak {
			peak = used
		}
	}
	return peak, nil
}

func (l *Ledger) refreshCache(ctx context.Context, productID int64) {
	if l.cache == nil {
		return
	}
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return
	}
	if err := l.cache.SetAvailable(ctx, productID, p.AvailableUnits); err != nil {
		logger.Debug("Unit cache refresh failed", "product_id", productID, "error", err)
	}
}

func validateWindow(start, end time.Time, quantity int) error {
	if quantity <= 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "quantity must be positive, got %d", quantity)
	}
	if !start.Before(end) {
		return domain.Errorf(domain.KindInvalidDuration, "reservation window must be non-empty")
	}
	return nil
}
