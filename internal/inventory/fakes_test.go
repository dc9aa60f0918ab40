package inventory

import (
	"context"
	"sync"
	"time"

	"rentdesk-backend/internal/domain"
)

// memProducts is an in-memory ProductRepository honoring the same
// guarded-adjust semantics as the SQL implementation.
type memProducts struct {
	mu   sync.Mutex
	rows map[int64]*domain.Product
}

func newMemProducts(products ...*domain.Product) *memProducts {
	m := &memProducts{rows: make(map[int64]*domain.Product)}
	for _, p := range products {
		cp := *p
		m.rows[p.ID] = &cp
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "product %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return domain.Errorf(domain.KindNotFound, "product %d not found", p.ID)
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProducts) List(_ context.Context, page, pageSize int32) ([]domain.Product, int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, *p)
	}
	return out, int32(len(out)), nil
}

func (m *memProducts) AdjustCounters(_ context.Context, id int64, availableDelta, reservedDelta, maintenanceDelta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "product %d not found", id)
	}
	if p.AvailableUnits+availableDelta < 0 ||
		p.ReservedUnits+reservedDelta < 0 ||
		p.MaintenanceUnits+maintenanceDelta < 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "adjust would drive a bucket negative")
	}
	p.AvailableUnits += availableDelta
	p.ReservedUnits += reservedDelta
	p.MaintenanceUnits += maintenanceDelta
	return nil
}

type memReservations struct {
	mu       sync.Mutex
	rows     map[string]*domain.Reservation
	products *memProducts
}

func newMemReservations(products *memProducts) *memReservations {
	return &memReservations{rows: make(map[string]*domain.Reservation), products: products}
}

func (m *memReservations) insert(r *domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rows[r.ID] = &cp
}

// CreateAndHold mirrors the transactional SQL path: the counter check,
// the insert and the counter move succeed or fail together.
func (m *memReservations) CreateAndHold(ctx context.Context, r *domain.Reservation) error {
	p, err := m.products.GetByID(ctx, r.ProductID)
	if err != nil {
		return err
	}
	if p.AvailableUnits < r.Quantity {
		return domain.Errorf(domain.KindInsufficientInventory,
			"product %d: requested %d units, %d available", r.ProductID, r.Quantity, p.AvailableUnits)
	}
	if err := m.products.AdjustCounters(ctx, r.ProductID, -r.Quantity, r.Quantity, 0); err != nil {
		return err
	}
	m.insert(r)
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "reservation %s not found", id)
	}
	cp := *r
	return &cp, nil
}

func (m *memReservations) Release(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return false, domain.Errorf(domain.KindNotFound, "reservation %s not found", id)
	}
	if r.Released {
		return false, nil
	}
	r.Released = true
	return true, nil
}

func (m *memReservations) ListActiveOverlapping(_ context.Context, productID int64, start, end time.Time) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.ProductID == productID && !r.Released && r.Overlaps(start, end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReservations) ListByBooking(_ context.Context, bookingID int64) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.BookingID == bookingID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// memCache is an in-memory UnitCache. getErr makes every read fail, for
// exercising the cache-outage path.
type memCache struct {
	mu     sync.Mutex
	units  map[int64]int
	getErr error
}

func newMemCache() *memCache {
	return &memCache{units: make(map[int64]int)}
}

func (c *memCache) SetAvailable(_ context.Context, productID int64, units int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[productID] = units
	return nil
}

func (c *memCache) GetAvailable(_ context.Context, productID int64) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	units, ok := c.units[productID]
	return units, ok, nil
}
