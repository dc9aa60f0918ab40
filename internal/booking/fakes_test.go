package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"rentdesk-backend/internal/domain"
)

// memBookings enforces the same optimistic version check as the SQL
// implementation.
type memBookings struct {
	mu         sync.Mutex
	next       int64
	rows       map[int64]*domain.Booking
	failUpdate bool
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[int64]*domain.Booking)}
}

func (m *memBookings) Create(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	b.ID = m.next
	b.Version = 1
	cp := *b
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "booking %d not found", id)
	}
	cp := *b
	cp.Items = append([]domain.BookingItem(nil), b.Items...)
	return &cp, nil
}

func (m *memBookings) Update(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		m.failUpdate = false
		return domain.Errorf(domain.KindConcurrencyConflict, "booking %d was modified concurrently", b.ID)
	}
	stored, ok := m.rows[b.ID]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "booking %d not found", b.ID)
	}
	if stored.Version != b.Version {
		return domain.Errorf(domain.KindConcurrencyConflict, "booking %d was modified concurrently", b.ID)
	}
	b.Version++
	cp := *b
	cp.Items = append([]domain.BookingItem(nil), b.Items...)
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) ListByCustomer(_ context.Context, customerID int64, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.rows {
		if b.CustomerID != customerID {
			continue
		}
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, *b)
	}
	return out, int32(len(out)), nil
}

func (m *memBookings) ListDueBefore(_ context.Context, cutoff time.Time) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.rows {
		if b.IsOverdue(cutoff) {
			out = append(out, *b)
		}
	}
	return out, nil
}

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
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProducts) List(_ context.Context, page, pageSize int32) ([]domain.Product, int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
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

func (m *memReservations) CreateAndHold(ctx context.Context, r *domain.Reservation) error {
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

type memPricelists struct {
	rows map[int64]*domain.Pricelist
}

func newMemPricelists(lists ...*domain.Pricelist) *memPricelists {
	m := &memPricelists{rows: make(map[int64]*domain.Pricelist)}
	for _, pl := range lists {
		m.rows[pl.ID] = pl
	}
	return m
}

func (m *memPricelists) Create(_ context.Context, pl *domain.Pricelist) error {
	m.rows[pl.ID] = pl
	return nil
}

func (m *memPricelists) GetByID(_ context.Context, id int64) (*domain.Pricelist, error) {
	pl, ok := m.rows[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "pricelist %d not found", id)
	}
	return pl, nil
}

func (m *memPricelists) ListRules(_ context.Context, pricelistID int64) ([]domain.DiscountRule, error) {
	pl, ok := m.rows[pricelistID]
	if !ok {
		return nil, nil
	}
	return pl.Rules, nil
}

type memTimeline struct {
	mu   sync.Mutex
	rows []domain.TimelineEvent
}

func (m *memTimeline) Create(_ context.Context, ev *domain.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *ev)
	return nil
}

func (m *memTimeline) ListByBooking(_ context.Context, bookingID int64) ([]domain.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TimelineEvent
	for _, ev := range m.rows {
		if ev.BookingID == bookingID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memTimeline) typesFor(bookingID int64) []domain.TimelineEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TimelineEventType
	for _, ev := range m.rows {
		if ev.BookingID == bookingID {
			out = append(out, ev.Type)
		}
	}
	return out
}

type memInstallments struct {
	mu         sync.Mutex
	next       int64
	rows       []domain.Installment
	failCreate bool
}

func (m *memInstallments) Create(_ context.Context, in *domain.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errors.New("installments unavailable")
	}
	m.next++
	in.ID = m.next
	m.rows = append(m.rows, *in)
	return nil
}

func (m *memInstallments) Update(_ context.Context, in *domain.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == in.ID {
			m.rows[i] = *in
			return nil
		}
	}
	return domain.Errorf(domain.KindNotFound, "installment %d not found", in.ID)
}

func (m *memInstallments) ListByBooking(_ context.Context, bookingID int64) ([]domain.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Installment
	for _, in := range m.rows {
		if in.BookingID == bookingID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memInstallments) MarkOverdueDueBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.rows {
		if m.rows[i].Status == domain.InstallmentStatusPending && m.rows[i].DueDate.Before(cutoff) {
			m.rows[i].Status = domain.InstallmentStatusOverdue
			n++
		}
	}
	return n, nil
}

type memPayments struct {
	mu           sync.Mutex
	rows         []domain.Payment
	installments *memInstallments
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPayments) CreateApplied(ctx context.Context, p *domain.Payment, applied []domain.Installment) error {
	for i := range applied {
		cp := applied[i]
		if err := m.installments.Update(ctx, &cp); err != nil {
			return err
		}
	}
	return m.Create(ctx, p)
}

func (m *memPayments) ListByBooking(_ context.Context, bookingID int64) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, p := range m.rows {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}
