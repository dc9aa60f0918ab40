package domain

import "time"

// Reservation is a claim on Quantity units of a product for the half-open
// interval [Start, End). It is owned by exactly one booking.
type Reservation struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"product_id"`
	BookingID int64     `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Quantity  int       `json:"quantity"`
	Released  bool      `json:"released"`
	CreatedOn time.Time `json:"created_on"`
}

// Overlaps reports whether the reservation interval intersects [start, end).
// Half-open semantics: [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}
