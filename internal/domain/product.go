package domain

import "time"

type RateUnit string

const (
	RateUnitHour  RateUnit = "hour"
	RateUnitDay   RateUnit = "day"
	RateUnitWeek  RateUnit = "week"
	RateUnitMonth RateUnit = "month"
)

// Product is a rentable item type. Unit counts are bucketed; the buckets
// must always sum to TotalUnits.
type Product struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	BaseRateCents       int64     `json:"base_rate_cents"`
	RateUnit            RateUnit  `json:"rate_unit"`
	TotalUnits          int       `json:"total_units"`
	AvailableUnits      int       `json:"available_units"`
	ReservedUnits       int       `json:"reserved_units"`
	MaintenanceUnits    int       `json:"maintenance_units"`
	DepositPerUnitCents int64     `json:"deposit_per_unit_cents"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// UnitsConsistent reports whether the bucket invariant holds.
func (p *Product) UnitsConsistent() bool {
	return p.AvailableUnits >= 0 &&
		p.ReservedUnits >= 0 &&
		p.MaintenanceUnits >= 0 &&
		p.AvailableUnits+p.ReservedUnits+p.MaintenanceUnits == p.TotalUnits
}
