package pricing

import (
	"time"

	"rentdesk-backend/internal/domain"
)

// BilledUnits converts the rental window [start, end) into whole billing
// units of the product's rate unit. Partial periods round up: 25 hours at
// a daily rate bills as 2 days. Months are calendar months (Jan 15 to
// Mar 2 bills as 2 months), everything else is fixed-length.
func BilledUnits(start, end time.Time, unit domain.RateUnit) (int, error) {
	if !start.Before(end) {
		return 0, domain.Errorf(domain.KindInvalidDuration, "duration must be positive")
	}

	switch unit {
	case domain.RateUnitHour:
		return ceilDiv(end.Sub(start), time.Hour), nil
	case domain.RateUnitDay:
		return ceilDiv(end.Sub(start), 24*time.Hour), nil
	case domain.RateUnitWeek:
		return ceilDiv(end.Sub(start), 7*24*time.Hour), nil
	case domain.RateUnitMonth:
		return calendarMonths(start, end), nil
	default:
		return 0, domain.Errorf(domain.KindNoApplicableRate, "unknown rate unit %q", unit)
	}
}

func ceilDiv(d, unit time.Duration) int {
	n := int(d / unit)
	if d%unit != 0 {
		n++
	}
	return n
}

// calendarMonths counts whole calendar months covering [start, end),
// rounding a trailing partial month up.
func calendarMonths(start, end time.Time) int {
	months := 0
	for start.AddDate(0, months, 0).Before(end) {
		months++
	}
	return months
}
