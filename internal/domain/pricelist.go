package domain

import "time"

// DiscountRule is one entry in a pricelist. Rules are matched per line
// item; the highest-priority non-stackable match wins, stackable matches
// accumulate against the original line subtotal.
type DiscountRule struct {
	ID              int64      `json:"id"`
	PricelistID     int64      `json:"pricelist_id"`
	Name            string     `json:"name"`
	Priority        int        `json:"priority"`
	Stackable       bool       `json:"stackable"`
	Percent         float64    `json:"percent"`
	CustomerSegment string     `json:"customer_segment,omitempty"`
	ProductCategory string     `json:"product_category,omitempty"`
	MinQuantity     int        `json:"min_quantity,omitempty"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidTo         *time.Time `json:"valid_to,omitempty"`
}

// Matches reports whether the rule applies to a line for the given
// product, quantity and booking context. Empty condition fields match
// anything.
func (r *DiscountRule) Matches(p *Product, quantity int, segment string, start time.Time) bool {
	if r.CustomerSegment != "" && r.CustomerSegment != segment {
		return false
	}
	if r.ProductCategory != "" && r.ProductCategory != p.Category {
		return false
	}
	if r.MinQuantity > 0 && quantity < r.MinQuantity {
		return false
	}
	if r.ValidFrom != nil && start.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && start.After(*r.ValidTo) {
		return false
	}
	return true
}

type Pricelist struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Rules []DiscountRule `json:"rules"`
}
