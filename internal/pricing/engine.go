package pricing

import (
	"math"
	"sort"
	"time"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
)

// QuoteItem is one requested line: a product, a quantity and the rental
// window the line is priced over.
type QuoteItem struct {
	Product  *domain.Product
	Quantity int
	Start    time.Time
	End      time.Time
}

// Context carries the booking-level inputs that discount rules match
// against, plus delivery charges added after tax.
type Context struct {
	CustomerSegment     string
	Pricelist           *domain.Pricelist
	DeliveryChargeCents int64
}

// LineBreakdown explains one priced line.
type LineBreakdown struct {
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	BilledUnits    int             `json:"billed_units"`
	RateUnit       domain.RateUnit `json:"rate_unit"`
	UnitRateCents  int64           `json:"unit_rate_cents"`
	LineTotalCents int64           `json:"line_total_cents"`
	DiscountCents  int64           `json:"discount_cents"`
	DepositCents   int64           `json:"deposit_cents"`
	AppliedRules   []string        `json:"applied_rules,omitempty"`
}

// Result is the full pricing of a proposed item set.
type Result struct {
	SubtotalCents       int64           `json:"subtotal_cents"`
	DiscountCents       int64           `json:"discount_cents"`
	TaxCents            int64           `json:"tax_cents"`
	DepositCents        int64           `json:"deposit_cents"`
	DeliveryChargeCents int64           `json:"delivery_charge_cents"`
	FinalCents          int64           `json:"final_cents"`
	Breakdown           []LineBreakdown `json:"breakdown"`
}

// Engine computes line totals, discounts, tax and deposits. Deposits are
// summed separately and are never taxed or discounted.
type Engine struct {
	cfg config.PricingConfig
}

func NewEngine(cfg config.PricingConfig) *Engine {
	return &Engine{cfg: cfg}
}

// PriceItems prices the item set under the given context.
// finalAmount = subtotal - discount + tax + deliveryCharges.
func (e *Engine) PriceItems(items []QuoteItem, pctx Context) (*Result, error) {
	res := &Result{DeliveryChargeCents: pctx.DeliveryChargeCents}

	for _, it := range items {
		if it.Product == nil {
			return nil, domain.Errorf(domain.KindNotFound, "quote item has no product")
		}
		if it.Quantity <= 0 {
			return nil, domain.Errorf(domain.KindInvalidQuantity, "product %d: quantity must be positive", it.Product.ID)
		}
		if it.Product.BaseRateCents <= 0 {
			return nil, domain.Errorf(domain.KindNoApplicableRate, "product %d has no base rate for unit %q", it.Product.ID, it.Product.RateUnit)
		}

		billed, err := BilledUnits(it.Start, it.End, it.Product.RateUnit)
		if err != nil {
			return nil, err
		}

		line := LineBreakdown{
			ProductID:      it.Product.ID,
			Quantity:       it.Quantity,
			BilledUnits:    billed,
			RateUnit:       it.Product.RateUnit,
			UnitRateCents:  it.Product.BaseRateCents,
			LineTotalCents: it.Product.BaseRateCents * int64(it.Quantity) * int64(billed),
			DepositCents:   it.Product.DepositPerUnitCents * int64(it.Quantity),
		}
		line.DiscountCents, line.AppliedRules = e.resolveDiscount(&it, pctx, line.LineTotalCents)

		res.SubtotalCents += line.LineTotalCents
		res.DiscountCents += line.DiscountCents
		res.DepositCents += line.DepositCents
		res.Breakdown = append(res.Breakdown, line)
	}

	res.TaxCents = roundCents(float64(res.SubtotalCents-res.DiscountCents) * e.cfg.TaxPercent / 100)
	res.FinalCents = res.SubtotalCents - res.DiscountCents + res.TaxCents + res.DeliveryChargeCents
	return res, nil
}

// resolveDiscount picks the effective discount for one line: rules are
// sorted by priority descending; the first non-stackable match wins
// outright, otherwise every stackable match applies against the original
// line total, capped at the configured combined maximum.
func (e *Engine) resolveDiscount(it *QuoteItem, pctx Context, lineTotal int64) (int64, []string) {
	if pctx.Pricelist == nil || len(pctx.Pricelist.Rules) == 0 {
		return 0, nil
	}

	matched := make([]domain.DiscountRule, 0, len(pctx.Pricelist.Rules))
	for _, rule := range pctx.Pricelist.Rules {
		if rule.Matches(it.Product, it.Quantity, pctx.CustomerSegment, it.Start) {
			matched = append(matched, rule)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority > matched[j].Priority })

	if !matched[0].Stackable {
		pct := clampPercent(matched[0].Percent, e.cfg.MaxCombinedDiscountPercent)
		return roundCents(float64(lineTotal) * pct / 100), []string{matched[0].Name}
	}

	combined := 0.0
	var names []string
	for _, rule := range matched {
		if !rule.Stackable {
			continue
		}
		combined += rule.Percent
		names = append(names, rule.Name)
	}
	combined = clampPercent(combined, e.cfg.MaxCombinedDiscountPercent)
	return roundCents(float64(lineTotal) * combined / 100), names
}

func clampPercent(pct, max float64) float64 {
	if max <= 0 || max > 100 {
		max = 100
	}
	if pct < 0 {
		return 0
	}
	if pct > max {
		return max
	}
	return pct
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
