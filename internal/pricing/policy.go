package pricing

import (
	"errors"
	"fmt"

	"github.com/fjod/techmart/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the tax and shipping constants. All methods are pure.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingCost:          decimal.NewFromInt(10),
	}
}

func (p Policy) Validate() error {
	var errs []error
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("tax rate %s must be between 0 and 1", p.TaxRate))
	}
	if p.FreeShippingThreshold.IsNegative() {
		errs = append(errs, fmt.Errorf("free shipping threshold %s must not be negative", p.FreeShippingThreshold))
	}
	if p.ShippingCost.IsNegative() {
		errs = append(errs, fmt.Errorf("shipping cost %s must not be negative", p.ShippingCost))
	}
	return errors.Join(errs...)
}

func (p Policy) Subtotal(items []domain.CartLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

func (p Policy) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate)
}

// Shipping is free once the subtotal reaches the threshold (equality included).
func (p Policy) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeShipping(subtotal) {
		return decimal.Zero
	}
	return p.ShippingCost
}

func (p Policy) FreeShipping(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(p.FreeShippingThreshold)
}

// Discount applies percent to the subtotal only, never to tax or shipping.
func (p Policy) Discount(subtotal decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return decimal.Zero
	}
	return subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
}

func (p Policy) Total(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Summarize prices items with the given discount percent. An empty item list
// reports the shipping cost but totals 0.
func (p Policy) Summarize(items []domain.CartLineItem, percent int) domain.PriceSummary {
	subtotal := p.Subtotal(items)
	tax := p.Tax(subtotal)
	shipping := p.Shipping(subtotal)
	discount := p.Discount(subtotal, percent)

	total := decimal.Zero
	if len(items) > 0 {
		total = p.Total(subtotal, tax, shipping, discount)
	}

	return domain.PriceSummary{
		Subtotal:     subtotal,
		Tax:          tax,
		Shipping:     shipping,
		Discount:     discount,
		Total:        total,
		FreeShipping: p.FreeShipping(subtotal),
	}
}

// Format renders m as dollars with two decimals.
func Format(m decimal.Decimal) string {
	return "$" + m.StringFixed(2)
}
