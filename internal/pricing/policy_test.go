package pricing

import (
	"testing"

	"github.com/fjod/techmart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func item(id string, price string, qty int) domain.CartLineItem {
	return domain.CartLineItem{ID: domain.ProductID(id), Price: d(price), Quantity: qty}
}

func TestSubtotal(t *testing.T) {
	p := DefaultPolicy()
	assertMoney(t, "0", p.Subtotal(nil))
	assertMoney(t, "0", p.Subtotal([]domain.CartLineItem{}))
	assertMoney(t, "129.97", p.Subtotal([]domain.CartLineItem{
		item("p1", "19.99", 3),
		item("p2", "70.00", 1),
	}))
}

func TestSubtotal_NoFloatDrift(t *testing.T) {
	p := DefaultPolicy()
	items := make([]domain.CartLineItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, item("p", "0.1", 1))
	}
	assertMoney(t, "1", p.Subtotal(items))
}

func TestShipping_Threshold(t *testing.T) {
	p := DefaultPolicy()

	assertMoney(t, "10", p.Shipping(d("0")))
	assertMoney(t, "10", p.Shipping(d("99.99")))
	assertMoney(t, "0", p.Shipping(d("100")))
	assertMoney(t, "0", p.Shipping(d("100.01")))

	assert.False(t, p.FreeShipping(d("99.99")))
	assert.True(t, p.FreeShipping(d("100")))
}

func TestShipping_ZeroThresholdIsAlwaysFree(t *testing.T) {
	p := DefaultPolicy()
	p.FreeShippingThreshold = decimal.Zero
	assertMoney(t, "0", p.Shipping(decimal.Zero))
}

func TestTaxAndDiscount(t *testing.T) {
	p := DefaultPolicy()
	assertMoney(t, "8", p.Tax(d("100")))
	assertMoney(t, "3", p.Discount(d("30"), 10))
	assertMoney(t, "0", p.Discount(d("30"), 0))
	assertMoney(t, "21", p.Discount(d("30"), 70))
}

func TestTotal_ClampsAtZero(t *testing.T) {
	p := DefaultPolicy()
	assertMoney(t, "0", p.Total(d("10"), d("0"), d("0"), d("50")))
	assertMoney(t, "118", p.Total(d("100"), d("8"), d("10"), d("0")))
}

func TestSummarize_EmptyCart(t *testing.T) {
	s := DefaultPolicy().Summarize(nil, 0)

	assertMoney(t, "0", s.Subtotal)
	assertMoney(t, "0", s.Tax)
	assertMoney(t, "10", s.Shipping)
	assertMoney(t, "0", s.Total)
	assert.False(t, s.FreeShipping)
}

// Two units at 50 reach the free-shipping threshold exactly.
func TestSummarize_ScenarioA(t *testing.T) {
	s := DefaultPolicy().Summarize([]domain.CartLineItem{item("p1", "50", 2)}, 0)

	assertMoney(t, "100", s.Subtotal)
	assertMoney(t, "8", s.Tax)
	assertMoney(t, "0", s.Shipping)
	assertMoney(t, "108", s.Total)
	assert.True(t, s.FreeShipping)
}

func TestSummarize_ScenarioB(t *testing.T) {
	s := DefaultPolicy().Summarize([]domain.CartLineItem{item("p1", "30", 1)}, 10)

	assertMoney(t, "30", s.Subtotal)
	assertMoney(t, "2.4", s.Tax)
	assertMoney(t, "10", s.Shipping)
	assertMoney(t, "3", s.Discount)
	assertMoney(t, "39.4", s.Total)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	bad := Policy{TaxRate: d("1.5"), FreeShippingThreshold: d("-1"), ShippingCost: d("-2")}
	err := bad.Validate()
	assert.ErrorContains(t, err, "tax rate")
	assert.ErrorContains(t, err, "threshold")
	assert.ErrorContains(t, err, "shipping cost")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$0.00", Format(decimal.Zero))
	assert.Equal(t, "$39.40", Format(d("39.4")))
	assert.Equal(t, "$2.48", Format(d("2.4792")))
}
