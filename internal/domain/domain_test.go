package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductID_UnmarshalStringAndNumber(t *testing.T) {
	var items []struct {
		ID ProductID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"p1"},{"id":42},{"id":null}]`), &items))

	assert.Equal(t, ProductID("p1"), items[0].ID)
	assert.Equal(t, ProductID("42"), items[1].ID)
	assert.Equal(t, ProductID(""), items[2].ID)
}

func TestProductID_UnmarshalRejectsObjects(t *testing.T) {
	var id ProductID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestLineItem_LineTotal(t *testing.T) {
	item := NewLineItem(Product{ID: "p1", Name: "Mouse", Price: decimal.RequireFromString("19.99")}, 3)
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.LineTotal()))
	assert.Equal(t, "Mouse", item.Name)
}

func TestPriceSummary_Rounded(t *testing.T) {
	s := PriceSummary{
		Subtotal: decimal.RequireFromString("30.999"),
		Tax:      decimal.RequireFromString("2.47992"),
	}
	r := s.Rounded()
	assert.Equal(t, "31", r.Subtotal.String())
	assert.Equal(t, "2.48", r.Tax.String())
}

func TestOrder_CloneDoesNotAlias(t *testing.T) {
	o := Order{
		Items: []CartLineItem{{ID: "p1", Quantity: 1}},
		Promo: &PromoState{Code: "SAVE10", Percent: 10},
	}
	c := o.Clone()
	c.Items[0].Quantity = 9
	c.Promo.Percent = 50

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, 10, o.Promo.Percent)
}

func TestUser_BillingPrefill(t *testing.T) {
	u := User{Email: "a@b.co", Name: "Ada Lovelace", City: "London"}
	b := u.BillingPrefill()
	assert.Equal(t, "Ada Lovelace", b.FirstName)
	assert.Equal(t, "a@b.co", b.Email)
	assert.Equal(t, "London", b.City)
	assert.Empty(t, b.PaymentMethod)
}

func TestCheckoutStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to CheckoutStatus
		ok       bool
	}{
		{CheckoutStatusLoading, CheckoutStatusItemsLoaded, true},
		{CheckoutStatusLoading, CheckoutStatusFailed, true},
		{CheckoutStatusItemsLoaded, CheckoutStatusPromoApplied, true},
		{CheckoutStatusItemsLoaded, CheckoutStatusSubmitting, true},
		{CheckoutStatusPromoApplied, CheckoutStatusPromoApplied, false},
		{CheckoutStatusPromoApplied, CheckoutStatusSubmitting, true},
		{CheckoutStatusSubmitting, CheckoutStatusSucceeded, true},
		{CheckoutStatusSubmitting, CheckoutStatusFailed, true},
		{CheckoutStatusFailed, CheckoutStatusSubmitting, true},
		{CheckoutStatusSucceeded, CheckoutStatusSubmitting, false},
		{CheckoutStatusItemsLoaded, CheckoutStatusSucceeded, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, CheckoutStatusSucceeded.IsTerminal())
	assert.False(t, CheckoutStatusFailed.IsTerminal())
}
