package domain

import (
	"github.com/shopspring/decimal"
)

// CartLineItem is one product entry in the cart or the buy-now slot.
type CartLineItem struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Description string          `json:"description,omitempty"`
}

func NewLineItem(p Product, quantity int) CartLineItem {
	return CartLineItem{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    quantity,
		Thumbnail:   p.Thumbnail,
		Description: p.Description,
	}
}

func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CloneLineItems returns a copy that shares nothing with items.
func CloneLineItems(items []CartLineItem) []CartLineItem {
	if items == nil {
		return nil
	}
	out := make([]CartLineItem, len(items))
	copy(out, items)
	return out
}

type PriceSummary struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Shipping     decimal.Decimal `json:"shipping"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	FreeShipping bool            `json:"freeShipping"`
}

// Rounded returns the summary rounded to cents for display.
func (s PriceSummary) Rounded() PriceSummary {
	return PriceSummary{
		Subtotal:     s.Subtotal.Round(2),
		Tax:          s.Tax.Round(2),
		Shipping:     s.Shipping.Round(2),
		Discount:     s.Discount.Round(2),
		Total:        s.Total.Round(2),
		FreeShipping: s.FreeShipping,
	}
}

type PromoState struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

func (p *PromoState) Active() bool {
	return p != nil && p.Percent > 0
}
