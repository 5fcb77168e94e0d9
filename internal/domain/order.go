package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

type BillingDetails struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Company       string `json:"company,omitempty"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	Country       string `json:"country,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
}

// Order is an immutable snapshot taken when a checkout is submitted.
type Order struct {
	ID             uuid.UUID      `json:"id"`
	UserID         string         `json:"userId"`
	Items          []CartLineItem `json:"items"`
	BillingDetails BillingDetails `json:"billingDetails"`
	Summary        PriceSummary   `json:"summary"`
	Promo          *PromoState    `json:"promo,omitempty"`
	Status         OrderStatus    `json:"status"`
	PaymentMethod  string         `json:"paymentMethod"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Clone deep-copies the order so callers cannot reach archived state.
func (o Order) Clone() Order {
	c := o
	c.Items = CloneLineItems(o.Items)
	if o.Promo != nil {
		p := *o.Promo
		c.Promo = &p
	}
	return c
}
