package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/techmart/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

// Envelope is what travels through the outbox and over kafka.
type Envelope struct {
	EventID     uuid.UUID       `json:"eventId"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, aggregateID string, payload any, at time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:     uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		OccurredAt:  at.UTC(),
		Payload:     data,
	}, nil
}

type OrderPlacedItem struct {
	ProductID domain.ProductID `json:"product_id"`
	Name      string           `json:"product_name"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
}

type OrderPlaced struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      string            `json:"user_id"`
	Email       string            `json:"email"`
	Items       []OrderPlacedItem `json:"items"`
	PromoCode   string            `json:"promo_code,omitempty"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Currency    string            `json:"currency"`
	PlacedAt    time.Time         `json:"placed_at"`
}

func NewOrderPlaced(o domain.Order) OrderPlaced {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	ev := OrderPlaced{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Email:       o.BillingDetails.Email,
		Items:       items,
		TotalAmount: o.Summary.Total.Round(2),
		Currency:    "USD",
		PlacedAt:    o.CreatedAt,
	}
	if o.Promo.Active() {
		ev.PromoCode = o.Promo.Code
	}
	return ev
}
