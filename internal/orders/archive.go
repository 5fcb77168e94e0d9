package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeyOrders holds the full order list, oldest first.
const KeyOrders = "orders"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already archived")
	ErrInvalidOrder   = errors.New("order has no id")
)

// Archive is the append-only order history.
type Archive struct {
	store *storage.Store
	log   *zap.Logger
}

func NewArchive(store *storage.Store, log *zap.Logger) *Archive {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archive{store: store, log: log.Named("orders")}
}

// Append adds a deep copy of order to the end of the list.
func (a *Archive) Append(ctx context.Context, order domain.Order) error {
	if order.ID == uuid.Nil {
		return ErrInvalidOrder
	}

	err := storage.UpdateStrict(ctx, a.store, KeyOrders, func(cur []domain.Order, _ bool) ([]domain.Order, error) {
		for _, o := range cur {
			if o.ID == order.ID {
				return nil, ErrDuplicateOrder
			}
		}
		return append(cur, order.Clone()), nil
	})
	if err != nil {
		a.log.Error("append order failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return err
	}

	a.log.Info("order archived",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Summary.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	return nil
}

// All returns every archived order. Unreadable storage reads as empty.
func (a *Archive) All(ctx context.Context) []domain.Order {
	var all []domain.Order
	a.store.Get(ctx, KeyOrders, &all)

	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		out = append(out, o.Clone())
	}
	return out
}

// FindByUser matches orders on the billing email, ignoring case.
func (a *Archive) FindByUser(ctx context.Context, email string) []domain.Order {
	email = strings.TrimSpace(email)
	out := []domain.Order{}
	if email == "" {
		return out
	}
	for _, o := range a.All(ctx) {
		if strings.EqualFold(o.BillingDetails.Email, email) {
			out = append(out, o)
		}
	}
	return out
}

func (a *Archive) ByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	for _, o := range a.All(ctx) {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

// Count is the number of archived orders.
func (a *Archive) Count(ctx context.Context) int {
	return len(a.All(ctx))
}
