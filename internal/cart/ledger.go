package cart

import (
	"context"
	"errors"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/pricing"
	"github.com/fjod/techmart/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger owns the canonical cart. Every mutation rewrites the full list under
// the cart key's lock.
type Ledger struct {
	store  *storage.Store
	policy pricing.Policy
	log    *zap.Logger
}

func NewLedger(store *storage.Store, policy pricing.Policy, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		policy: policy,
		log:    log.Named("cart"),
	}
}

// Add puts quantity units of product in the cart. An existing line gets the
// quantities summed and its metadata refreshed from product.
func (l *Ledger) Add(ctx context.Context, product domain.Product, quantity int) error {
	if product.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	err := storage.Update(ctx, l.store, KeyCart, func(cur lines, _ bool) (lines, error) {
		if i := cur.find(product.ID); i >= 0 {
			cur[i] = domain.NewLineItem(product, cur[i].Quantity+quantity)
			return cur, nil
		}
		return append(cur, domain.NewLineItem(product, quantity)), nil
	})
	if err != nil {
		l.log.Error("add item failed", zap.String("product_id", product.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

// Remove drops the line for id. Removing an absent id succeeds.
func (l *Ledger) Remove(ctx context.Context, id domain.ProductID) error {
	err := storage.Update(ctx, l.store, KeyCart, func(cur lines, _ bool) (lines, error) {
		out := make(lines, 0, len(cur))
		for _, item := range cur {
			if item.ID != id {
				out = append(out, item)
			}
		}
		return out, nil
	})
	if err != nil {
		l.log.Error("remove item failed", zap.String("product_id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing line; quantity <= 0 removes it.
func (l *Ledger) UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return l.Remove(ctx, id)
	}

	err := storage.Update(ctx, l.store, KeyCart, func(cur lines, _ bool) (lines, error) {
		i := cur.find(id)
		if i < 0 {
			return nil, ErrNotFound
		}
		cur[i].Quantity = quantity
		return cur, nil
	})
	if err != nil {
		l.log.Warn("update quantity failed", zap.String("product_id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

// Clear deletes the cart key.
func (l *Ledger) Clear(ctx context.Context) error {
	if !l.store.Remove(ctx, KeyCart) {
		return ErrStorage
	}
	return nil
}

// Items returns a copy of the current lines. Unreadable storage reads as empty.
func (l *Ledger) Items(ctx context.Context) []domain.CartLineItem {
	var ls lines
	l.store.Get(ctx, KeyCart, &ls)
	return ls.items()
}

// ItemCount is the number of units, not distinct products.
func (l *Ledger) ItemCount(ctx context.Context) int {
	count := 0
	for _, item := range l.Items(ctx) {
		count += item.Quantity
	}
	return count
}

func (l *Ledger) Subtotal(ctx context.Context) decimal.Decimal {
	return l.policy.Subtotal(l.Items(ctx))
}

// Total is the undiscounted total of the live cart.
func (l *Ledger) Total(ctx context.Context) decimal.Decimal {
	return l.Summary(ctx, 0).Total
}

func (l *Ledger) Summary(ctx context.Context, percent int) domain.PriceSummary {
	return l.policy.Summarize(l.Items(ctx), percent)
}

func (l *Ledger) Contains(ctx context.Context, id domain.ProductID) bool {
	_, ok := l.Find(ctx, id)
	return ok
}

func (l *Ledger) Find(ctx context.Context, id domain.ProductID) (domain.CartLineItem, bool) {
	for _, item := range l.Items(ctx) {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CartLineItem{}, false
}

// Migrate rewrites the stored cart in the canonical flat shape. It reports the
// number of lines kept.
func (l *Ledger) Migrate(ctx context.Context) (int, error) {
	kept := 0
	err := storage.Update(ctx, l.store, KeyCart, func(cur lines, found bool) (lines, error) {
		if !found {
			return nil, errNothingToMigrate
		}
		kept = len(cur)
		return cur, nil
	})
	if errors.Is(err, errNothingToMigrate) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return kept, nil
}

var errNothingToMigrate = errors.New("no stored cart")
