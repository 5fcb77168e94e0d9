package cart

import (
	"context"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/storage"
	"go.uber.org/zap"
)

// BuyNow is the single-use slot that bypasses the cart. Each Set overwrites it.
type BuyNow struct {
	store *storage.Store
	log   *zap.Logger
}

func NewBuyNow(store *storage.Store, log *zap.Logger) *BuyNow {
	if log == nil {
		log = zap.NewNop()
	}
	return &BuyNow{store: store, log: log.Named("buynow")}
}

func (b *BuyNow) Set(ctx context.Context, items []domain.CartLineItem) error {
	for _, item := range items {
		if item.ID == "" {
			return ErrInvalidProduct
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	if items == nil {
		items = []domain.CartLineItem{}
	}
	if !b.store.Set(ctx, KeyBuyNow, items) {
		return ErrStorage
	}
	return nil
}

// SetProduct captures a single product for an immediate purchase.
func (b *BuyNow) SetProduct(ctx context.Context, product domain.Product, quantity int) error {
	if product.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return b.Set(ctx, []domain.CartLineItem{domain.NewLineItem(product, quantity)})
}

func (b *BuyNow) Get(ctx context.Context) []domain.CartLineItem {
	var ls lines
	b.store.Get(ctx, KeyBuyNow, &ls)
	return ls.items()
}

func (b *BuyNow) Clear(ctx context.Context) error {
	if !b.store.Remove(ctx, KeyBuyNow) {
		b.log.Warn("clear buy-now slot failed")
		return ErrStorage
	}
	return nil
}
