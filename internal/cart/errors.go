package cart

import (
	"errors"

	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
)

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNotFound        = errors.New("product not found in cart")
	ErrStorage         = storage.ErrStorage

	ErrEmptyPromoCode = promo.ErrEmptyCode
	ErrInvalidPromo   = promo.ErrInvalidCode
)

const (
	KeyCart   = "cart"
	KeyBuyNow = "buyNow"
	KeyPromo  = "promo"
)
