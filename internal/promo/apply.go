package promo

import (
	"errors"

	"github.com/fjod/techmart/internal/domain"
)

var (
	ErrEmptyCode   = errors.New("please enter a promo code")
	ErrInvalidCode = errors.New("invalid promo code")
)

// Apply turns code into an active promo. A code worth 0 percent is invalid.
func (e *Engine) Apply(code string) (domain.PromoState, error) {
	key := Normalize(code)
	if key == "" {
		return domain.PromoState{}, ErrEmptyCode
	}
	percent := e.codes[key]
	if percent <= 0 {
		return domain.PromoState{}, ErrInvalidCode
	}
	return domain.PromoState{Code: key, Percent: percent}, nil
}
