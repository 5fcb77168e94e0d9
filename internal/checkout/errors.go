package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/promo"
)

var (
	ErrEmptyOrder      = errors.New("there are no items to check out")
	ErrSubmission      = errors.New("order submission failed, please try again")
	ErrPromoLocked     = errors.New("a promo code is already applied")
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrSourceNotClear  = errors.New("order placed, but its items could not be removed from the cart")

	ErrEmptyPromoCode = promo.ErrEmptyCode
	ErrInvalidPromo   = promo.ErrInvalidCode
)

type IllegalTransitionError struct {
	From domain.CheckoutStatus
	To   domain.CheckoutStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition of checkout status from %s to %s", e.From, e.To)
}

// ValidationError reports a billing field the user has to fix.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
