package domain

type CheckoutStatus string

const (
	CheckoutStatusLoading      CheckoutStatus = "loading"
	CheckoutStatusItemsLoaded  CheckoutStatus = "items_loaded"
	CheckoutStatusPromoApplied CheckoutStatus = "promo_applied"
	CheckoutStatusSubmitting   CheckoutStatus = "submitting"
	CheckoutStatusSucceeded    CheckoutStatus = "succeeded"
	CheckoutStatusFailed       CheckoutStatus = "failed"
)

// A failed session can go back to submitting (or take a first promo) after a
// recoverable submission error. Empty-order failures are stopped by the service.
var validNext = map[CheckoutStatus]map[CheckoutStatus]bool{
	CheckoutStatusLoading: {
		CheckoutStatusItemsLoaded:  true,
		CheckoutStatusPromoApplied: true,
		CheckoutStatusFailed:       true,
	},
	CheckoutStatusItemsLoaded: {
		CheckoutStatusPromoApplied: true,
		CheckoutStatusSubmitting:   true,
	},
	CheckoutStatusPromoApplied: {
		CheckoutStatusSubmitting: true,
	},
	CheckoutStatusSubmitting: {
		CheckoutStatusSucceeded: true,
		CheckoutStatusFailed:    true,
	},
	CheckoutStatusFailed: {
		CheckoutStatusSubmitting:   true,
		CheckoutStatusPromoApplied: true,
	},
}

func (s CheckoutStatus) CanTransition(to CheckoutStatus) bool {
	return validNext[s][to]
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
