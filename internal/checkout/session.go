package checkout

import (
	"time"

	"github.com/fjod/techmart/internal/domain"
	"github.com/google/uuid"
)

// Session is a snapshot of one checkout attempt.
type Session struct {
	ID        uuid.UUID             `json:"id"`
	Mode      Mode                  `json:"mode"`
	Status    domain.CheckoutStatus `json:"status"`
	UserID    string                `json:"userId,omitempty"`
	Items     []domain.CartLineItem `json:"items"`
	Promo     *domain.PromoState    `json:"promo,omitempty"`
	Summary   domain.PriceSummary   `json:"summary"`
	Billing   domain.BillingDetails `json:"billing"`
	Order     *domain.Order         `json:"order,omitempty"`
	LastError string                `json:"lastError,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func (s *Session) transition(to domain.CheckoutStatus, at time.Time) error {
	if !s.Status.CanTransition(to) {
		return &IllegalTransitionError{From: s.Status, To: to}
	}
	s.Status = to
	s.UpdatedAt = at
	return nil
}

func (s *Session) promoPercent() int {
	if s.Promo.Active() {
		return s.Promo.Percent
	}
	return 0
}

// PromoLocked reports whether the promo input is closed for this session.
func (s Session) PromoLocked() bool {
	return s.Promo.Active()
}

func (s Session) clone() Session {
	c := s
	c.Items = domain.CloneLineItems(s.Items)
	if s.Promo != nil {
		p := *s.Promo
		c.Promo = &p
	}
	if s.Order != nil {
		o := s.Order.Clone()
		c.Order = &o
	}
	return c
}
