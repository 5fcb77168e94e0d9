package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/pricing"
	"github.com/fjod/techmart/internal/promo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type CartSource interface {
	Items(ctx context.Context) []domain.CartLineItem
	Clear(ctx context.Context) error
}

type BuyNowSource interface {
	Get(ctx context.Context) []domain.CartLineItem
	Clear(ctx context.Context) error
}

// PromoSource is the promo persisted by the cart page.
type PromoSource interface {
	Current(ctx context.Context) *domain.PromoState
	Clear(ctx context.Context) error
}

type OrderSink interface {
	Append(ctx context.Context, order domain.Order) error
}

type EventRecorder interface {
	RecordOrderPlaced(ctx context.Context, order domain.Order) error
}

type Profiles interface {
	CurrentUser(ctx context.Context) (domain.User, bool)
	SaveBilling(ctx context.Context, b domain.BillingDetails) error
}

type Deps struct {
	Cart   CartSource
	BuyNow BuyNowSource
	Promos PromoSource
	Engine *promo.Engine
	Policy pricing.Policy
	Orders OrderSink

	// Events and Profiles are optional.
	Events   EventRecorder
	Profiles Profiles

	SessionTTL time.Duration
	Now        func() time.Time
	Log        *zap.Logger
}

type SubmitOptions struct {
	// SaveBilling copies the billing details onto the logged-in user's profile.
	SaveBilling bool
}

type Service struct {
	cart     CartSource
	buyNow   BuyNowSource
	promos   PromoSource
	engine   *promo.Engine
	policy   pricing.Policy
	orders   OrderSink
	events   EventRecorder
	profiles Profiles

	sessions *registry
	now      func() time.Time
	log      *zap.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cart:     d.Cart,
		buyNow:   d.BuyNow,
		promos:   d.Promos,
		engine:   d.Engine,
		policy:   d.Policy,
		orders:   d.Orders,
		events:   d.Events,
		profiles: d.Profiles,
		sessions: newRegistry(d.SessionTTL, 0, now),
		now:      now,
		log:      log.Named("checkout"),
	}
}

// Close stops the session cleanup loop.
func (s *Service) Close() {
	s.sessions.close()
}

// Begin loads the items for mode and registers a new session. With nothing to
// buy the failed session is returned with ErrEmptyOrder and is not registered.
func (s *Service) Begin(ctx context.Context, mode Mode) (Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.New(),
		Mode:      mode,
		Status:    domain.CheckoutStatusLoading,
		CreatedAt: now,
		UpdatedAt: now,
	}
	log := s.log.With(zap.String("session_id", sess.ID.String()), zap.String("mode", mode.String()))

	if mode == ModeBuyNow {
		sess.Items = s.buyNow.Get(ctx)
		if err := s.buyNow.Clear(ctx); err != nil {
			log.Warn("could not clear buy-now slot", zap.Error(err))
		}
	} else {
		sess.Items = s.cart.Items(ctx)
	}

	if s.profiles != nil {
		if u, ok := s.profiles.CurrentUser(ctx); ok {
			sess.UserID = u.ID
			sess.Billing = u.BillingPrefill()
		}
	}

	if len(sess.Items) == 0 {
		_ = sess.transition(domain.CheckoutStatusFailed, now)
		sess.LastError = ErrEmptyOrder.Error()
		sess.Summary = s.policy.Summarize(nil, 0)
		log.Info("checkout started with nothing to buy")
		return sess.clone(), ErrEmptyOrder
	}

	next := domain.CheckoutStatusItemsLoaded
	if mode == ModeCart {
		if p := s.promos.Current(ctx); p.Active() {
			sess.Promo = p
			next = domain.CheckoutStatusPromoApplied
		}
	}
	if err := sess.transition(next, now); err != nil {
		return Session{}, err
	}
	sess.Summary = s.policy.Summarize(sess.Items, sess.promoPercent())

	s.sessions.add(sess)
	log.Info("checkout started", zap.Int("items", len(sess.Items)), zap.String("status", sess.Status.String()))
	return sess.clone(), nil
}

func (s *Service) Session(id uuid.UUID) (Session, error) {
	e, ok := s.sessions.get(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone(), nil
}

// ApplyPromo applies code once per session. Rejected codes leave the session as it was.
func (s *Service) ApplyPromo(ctx context.Context, id uuid.UUID, code string) (Session, error) {
	e, ok := s.sessions.get(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sess := &e.session

	if len(sess.Items) == 0 {
		return sess.clone(), ErrEmptyOrder
	}
	if sess.Promo.Active() {
		return sess.clone(), ErrPromoLocked
	}
	if !sess.Status.CanTransition(domain.CheckoutStatusPromoApplied) {
		return sess.clone(), &IllegalTransitionError{From: sess.Status, To: domain.CheckoutStatusPromoApplied}
	}

	state, err := s.engine.Apply(code)
	if err != nil {
		return sess.clone(), err
	}

	if err := sess.transition(domain.CheckoutStatusPromoApplied, s.now()); err != nil {
		return sess.clone(), err
	}
	sess.Promo = &state
	sess.Summary = s.policy.Summarize(sess.Items, state.Percent)

	s.log.Info("promo applied",
		zap.String("session_id", id.String()),
		zap.String("code", state.Code),
		zap.String("discount", sess.Summary.Discount.StringFixed(2)))
	return sess.clone(), nil
}

// Submit snapshots the session into an order and archives it. On success the
// source of the items and the stored promo are cleared; on failure nothing is.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, billing domain.BillingDetails, opts SubmitOptions) (Session, error) {
	ctx, span := otel.Tracer("techmart/checkout").Start(ctx, "checkout.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.session_id", id.String()))

	e, ok := s.sessions.get(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sess := &e.session

	if sess.Status.IsTerminal() {
		return sess.clone(), &IllegalTransitionError{From: sess.Status, To: domain.CheckoutStatusSubmitting}
	}
	if len(sess.Items) == 0 {
		return sess.clone(), ErrEmptyOrder
	}

	billing = normalizeBilling(billing)
	if err := validateBilling(billing); err != nil {
		return sess.clone(), err
	}

	now := s.now()
	if err := sess.transition(domain.CheckoutStatusSubmitting, now); err != nil {
		return sess.clone(), err
	}
	sess.Billing = billing
	sess.LastError = ""

	order := s.buildOrder(ctx, sess, billing, now)
	log := s.log.With(zap.String("session_id", id.String()), zap.String("order_id", order.ID.String()))
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	if err := s.orders.Append(ctx, order); err != nil {
		_ = sess.transition(domain.CheckoutStatusFailed, s.now())
		sess.LastError = ErrSubmission.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive order")
		log.Error("order submission failed", zap.Error(err))
		return sess.clone(), fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	clearErr := s.clearSource(ctx, sess.Mode, log)
	if s.events != nil {
		if err := s.events.RecordOrderPlaced(ctx, order); err != nil {
			log.Warn("order event not recorded", zap.Error(err))
		}
	}
	if opts.SaveBilling && s.profiles != nil {
		if err := s.profiles.SaveBilling(ctx, billing); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("saving billing details failed", zap.Error(err))
		}
	}

	if err := sess.transition(domain.CheckoutStatusSucceeded, s.now()); err != nil {
		return sess.clone(), err
	}
	sess.Order = &order
	if clearErr != nil {
		sess.LastError = ErrSourceNotClear.Error()
	}

	log.Info("order placed",
		zap.String("total", pricing.Format(order.Summary.Total)),
		zap.Int("items", len(order.Items)))
	return sess.clone(), nil
}

func (s *Service) buildOrder(ctx context.Context, sess *Session, billing domain.BillingDetails, now time.Time) domain.Order {
	userID := sess.UserID
	if s.profiles != nil {
		if u, ok := s.profiles.CurrentUser(ctx); ok {
			userID = u.ID
		}
	}
	order := domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          domain.CloneLineItems(sess.Items),
		BillingDetails: billing,
		Summary:        s.policy.Summarize(sess.Items, sess.promoPercent()),
		Status:         domain.OrderStatusPending,
		PaymentMethod:  billing.PaymentMethod,
		CreatedAt:      now.UTC(),
	}
	if sess.Promo.Active() {
		p := *sess.Promo
		order.Promo = &p
	}
	return order
}

// clearSource empties the cart or buy-now slot the order was placed from and
// drops the stored promo. Only a failure to empty the source is returned.
func (s *Service) clearSource(ctx context.Context, mode Mode, log *zap.Logger) error {
	var err error
	if mode == ModeBuyNow {
		err = s.buyNow.Clear(ctx)
	} else {
		err = s.cart.Clear(ctx)
	}
	if err != nil {
		log.Error("order placed but checkout source not cleared", zap.Error(err))
	}
	if err := s.promos.Clear(ctx); err != nil {
		log.Warn("could not clear stored promo", zap.Error(err))
	}
	return err
}

// Abandon drops the session. A buy-now session also empties the buy-now slot.
func (s *Service) Abandon(ctx context.Context, id uuid.UUID) error {
	e, ok := s.sessions.remove(id)
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	mode := e.session.Mode
	e.mu.Unlock()

	if mode == ModeBuyNow {
		if err := s.buyNow.Clear(ctx); err != nil {
			return err
		}
	}
	s.log.Info("checkout abandoned", zap.String("session_id", id.String()))
	return nil
}
