package cart

import (
	"context"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
	"go.uber.org/zap"
)

// PromoSlot keeps the code applied on the cart page so checkout can restore it.
type PromoSlot struct {
	store  *storage.Store
	engine *promo.Engine
	log    *zap.Logger
}

func NewPromoSlot(store *storage.Store, engine *promo.Engine, log *zap.Logger) *PromoSlot {
	if log == nil {
		log = zap.NewNop()
	}
	return &PromoSlot{store: store, engine: engine, log: log.Named("promo")}
}

// Apply validates code and stores it. Invalid codes leave the slot untouched.
func (p *PromoSlot) Apply(ctx context.Context, code string) (domain.PromoState, error) {
	state, err := p.engine.Apply(code)
	if err != nil {
		return domain.PromoState{}, err
	}
	if !p.store.Set(ctx, KeyPromo, state) {
		return domain.PromoState{}, ErrStorage
	}
	p.log.Debug("promo stored", zap.String("code", state.Code), zap.Int("percent", state.Percent))
	return state, nil
}

// Current returns the stored promo, or nil when none is active.
func (p *PromoSlot) Current(ctx context.Context) *domain.PromoState {
	var state domain.PromoState
	if !p.store.Get(ctx, KeyPromo, &state) || !state.Active() {
		return nil
	}
	return &state
}

func (p *PromoSlot) Clear(ctx context.Context) error {
	if !p.store.Remove(ctx, KeyPromo) {
		return ErrStorage
	}
	return nil
}
