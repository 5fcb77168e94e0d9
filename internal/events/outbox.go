package events

import (
	"context"
	"errors"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const KeyOutbox = "outbox"

// Outbox is the list of envelopes waiting to be published, oldest first.
type Outbox struct {
	store *storage.Store
	log   *zap.Logger
}

func NewOutbox(store *storage.Store, log *zap.Logger) *Outbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{store: store, log: log.Named("outbox")}
}

func (o *Outbox) Append(ctx context.Context, env Envelope) error {
	return storage.UpdateStrict(ctx, o.store, KeyOutbox, func(cur []Envelope, _ bool) ([]Envelope, error) {
		return append(cur, env), nil
	})
}

// RecordOrderPlaced appends an order.placed envelope for order.
func (o *Outbox) RecordOrderPlaced(ctx context.Context, order domain.Order) error {
	env, err := NewEnvelope(TypeOrderPlaced, order.ID.String(), NewOrderPlaced(order), order.CreatedAt)
	if err != nil {
		return err
	}
	if err := o.Append(ctx, env); err != nil {
		o.log.Error("record order event failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

// Pending returns up to limit envelopes; limit <= 0 returns all.
func (o *Outbox) Pending(ctx context.Context, limit int) []Envelope {
	var pending []Envelope
	o.store.Get(ctx, KeyOutbox, &pending)
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	if pending == nil {
		return []Envelope{}
	}
	return pending
}

// MarkPublished drops the envelopes with the given ids.
func (o *Outbox) MarkPublished(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	done := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		done[id] = struct{}{}
	}

	err := storage.UpdateStrict(ctx, o.store, KeyOutbox, func(cur []Envelope, found bool) ([]Envelope, error) {
		if !found {
			return nil, errEmptyOutbox
		}
		kept := make([]Envelope, 0, len(cur))
		for _, env := range cur {
			if _, ok := done[env.EventID]; !ok {
				kept = append(kept, env)
			}
		}
		return kept, nil
	})
	if errors.Is(err, errEmptyOutbox) {
		return nil
	}
	return err
}

var errEmptyOutbox = errors.New("outbox is empty")
