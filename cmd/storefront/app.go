package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/techmart/internal/account"
	"github.com/fjod/techmart/internal/cart"
	"github.com/fjod/techmart/internal/catalog"
	"github.com/fjod/techmart/internal/checkout"
	"github.com/fjod/techmart/internal/config"
	"github.com/fjod/techmart/internal/events"
	"github.com/fjod/techmart/internal/orders"
	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
	"go.uber.org/zap"
)

// app is the storefront wired against one store.
type app struct {
	cfg *config.Config
	log *zap.Logger

	store    *storage.Store
	catalog  *catalog.Cache
	engine   *promo.Engine
	ledger   *cart.Ledger
	buyNow   *cart.BuyNow
	promos   *cart.PromoSlot
	archive  *orders.Archive
	outbox   *events.Outbox
	accounts *account.Service
	checkout *checkout.Service

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	store := storage.New(backend, log)

	engine, err := promo.NewEngine(cfg.Promos)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: store, engine: engine}
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			log.Warn("closing storage", zap.Error(err))
		}
	})

	var src catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogHTTP:
		h := catalog.NewHTTPSource(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, log)
		a.closers = append(a.closers, h.Close)
		src = h
	default:
		src = catalog.NewFileSource(cfg.Catalog.Dir)
	}
	a.catalog = catalog.NewCache(src, cfg.Catalog.TTL, log)

	a.ledger = cart.NewLedger(store, cfg.Pricing, log)
	a.buyNow = cart.NewBuyNow(store, log)
	a.promos = cart.NewPromoSlot(store, engine, log)
	a.archive = orders.NewArchive(store, log)
	a.outbox = events.NewOutbox(store, log)
	a.accounts = account.NewService(store, a.catalog, account.Options{BcryptCost: cfg.BcryptCost}, log)
	a.checkout = checkout.NewService(checkout.Deps{
		Cart:       a.ledger,
		BuyNow:     a.buyNow,
		Promos:     a.promos,
		Engine:     engine,
		Policy:     cfg.Pricing,
		Orders:     a.archive,
		Events:     a.outbox,
		Profiles:   a.accounts,
		SessionTTL: cfg.Checkout.SessionTTL,
		Log:        log,
	})
	a.closers = append(a.closers, a.checkout.Close)

	if !store.IsAvailable(ctx) {
		a.Close()
		return nil, errStorageUnavailable
	}
	return a, nil
}

var errStorageUnavailable = errors.New("storage is not writable")

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newPublisher returns nil when no Kafka brokers are configured.
func (a *app) newPublisher() *events.Publisher {
	if !a.cfg.Kafka.Enabled() {
		return nil
	}
	w := events.NewKafkaWriter(a.cfg.Kafka.Topic, a.cfg.Kafka.Brokers...)
	return events.NewPublisher(a.outbox, w, a.cfg.Kafka.OutboxInterval, a.log)
}
