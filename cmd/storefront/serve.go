package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/techmart/internal/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return opts.withApp(ctx, func(a *app) error {
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	log := a.log

	if kept, err := a.ledger.Migrate(ctx); err != nil {
		log.Warn("cart migration failed", zap.Error(err))
	} else if kept > 0 {
		log.Info("cart migrated", zap.Int("items", kept))
	}

	var wg sync.WaitGroup
	bgCtx, cancelBg := context.WithCancel(ctx)
	defer func() {
		cancelBg()
		wg.Wait()
	}()

	if pub := a.newPublisher(); pub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pub.Close()
			pub.Run(bgCtx)
		}()
		log.Info("outbox publisher started",
			zap.Strings("brokers", a.cfg.Kafka.Brokers),
			zap.String("topic", a.cfg.Kafka.Topic))
	} else {
		log.Info("kafka disabled, order events stay in the outbox")
	}

	srv := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Store:          a.store,
			Catalog:        a.catalog,
			Cart:           a.ledger,
			BuyNow:         a.buyNow,
			Promos:         a.promos,
			Checkout:       a.checkout,
			Orders:         a.archive,
			Accounts:       a.accounts,
			RequestTimeout: a.cfg.HTTP.RequestTimeout,
			Log:            log,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: a.cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
