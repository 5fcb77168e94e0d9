package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fjod/techmart/internal/config"
	"github.com/fjod/techmart/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	envFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "TechMart storefront: cart, buy-now, promo codes and checkout",
		Long: `storefront runs the TechMart cart and checkout core.

"serve" exposes it over HTTP. The other commands operate on the same store
directly, which is handy for scripting and for inspecting a running shop.

Configuration comes from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			} else {
				_ = godotenv.Load()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			opts.cfg = cfg

			opts.log, err = logger.New(cfg.LogLevel, cfg.Environment)
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment variables from this file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newCatalogCmd(opts),
		newCartCmd(opts),
		newBuyNowCmd(opts),
		newCheckoutCmd(opts),
		newOrdersCmd(opts),
		newAccountCmd(opts),
		newEventsCmd(opts),
	)
	return root
}

// withApp opens the store for the duration of fn.
func (o *rootOptions) withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx, o.cfg, o.log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
