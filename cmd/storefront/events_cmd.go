package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fjod/techmart/internal/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errKafkaDisabled = errors.New("KAFKA_BROKERS is not set")

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Order events: the outbox and the Kafka topic",
	}

	var limit int
	pending := &cobra.Command{
		Use:   "pending",
		Short: "Print events waiting in the outbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.outbox.Pending(cmd.Context(), limit))
			})
		},
	}
	pending.Flags().IntVar(&limit, "limit", 100, "maximum number of events")

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Publish pending outbox events once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				pub := a.newPublisher()
				if pub == nil {
					return errKafkaDisabled
				}
				defer pub.Close()
				n := pub.Flush(cmd.Context())
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "published %d event(s)\n", n)
				return err
			})
		},
	}

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print order events from the topic until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg.Kafka
			if !cfg.Enabled() {
				return errKafkaDisabled
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reader := events.NewKafkaReader(cfg.Topic, cfg.GroupID, cfg.Brokers...)
			consumer := events.NewConsumer(reader, func(_ context.Context, env events.Envelope) error {
				return printJSON(cmd.OutOrStdout(), env)
			}, opts.log)
			defer consumer.Close()

			opts.log.Info("tailing events", zap.String("topic", cfg.Topic), zap.String("group", cfg.GroupID))
			consumer.Run(ctx)
			return nil
		},
	}

	cmd.AddCommand(pending, flush, tail)
	return cmd
}
