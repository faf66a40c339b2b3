package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/boddenberg/lead-console-go/internal/infra/queue"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued lead notifications",
	Long: `worker consumes lead notifications published by "serve" when AMQP_URL
is set, and sends them over WhatsApp and email. Failed deliveries are
dead-lettered to <AMQP_QUEUE>.dlq.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.AMQPURL == "" {
			return errors.New("worker requires AMQP_URL")
		}
		notifier, err := a.notifier()
		if err != nil {
			return err
		}

		rmq, err := queue.Dial(a.cfg.AMQPURL, a.cfg.AMQPQueue)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { rmq.Close() })

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.logger.Info("worker starting", zap.String("queue", a.cfg.AMQPQueue))
		err = queue.NewConsumer(rmq.Ch, rmq.Queue, notifier.Notify, a.logger).Run(ctx)
		a.logger.Info("worker stopped")
		return err
	},
}
