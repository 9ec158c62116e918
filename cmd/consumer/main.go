package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/muhammadheryan/event-ticket/cmd/config"
	"github.com/muhammadheryan/event-ticket/thirdparty/rabbitmq"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"go.uber.org/zap"
)

// The consumer drains delayed reconcile messages and asks the API to settle
// payments that never received a callback.
func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		panic(err)
	}
	defer logger.Close()

	if cfg.Internal.APIKey == "" {
		logger.Fatal("INTERNAL_API_KEY is required for the reconcile consumer")
	}

	consumer, err := rabbitmq.NewConsumer(
		cfg.RabbitMQ.Host,
		cfg.RabbitMQ.Port,
		cfg.RabbitMQ.User,
		cfg.RabbitMQ.Password,
		cfg.Internal.APIURL,
		cfg.Internal.APIKey,
	)
	if err != nil {
		logger.Fatal("err connect rabbitmq", zap.Error(err))
	}
	defer func() {
		_ = consumer.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done, err := consumer.Start(ctx)
	if err != nil {
		logger.Fatal("err start consumer", zap.Error(err))
	}

	logger.Info("Reconcile consumer running", zap.String("api", cfg.Internal.APIURL))

	select {
	case <-ctx.Done():
		logger.Info("Shutting down consumer")
	case <-done:
		logger.Warn("consumer channel closed")
	}
}
