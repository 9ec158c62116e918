package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	eventapp "github.com/muhammadheryan/event-ticket/application/event"
	paymentapp "github.com/muhammadheryan/event-ticket/application/payment"
	userapp "github.com/muhammadheryan/event-ticket/application/user"
	"github.com/muhammadheryan/event-ticket/cmd/config"
	redisclient "github.com/muhammadheryan/event-ticket/cmd/redis"
	_ "github.com/muhammadheryan/event-ticket/docs"
	eventRepo "github.com/muhammadheryan/event-ticket/repository/event"
	paymentRepo "github.com/muhammadheryan/event-ticket/repository/payment"
	redisRepo "github.com/muhammadheryan/event-ticket/repository/redis"
	txRepo "github.com/muhammadheryan/event-ticket/repository/tx"
	userRepo "github.com/muhammadheryan/event-ticket/repository/user"
	"github.com/muhammadheryan/event-ticket/thirdparty/mpesa"
	"github.com/muhammadheryan/event-ticket/thirdparty/rabbitmq"
	"github.com/muhammadheryan/event-ticket/transport"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"go.uber.org/zap"
)

// @title EVENT TICKET API
// @version 1.0
// @description Event listing and M-Pesa ticket payment API
// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables
	cfg := config.Load()

	// Initialize global logger
	if err := logger.Init(cfg.Environment); err != nil {
		panic(err)
	}
	defer logger.Close()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("Starting server", zap.String("env", cfg.Environment))

	// Connect to database
	db, err := sqlx.Connect("mysql", cfg.GetDSN())
	if err != nil {
		logger.Fatal("err connect db", zap.Error(err))
	}
	defer db.Close()

	// Set database connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Initialize Redis client
	redisClient, err := redisclient.New(cfg)
	if err != nil {
		logger.Fatal("err connect redis", zap.Error(err))
	}
	defer func() {
		_ = redisClient.Close()
	}()

	// M-Pesa gateway
	gateway, err := mpesa.NewClient(cfg.Mpesa)
	if err != nil {
		logger.Fatal("err init mpesa client", zap.Error(err))
	}

	// Reconcile scheduling is optional; without it pending payments wait for a callback or a verify
	var publisher paymentapp.ReconcilePublisher
	if cfg.RabbitMQ.Enabled {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password)
		if err != nil {
			logger.Fatal("err connect rabbitmq", zap.Error(err))
		}
		defer func() {
			_ = p.Close()
		}()
		publisher = p
	}

	// Initialize repositories
	UserRepo := userRepo.NewUserRepository(db)
	EventRepo := eventRepo.NewEventRepository(db)
	PaymentRepo := paymentRepo.NewPaymentRepository(db)
	TxRepo := txRepo.NewTxRepository(db)
	RedisRepo := redisRepo.NewRepository(redisClient)

	// Initialize application layers
	UserApp := userapp.NewUserApp(cfg, UserRepo, RedisRepo)
	EventApp := eventapp.NewEventApp(EventRepo)
	PaymentApp := paymentapp.NewPaymentApp(cfg, TxRepo, PaymentRepo, RedisRepo, gateway, publisher)

	httpTransport := transport.NewTransport(cfg, UserApp, EventApp, PaymentApp)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpTransport,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP server running", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("err shutdown server", zap.Error(err))
	}
}
