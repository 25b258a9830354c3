package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homeplate/cart-service/internal/adapter/email"
	mongoadapter "github.com/homeplate/cart-service/internal/adapter/mongo"
	natsadapter "github.com/homeplate/cart-service/internal/adapter/nats"
	redisadapter "github.com/homeplate/cart-service/internal/adapter/redis"
	"github.com/homeplate/cart-service/internal/app/config"
	"github.com/homeplate/cart-service/internal/platform/logger"
	httpserver "github.com/homeplate/cart-service/internal/port/http"
	"github.com/homeplate/cart-service/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg         *config.Config
	log         logger.Logger
	server      *httpserver.Server
	mongoClient *mongo.Client
	redisClient *redis.Client
	natsConn    *nats.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	appLogger, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Infof("Configuration loaded: Env=%s, HTTP port: %s", cfg.Env, cfg.HTTPServer.Port)

	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized")

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized")

	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	msgPublisher, err := natsadapter.NewNATSPublisher(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize NATS publisher: %w", err)
	}
	appLogger.Info("NATS publisher initialized")

	var emailSender email.Sender
	if cfg.SMTP.Enabled() {
		emailSender, err = email.NewSMTPSender(cfg.SMTP, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		appLogger.Info("SMTP sender initialized")
	} else {
		appLogger.Info("SMTP not configured, receipt emails disabled")
	}

	cartRepo := mongoadapter.NewCartRepository(mongoClient, cfg.MongoDB)
	orderRepo := mongoadapter.NewOrderRepository(mongoClient, cfg.MongoDB)
	listingRepo := mongoadapter.NewListingRepository(mongoClient, cfg.MongoDB)
	listingCache := redisadapter.NewListingCache(redisClient)

	stores := service.NewStoreManager(cartRepo, listingRepo, listingCache, appLogger, cfg.ListingCache.TTL)
	checkoutSvc := service.NewCheckoutService(stores, orderRepo, listingRepo, listingCache, msgPublisher, emailSender, appLogger)
	orderSvc := service.NewOrderService(orderRepo, listingRepo, listingCache, msgPublisher, appLogger)
	receiptSvc := service.NewReceiptService(orderRepo, appLogger)

	handler := httpserver.NewHandler(stores, checkoutSvc, orderSvc, receiptSvc, appLogger)
	server := httpserver.NewServer(cfg.HTTPServer, cfg.JWT.Secret, handler, appLogger, cfg.Env)

	return &App{
		cfg:         cfg,
		log:         appLogger,
		server:      server,
		mongoClient: mongoClient,
		redisClient: redisClient,
		natsConn:    natsConn,
	}, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	}

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		}
	}

	a.log.Info("Application shut down successfully")
}
