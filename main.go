package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ticket-backend/internal/config"
	"ticket-backend/internal/issuance"
	"ticket-backend/internal/issuance/api"
	"ticket-backend/internal/kafka"
	"ticket-backend/internal/lock"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/notification"
	"ticket-backend/internal/payment"
	"ticket-backend/internal/sales"
	salesdb "ticket-backend/internal/sales/db"
	qr "ticket-backend/internal/tickets/qr_genrator"
	tickets "ticket-backend/internal/tickets/service"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// ledgerBackend is what the workflow needs from a ledger plus a way to release it.
type ledgerBackend interface {
	issuance.Ledger
	Close() error
}

type fileLedgerBackend struct {
	*sales.FileLedger
}

func (fileLedgerBackend) Close() error { return nil }

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, using in-process locks")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("❌ Redis connection failed to %s: %v", cfg.Addr, err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func openLedger(ctx context.Context, cfg *config.Config, locker lock.Locker, shared bool, log *logger.Logger) ledgerBackend {
	switch cfg.Ledger.Driver {
	case config.LedgerDriverSQLite, config.LedgerDriverPostgres:
		db, err := salesdb.Open(ctx, cfg.Ledger.Driver, cfg.LedgerDSN(), log)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("❌ Failed to open %s ledger: %v", cfg.Ledger.Driver, err))
		}
		return db
	case config.LedgerDriverJSON:
		path := filepath.Join(cfg.Tickets.Dir, cfg.Ledger.SalesFile)
		ledger := sales.NewFileLedger(path, log)
		if shared {
			ledger.Locker = locker
		}
		log.Info("LEDGER", fmt.Sprintf("Using JSON ledger at %s", path))
		return fileLedgerBackend{ledger}
	default:
		log.Fatal("CONFIG", fmt.Sprintf("Unknown LEDGER_DRIVER %q", cfg.Ledger.Driver))
		return nil
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()
	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()

	logger.Info("APP", "Starting ticket backend initialization")

	if cfg.Paystack.SecretKey == "" {
		logger.Warn("CONFIG", "PAYSTACK_SECRET_KEY is empty, every verification will be rejected")
	}
	if cfg.Email.SMTPUsername == "" || cfg.Email.SMTPPassword == "" {
		logger.Warn("CONFIG", "SENDER_EMAIL or APP_PASSWORD is empty, ticket emails will fail")
	}

	if err := os.MkdirAll(cfg.Tickets.Dir, 0755); err != nil {
		logger.Fatal("APP", fmt.Sprintf("Failed to create tickets directory %s: %v", cfg.Tickets.Dir, err))
	}

	ctx := context.Background()

	var locker lock.Locker = lock.NewLocalLock()
	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedisLock(redisClient, cfg.Redis.LockTTL, logger)
	}

	ledger := openLedger(ctx, cfg, locker, redisClient != nil, logger)
	defer ledger.Close()

	imageDir := cfg.Tickets.Dir
	switch cfg.Tickets.ImageMode {
	case config.ImageModeMemory:
		imageDir = ""
		logger.Info("TICKETS", "Ticket images kept in memory")
	case config.ImageModeDisk:
		logger.Info("TICKETS", fmt.Sprintf("Ticket images written to %s", cfg.Tickets.Dir))
	default:
		logger.Warn("CONFIG", fmt.Sprintf("Unknown TICKET_IMAGE_MODE %q, writing images to disk", cfg.Tickets.ImageMode))
	}
	ticketService := tickets.NewTicketService(qr.NewQRGenerator(), imageDir, logger)

	verifier := payment.NewPaystackVerifier(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout, cfg.Paystack.MaxRetries, logger)
	notifier := notification.NewEmailNotifier(cfg.Email, logger)

	issuanceService := issuance.NewService(verifier, ticketService, ledger, notifier, locker, logger)
	issuanceService.MaxPerSale = cfg.Tickets.MaxPerSale
	issuanceService.RejectDuplicates = cfg.Tickets.RejectDuplicateReference
	issuanceService.LockTTL = cfg.Redis.LockTTL

	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.SalesTopic}, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SalesTopic, logger)
		defer producer.Close()
		issuanceService.Events = producer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	}

	handler := api.NewHandler(issuanceService, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Ticket backend running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Ticket backend shutdown complete")
	}
}
