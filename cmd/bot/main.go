package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/balbiss/pix-automatico/internal/bot"
	"github.com/balbiss/pix-automatico/internal/config"
	"github.com/balbiss/pix-automatico/internal/gateway"
	"github.com/balbiss/pix-automatico/internal/handler"
	"github.com/balbiss/pix-automatico/internal/logging"
	"github.com/balbiss/pix-automatico/internal/middleware"
	"github.com/balbiss/pix-automatico/internal/notifier"
	"github.com/balbiss/pix-automatico/internal/repository"
	"github.com/balbiss/pix-automatico/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("pix-automatico", cfg.LogLevel, cfg.AppEnv)

	pricing, err := cfg.InitialPricing()
	if err != nil {
		slog.Error("invalid pricing config", "error", err)
		os.Exit(1)
	}
	pricingStore := config.NewPricingStore(pricing)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		slog.Error("failed to init telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("telegram bot authorized", "username", botAPI.Self.UserName)

	accounts := repository.NewAccountRepository(db)
	ledger := repository.NewLedgerRepository(db)
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayClientID, cfg.GatewayClientSecret, cfg.WebhookURL)
	tgNotifier := notifier.NewTelegramNotifier(botAPI, cfg.EbookPath)

	charges := service.NewChargeService(gatewayClient, ledger, pricingStore)
	reconciler := service.NewReconciler(ledger, accounts, tgNotifier, db, pricingStore)
	withdrawals := service.NewWithdrawService(gatewayClient, accounts, pricingStore)

	webhookHandler := handler.NewWebhookHandler(reconciler)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/gateway", webhookHandler.ReceiveGatewayWebhook)
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stopBot := context.WithCancel(context.Background())
	tgBot := bot.New(botAPI, accounts, charges, withdrawals, reconciler, tgNotifier, pricingStore, cfg.AdminIDs, logger)
	go tgBot.Run(runCtx)

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	stopBot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
