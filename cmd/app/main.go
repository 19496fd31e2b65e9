// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-gallery-payments/internal/config"
	"art-gallery-payments/internal/domain/ports/adapter"
	pg "art-gallery-payments/internal/infra/db/postgres"
	"art-gallery-payments/internal/infra/logging"
	"art-gallery-payments/internal/infra/metrics"
	payAdapters "art-gallery-payments/internal/infra/payment"
	red "art-gallery-payments/internal/infra/redis"
	"art-gallery-payments/internal/infra/sched"
	"art-gallery-payments/internal/infra/web"
	"art-gallery-payments/internal/infra/worker"
	"art-gallery-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	ledgerRepo := pg.NewTransactionRepo(pool)
	walletRepo := pg.NewWalletRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev && cfg.Gateway.PayOS.ClientID == "" {
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("payment gateway: in-memory noop (dev)")
	} else {
		gateway = payAdapters.NewPayOSGateway(
			cfg.Gateway.PayOS.ClientID,
			cfg.Gateway.PayOS.APIKey,
			cfg.Gateway.PayOS.ChecksumKey,
			cfg.Gateway.PayOS.BaseURL,
		)
		logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway configured")
	}

	// ---- Use cases ----
	walletUC := usecase.NewWalletUseCase(walletRepo, ledgerRepo, tm, cfg.Wallet.DailyWithdrawLimit, logger)
	paymentUC := usecase.NewPaymentUseCase(
		payRepo, ledgerRepo, walletRepo, gateway, tm,
		locker, cfg.Redis.LockTTL,
		cfg.Gateway.PayOS.CancelURL, cfg.Gateway.PayOS.ReturnURL,
		logger,
	)
	subUC := usecase.NewSubscriptionUseCase(
		subRepo, walletUC,
		cfg.Premium.Price, cfg.Premium.Interval, cfg.Premium.RenewLead,
		logger,
	)

	// ---- Background workers ----
	pool2 := worker.NewPool(cfg.Premium.RenewWorkers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	renewal := sched.NewRenewalWorker(cfg.Premium.RenewalPoll, subRepo, subUC, pool2, logger)
	go func() { _ = renewal.Run(ctx) }()

	reconciler := sched.NewPaymentReconciler(paymentUC, payRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	crons := sched.NewCronJobs(subUC, walletRepo, logger)
	if err := crons.Start(ctx, cfg.Premium.ExpiryCron, cfg.Premium.WithdrawCron); err != nil {
		logger.Fatal().Err(err).Msg("cron jobs failed to start")
	}
	defer crons.Stop()

	// ---- HTTP ----
	metrics.MustRegister()
	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.SecureCookie, cfg.Web.CookieDomain, cfg.Web.SessionTTL)
	srv := web.NewServer(paymentUC, walletUC, subUC, payRepo, auth, cfg.Gateway.PayOS.ChecksumKey, cfg.Runtime.Dev, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
