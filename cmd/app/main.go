// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"consulting-payments/internal/config"
	pg "consulting-payments/internal/infra/db/postgres"
	"consulting-payments/internal/infra/logging"
	"consulting-payments/internal/infra/metrics"
	"consulting-payments/internal/infra/payment"
	red "consulting-payments/internal/infra/redis"
	"consulting-payments/internal/infra/sched"
	"consulting-payments/internal/infra/web"
	"consulting-payments/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	tokenCache := red.NewTokenCache(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	orderRepo := pg.NewOrderRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	contractRepo := pg.NewContractRepo(pool)
	ticketRepo := pg.NewTicketRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	cancelLogRepo := pg.NewCancelLogRepo(pool)
	members := pg.NewMemberDirectory(contractRepo)

	// ---- Payment gateway ----
	iam := cfg.Payment.Iamport
	gateway := payment.NewIamportGateway(iam.BaseURL, iam.APIKey, iam.APISecret, iam.Timeout, iam.Retries, tokenCache, logger)

	// ---- Use cases ----
	couponUC := usecase.NewCouponUseCase(couponRepo, productRepo, logger)
	contractUC := usecase.NewContractUseCase(contractRepo, ticketRepo, productRepo, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, productRepo, cancelLogRepo, couponUC, contractUC, gateway, members, tm, logger)

	// ---- Reconciler ----
	reconciler := sched.NewOrderReconciler(cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, orderRepo, orderUC, logger)
	go func() {
		if err := reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("reconciler stopped")
		}
	}()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.AuthSecret)
	srv := web.NewServer(orderUC, couponUC, auth, cfg.Server.OperatorAPIKey, iam.StoreCode, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
