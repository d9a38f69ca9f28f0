package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"lavapay/internal/config"
	"lavapay/internal/core/expire"
	httpx "lavapay/internal/http"
	paymentsvc "lavapay/internal/services/payment"
	"lavapay/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()
	payments := postgres.NewPaymentRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	// Payment orchestrator with all known providers
	svc := paymentsvc.New(cfg, payments, uow)
	if err := svc.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("provider initialization failed")
	}

	// Optional Redis bridge for portal/reporting consumers
	if cfg.Redis.Addr != "" {
		pub := paymentsvc.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.EventChannel)
		defer pub.Close()
		unsubscribe := pub.Attach(ctx, svc)
		defer unsubscribe()
	}

	// Stale pending-payment expiry
	worker := expire.NewWorker(payments, svc, cfg.Worker.PendingTTL, cfg.Worker.PollEvery)
	go worker.Run(ctx)

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:         cfg,
		PaymentService: svc,
		Payments:       payments,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("lavapay API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
