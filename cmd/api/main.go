package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"banklet.org/internal/bank"
	"banklet.org/internal/config"
	"banklet.org/internal/httpapi"
	"banklet.org/internal/ledger"
	"banklet.org/internal/obs"
	"banklet.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()
	defer func() { _ = log.Sync() }()

	cfg := config.FromEnv()

	seeds, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		log.Fatal("load accounts", zap.Error(err))
	}
	store := ledger.NewStore()
	if err := store.Provision(seeds); err != nil {
		log.Fatal("provision accounts", zap.Error(err))
	}
	log.Info("accounts provisioned", zap.Int("count", store.Len()))

	st := stream.New()
	svc := bank.NewService(store, st, log, bank.Options{
		SessionSeconds: cfg.SessionSeconds,
		TickInterval:   cfg.TickInterval,
		LoanDelay:      cfg.LoanDelay,
	})

	api := httpapi.New(svc, st, log, version)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSecond)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// No write timeout: the SSE stream holds its connection open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting banklet-api", zap.String("version", version), zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	svc.Close()
	log.Info("stopped")
}
