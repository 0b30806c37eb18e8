package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/hostelmart/hostelmart-backend/api/routes"
	"github.com/hostelmart/hostelmart-backend/internal/inventory"
	"github.com/hostelmart/hostelmart-backend/internal/ledger"
	"github.com/hostelmart/hostelmart-backend/internal/orders"
	"github.com/hostelmart/hostelmart-backend/internal/push"
	"github.com/hostelmart/hostelmart-backend/internal/reports"
	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/config"
	"github.com/hostelmart/hostelmart-backend/pkg/instance"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/metrics"
	"github.com/hostelmart/hostelmart-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Fields: map[string]any{
			"env":      cfg.App.Env,
			"instance": instance.GetID(),
		},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shopMetrics := metrics.NewShopMetrics(registry)

	backend, err := openBackend(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	st, fresh, err := state.Load(ctx, backend, cfg.App.Location, logg)
	if err != nil {
		return err
	}
	persister, err := state.NewPersister(state.PersisterConfig{
		State:   st,
		Saver:   backend,
		Backend: cfg.Storage.Backend,
		Logger:  logg,
		Metrics: shopMetrics,
		Timeout: cfg.Storage.PersistTimeout,
	})
	if err != nil {
		return err
	}
	if fresh {
		if err := persister.Flush(ctx); err != nil {
			return err
		}
	}
	persistCtx, stopPersist := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		persister.Run(persistCtx)
	}()

	keys := push.Keys{Public: cfg.Push.VAPIDPublicKey, Private: cfg.Push.VAPIDPrivateKey}
	if !cfg.Push.HasVAPIDKeys() {
		if keys, err = push.GenerateKeys(); err != nil {
			return err
		}
		logg.Warn(ctx, "push.ephemeral_vapid_keys")
	}
	sender, err := push.NewWebPushSender(keys, cfg.Push.Subject, cfg.Push.TTL, &http.Client{Timeout: cfg.Push.SendTimeout})
	if err != nil {
		return err
	}
	notifier, err := push.NewNotifier(st, sender, logg, shopMetrics, cfg.Push.SendTimeout)
	if err != nil {
		return err
	}

	gate, err := security.NewAdminGate(cfg.Shop.AdminPassword, cfg.Shop.AdminPasswordHash)
	if err != nil {
		return err
	}

	services, err := buildServices(cfg, logg, st, notifier, shopMetrics, keys.Public)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, backend, gate, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":    addr,
		"backend": cfg.Storage.Backend,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = multierr.Append(err, server.Shutdown(shutdownCtx))
	notifier.Wait()
	stopPersist()
	<-persistDone
	return multierr.Append(err, persister.Flush(shutdownCtx))
}

func buildServices(cfg *config.Config, logg *logger.Logger, st *state.State, notifier orders.Notifier, shopMetrics *metrics.ShopMetrics, publicKey string) (routes.Services, error) {
	var (
		svc routes.Services
		err error
	)
	if svc.Orders, err = orders.NewService(st, notifier, logg, shopMetrics, orders.Config{
		DeliveryFee:  cfg.Shop.DeliveryFee,
		CancelWindow: cfg.Shop.CancelWindow,
		Location:     cfg.App.Location,
	}); err != nil {
		return svc, err
	}
	if svc.Inventory, err = inventory.NewService(st, logg); err != nil {
		return svc, err
	}
	if svc.Reports, err = reports.NewService(st, cfg.App.Location, time.Now); err != nil {
		return svc, err
	}
	if svc.Ledger, err = ledger.NewService(st, logg, cfg.App.Location, time.Now); err != nil {
		return svc, err
	}
	if svc.Push, err = push.NewService(st, publicKey, logg); err != nil {
		return svc, err
	}
	return svc, nil
}
