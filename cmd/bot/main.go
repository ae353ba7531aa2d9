package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"clonedirect/internal/catalog"
	"clonedirect/internal/checkout"
	"clonedirect/internal/config"
	"clonedirect/internal/db"
	"clonedirect/internal/dispatch"
	"clonedirect/internal/httpserver"
	"clonedirect/internal/logging"
	orderrepo "clonedirect/internal/repository/order"
	sessionrepo "clonedirect/internal/repository/session"
	"clonedirect/internal/scheduler"
	"clonedirect/internal/transport"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync(logger)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	cat := catalog.Load(cfg.CatalogPath, logger)

	sessions := sessionrepo.NewPostgres(dbpool, logger)
	ledger := orderrepo.NewPostgres(dbpool, logger, cfg.DuplicateWindow)

	engine := checkout.New(cat, ledger, logger, checkout.Options{
		OperatorID:       cfg.OperatorID,
		ExportDir:        cfg.ExportDir,
		OrderExpireAfter: cfg.OrderExpireAfter,
		ReminderAge:      cfg.ReminderAge,
	})

	var sender dispatch.Sender
	if cfg.DeliveryURL != "" {
		sender = transport.NewHTTPSender(cfg.DeliveryURL, cfg.OperatorID, logger)
	} else {
		logger.Warn("no delivery url configured, logging outbound messages instead")
		sender = transport.NewLogSender(logger)
	}

	dispatcher := dispatch.New(sessions, engine, sender, logger)

	jobs := scheduler.New(sessions, ledger, sender, logger, scheduler.Config{
		IdleThreshold:    cfg.SessionIdleThreshold,
		ReaperInterval:   cfg.ReaperInterval,
		ReminderInterval: cfg.ReminderInterval,
		ReminderAge:      cfg.ReminderAge,
	})

	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	go jobs.Run(schedCtx)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, dispatcher)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	stopSched()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
