package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/budget-ledger/internal/config"
	"github.com/Dan9191/budget-ledger/internal/handler"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/Dan9191/budget-ledger/internal/scheduler"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/Dan9191/budget-ledger/internal/utils/email"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Open the ledger store
	store, err := repository.Open(cfg.StoreKind, cfg.StoreDSN)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.StoreKind, err)
	}
	defer store.Close()

	// Initialize layers
	svc := service.NewService(store, logger)

	var (
		notifier      scheduler.Notifier
		reconNotifier handler.ReconciliationNotifier
	)
	if cfg.NotificationsEnabled() {
		sender := email.NewSender(cfg, logger)
		notifier, reconNotifier = sender, sender
	}

	sched := scheduler.New(svc, notifier, cfg.Mode, logger)
	if err := sched.Start(cfg.RecurringSchedule); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	h := handler.NewHandler(svc, cfg, logger, reconNotifier)

	// Setup router
	r := mux.NewRouter()
	h.Routes(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s (store=%s, mode=%s)", addr, cfg.StoreKind, cfg.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
