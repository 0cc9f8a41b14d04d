package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Dan9191/budget-ledger/internal/config"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func register(c *subcommands.Commander) {
	c.Register(&accountsCmd{}, "inspect")
	c.Register(&auditCmd{}, "inspect")

	c.Register(&fixBalanceCmd{}, "maintenance")
	c.Register(&processDueCmd{}, "maintenance")

	c.Register(&exportCmd{}, "backup")
	c.Register(&importCmd{}, "backup")
}

// a CLI run is short lived, global flags are fine.
var (
	envFile   = flag.String("env", "", "Path to a .env file (defaults to ./.env when present)")
	storeKind = flag.String("store", "", "Store backend (memory, bolt, postgres, sqlite); overrides LEDGER_STORE")
	storeDSN  = flag.String("dsn", "", "Store location; overrides LEDGER_DSN")
	verbose   = flag.Bool("v", false, "Log service activity to stderr")
)

// app bundles what a command needs to run against the configured ledger.
type app struct {
	cfg   *config.Config
	store repository.Store
	svc   *service.Service
}

func openApp() (*app, error) {
	cfg, err := config.NewConfig(*envFile)
	if err != nil {
		return nil, err
	}
	if *storeKind != "" {
		cfg.StoreKind = *storeKind
	}
	if *storeDSN != "" {
		cfg.StoreDSN = *storeDSN
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	store, err := repository.Open(cfg.StoreKind, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreKind, err)
	}
	return &app{cfg: cfg, store: store, svc: service.NewService(store, logger)}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing store: %v\n", err)
	}
}

// withApp opens the ledger, runs fn and maps its error to an exit status.
func withApp(fn func(a *app) error) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := fn(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
