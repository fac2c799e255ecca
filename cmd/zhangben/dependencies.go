package main

import (
	"fmt"
	"log/slog"

	"github.com/ylzheng/zhangben/internal/domain/imports/service"
	"github.com/ylzheng/zhangben/internal/domain/ledger/store"
	"github.com/ylzheng/zhangben/internal/domain/profile"
	"github.com/ylzheng/zhangben/internal/domain/search"
	"github.com/ylzheng/zhangben/pkg/config"
	"github.com/ylzheng/zhangben/pkg/cron"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Store     store.Store
	Profiles  *profile.Manager
	Importer  *service.Importer
	Search    *search.Index
	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies. ledgerPath
// overrides the default ledger location, so a profile's ledger can be opened
// in place of the shared one.
func InitDependencies(cfg *config.Config, logger *slog.Logger, ledgerPath string) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if ledgerPath == "" {
		ledgerPath = cfg.Storage.LedgerPath()
	}

	if err := deps.initStore(ledgerPath); err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	return deps, nil
}

func (d *Dependencies) initStore(ledgerPath string) error {
	switch d.Config.Storage.Backend {
	case "sqlite":
		st, err := store.NewSQLite(ledgerPath)
		if err != nil {
			return err
		}
		d.Store = st
	case "json", "":
		d.Store = store.NewJSON(ledgerPath)
	default:
		return fmt.Errorf("unknown storage backend %q", d.Config.Storage.Backend)
	}

	d.Logger.Info("ledger store ready", "backend", d.Config.Storage.Backend, "path", ledgerPath)
	return nil
}

func (d *Dependencies) initServices() error {
	d.Profiles = profile.NewManager(d.Config.Storage.DataDir)
	d.Importer = service.NewImporter(d.Store, d.Logger)

	idx, err := search.New()
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.Search = idx

	d.Scheduler = cron.NewScheduler(d.Store, d.Config.Backup.Schedule, d.Logger)
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Search != nil {
		if err := d.Search.Close(); err != nil {
			d.Logger.Warn("closing search index", "error", err)
		}
	}
	if closer, ok := d.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			d.Logger.Warn("closing ledger store", "error", err)
		}
	}
}
