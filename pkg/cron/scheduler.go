package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ylzheng/zhangben/internal/domain/ledger/store"
)

// Scheduler runs periodic ledger maintenance jobs
type Scheduler struct {
	cron     *cron.Cron
	store    store.Store
	schedule string
	logger   *slog.Logger
}

func NewScheduler(st store.Store, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))),
	)
	return &Scheduler{
		cron:     c,
		store:    st,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers and starts all scheduled jobs
func (s *Scheduler) Start() error {
	if s.schedule == "" || s.schedule == "off" {
		s.logger.Info("backup schedule disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runBackup); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "backup_schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// RunBackupNow triggers the backup job immediately, outside the schedule
func (s *Scheduler) RunBackupNow() {
	go s.runBackup()
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	path, err := s.store.Backup(ctx)
	if err != nil {
		s.logger.Error("ledger backup failed", "error", err)
		return
	}
	if path == "" {
		s.logger.Info("ledger backup skipped, nothing to back up")
		return
	}
	s.logger.Info("ledger backup complete", "path", path, "duration", time.Since(start))
}
