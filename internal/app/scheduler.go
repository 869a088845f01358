/**
 * @description
 * Cron scheduler setup for scheduled jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/samuelldmj/subscription-management-api/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.SweepJobSchedule, s.jobs.ProcessSubscriptionTasks); err != nil {
		s.logger.Error("failed to schedule subscription sweep job", "error", err)
	} else {
		s.logger.Info("scheduled subscription sweep job", "schedule", s.config.SweepJobSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.ReminderJobSchedule, s.jobs.ProcessDueReminders); err != nil {
		s.logger.Error("failed to schedule reminder dispatch job", "error", err)
	} else {
		s.logger.Info("scheduled reminder dispatch job", "schedule", s.config.ReminderJobSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
