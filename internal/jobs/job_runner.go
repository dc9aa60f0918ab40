package jobs

import (
	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/inventory"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository/postgres"
)

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	store    *postgres.Store
	bookings *booking.Service
	cache    inventory.UnitCache
	config   *config.Config
}

func NewJobRunner(store *postgres.Store, bookings *booking.Service, cache inventory.UnitCache, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		bookings: bookings,
		cache:    cache,
		config:   cfg,
	}
}

// Config exposes the configuration for cron schedule lookup.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs every nightly job once, for manual execution.
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueInstallments()
	jr.SendOverdueReminders()
	jr.ReconcileUnitCounters()
}
