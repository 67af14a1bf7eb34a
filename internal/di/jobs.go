package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/config"
	"github.com/aristath/covenantmonitor/internal/scheduler"
)

const maintenanceSchedule = "0 30 3 * * *"

// RegisterJobs creates the scheduler and registers all background jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched
	jobs := &JobInstances{}

	jobs.ComplianceSweep = scheduler.NewComplianceSweepJob(
		container.ComplianceService,
		container.Metrics,
		container.EventManager,
		log,
	)
	if err := sched.AddJob(cfg.SweepSchedule, jobs.ComplianceSweep); err != nil {
		return nil, fmt.Errorf("failed to register compliance sweep: %w", err)
	}

	jobs.Maintenance = scheduler.NewMaintenanceJob(container.MaintenanceService, log)
	if err := sched.AddJob(maintenanceSchedule, jobs.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(
			container.BackupService,
			cfg.Backup.RetentionDays,
			container.Metrics,
			container.EventManager,
			log,
		)
		if err := sched.AddJob(cfg.Backup.Schedule, jobs.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	log.Info().
		Str("sweep_schedule", cfg.SweepSchedule).
		Bool("backups", jobs.Backup != nil).
		Msg("Jobs registered")
	return jobs, nil
}
