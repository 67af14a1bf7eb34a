// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/covenantmonitor/internal/database"
	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/modules/compliance"
	"github.com/aristath/covenantmonitor/internal/modules/covenants"
	"github.com/aristath/covenantmonitor/internal/modules/draws"
	"github.com/aristath/covenantmonitor/internal/modules/scenarios"
	"github.com/aristath/covenantmonitor/internal/modules/submissions"
	"github.com/aristath/covenantmonitor/internal/reliability"
	"github.com/aristath/covenantmonitor/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server.
type Container struct {
	// Databases
	ComplianceDB *database.DB

	// Infrastructure
	EventManager *events.Manager
	Metrics      *metrics.Metrics
	Scheduler    *scheduler.Scheduler

	// Repositories
	CovenantRepo   *covenants.Repository
	SubmissionRepo *submissions.Repository
	DrawRepo       *draws.Repository

	// Services
	CovenantService   *covenants.Service
	SubmissionService *submissions.Service
	ComplianceService *compliance.Service
	ScenarioService   *scenarios.Service
	DrawService       *draws.Service

	// Reliability. BackupService is nil when backups are disabled.
	BackupService      *reliability.BackupService
	MaintenanceService *reliability.MaintenanceService
}

// JobInstances holds the registered scheduler jobs for manual triggering
type JobInstances struct {
	ComplianceSweep *scheduler.ComplianceSweepJob
	Maintenance     *scheduler.MaintenanceJob
	Backup          *scheduler.BackupJob // nil when backups are disabled
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	if c.ComplianceDB == nil {
		return nil
	}
	return []*database.DB{c.ComplianceDB}
}

// Close stops the scheduler and closes all databases
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	var firstErr error
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
