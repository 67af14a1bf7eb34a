package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/reliability"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// MaintenanceJob runs database integrity checks and WAL checkpoints
type MaintenanceJob struct {
	maintenance *reliability.MaintenanceService
	log         zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(maintenance *reliability.MaintenanceService, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		maintenance: maintenance,
		log:         log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance pass
func (j *MaintenanceJob) Run() error {
	defer utils.OperationTimer(j.Name(), j.log)()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	_, err := j.maintenance.Run(ctx)
	return err
}
