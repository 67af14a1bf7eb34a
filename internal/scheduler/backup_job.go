package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/reliability"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// BackupJob uploads a database backup and rotates old ones
type BackupJob struct {
	backups       *reliability.BackupService
	retentionDays int
	metrics       *metrics.Metrics
	eventManager  *events.Manager
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(
	backups *reliability.BackupService,
	retentionDays int,
	m *metrics.Metrics,
	eventManager *events.Manager,
	log zerolog.Logger,
) *BackupJob {
	return &BackupJob{
		backups:       backups,
		retentionDays: retentionDays,
		metrics:       m,
		eventManager:  eventManager,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job. Rotation failures are logged, not returned.
func (j *BackupJob) Run() error {
	defer utils.OperationTimer(j.Name(), j.log)()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := j.backups.CreateAndUpload(ctx)
	if err != nil {
		j.eventManager.EmitError("reliability", err, map[string]interface{}{"job": j.Name()})
		return err
	}
	j.metrics.RecordBackup()
	j.eventManager.EmitTyped("reliability", &events.BackupCompletedData{
		Key:       result.Key,
		SizeBytes: result.SizeBytes,
		Checksum:  result.Checksum,
		Duration:  result.Duration.Seconds(),
	})

	if _, err := j.backups.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
