package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/config"
	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/modules/compliance"
	"github.com/aristath/covenantmonitor/internal/modules/covenants"
	"github.com/aristath/covenantmonitor/internal/modules/draws"
	"github.com/aristath/covenantmonitor/internal/modules/scenarios"
	"github.com/aristath/covenantmonitor/internal/modules/submissions"
	"github.com/aristath/covenantmonitor/internal/reliability"
)

// InitializeServices creates the event manager, metrics and every domain service.
// Dependency order: covenants -> submissions -> compliance, scenarios; draws stand alone.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventManager = events.NewManager(log)
	container.Metrics = metrics.New()

	container.CovenantService = covenants.NewService(container.CovenantRepo, log)

	container.SubmissionService = submissions.NewService(
		container.SubmissionRepo,
		container.CovenantService,
		container.EventManager,
		container.Metrics,
		log,
	)

	thresholds, err := compliance.NewZoneThresholds(cfg.ZoneCautionAt, cfg.ZoneDangerAt)
	if err != nil {
		return err
	}
	complianceService, err := compliance.NewService(container.SubmissionService, thresholds, log)
	if err != nil {
		return fmt.Errorf("failed to create compliance service: %w", err)
	}
	container.ComplianceService = complianceService

	container.ScenarioService = scenarios.NewService(
		container.CovenantService,
		container.SubmissionService,
		container.Metrics,
		log,
	)

	templates, err := draws.LoadTemplates(cfg.ConditionTemplatesPath)
	if err != nil {
		return fmt.Errorf("failed to load draw condition templates: %w", err)
	}
	container.DrawService = draws.NewService(
		container.DrawRepo,
		templates,
		container.EventManager,
		container.Metrics,
		log,
	)

	container.MaintenanceService = reliability.NewMaintenanceService(container.Databases(), cfg.DataDir, log)

	if cfg.Backup != nil && cfg.Backup.Enabled {
		backupService, err := newBackupService(container, cfg, log)
		if err != nil {
			return err
		}
		container.BackupService = backupService
	}

	log.Info().Int("condition_templates", len(templates)).Msg("Services initialized")
	return nil
}

func newBackupService(container *Container, cfg *config.Config, log zerolog.Logger) (*reliability.BackupService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := reliability.NewS3Client(ctx, reliability.S3Config{
		Bucket:          cfg.Backup.Bucket,
		Region:          cfg.Backup.Region,
		Endpoint:        cfg.Backup.Endpoint,
		AccessKeyID:     cfg.Backup.AccessKeyID,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup object store: %w", err)
	}

	stagingDir := filepath.Join(cfg.DataDir, "backups")
	return reliability.NewBackupService(store, container.Databases(), stagingDir, log), nil
}
