package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/covenantmonitor/internal/database"
)

// Disk thresholds in bytes
const (
	criticalFreeBytes = 500 * 1024 * 1024
	warnFreeBytes     = 5 * 1024 * 1024 * 1024
)

// MaintenanceReport is the outcome of one maintenance pass
type MaintenanceReport struct {
	Checked       []string      `json:"checked"`
	FreeDiskBytes uint64        `json:"free_disk_bytes"`
	Duration      time.Duration `json:"duration"`
}

// MaintenanceService runs integrity checks, WAL checkpoints and a disk space check
type MaintenanceService struct {
	databases []*database.DB
	dataDir   string
	log       zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(databases []*database.DB, dataDir string, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		databases: databases,
		dataDir:   dataDir,
		log:       log.With().Str("service", "maintenance").Logger(),
	}
}

// Run checks every database and the data volume. A failed integrity check or
// critically low disk space is an error; a failed checkpoint is only logged.
func (s *MaintenanceService) Run(ctx context.Context) (*MaintenanceReport, error) {
	start := time.Now()
	report := &MaintenanceReport{Checked: make([]string, 0, len(s.databases))}

	for _, db := range s.databases {
		if err := db.HealthCheck(ctx); err != nil {
			s.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed")
			return nil, err
		}

		var busy, walFrames, checkpointed int
		if err := db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &walFrames, &checkpointed); err != nil {
			s.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		} else {
			s.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", walFrames).
				Int("checkpointed", checkpointed).
				Msg("WAL checkpoint completed")
		}
		report.Checked = append(report.Checked, db.Name())
	}

	usage, err := disk.UsageWithContext(ctx, s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}
	report.FreeDiskBytes = usage.Free
	switch {
	case usage.Free < criticalFreeBytes:
		s.log.Error().Uint64("free_bytes", usage.Free).Msg("Insufficient disk space")
		return nil, fmt.Errorf("only %d bytes free on %s", usage.Free, s.dataDir)
	case usage.Free < warnFreeBytes:
		s.log.Warn().Uint64("free_bytes", usage.Free).Msg("Disk space running low")
	}

	report.Duration = time.Since(start)
	s.log.Info().
		Strs("databases", report.Checked).
		Dur("duration_ms", report.Duration).
		Msg("Maintenance completed")
	return report, nil
}
