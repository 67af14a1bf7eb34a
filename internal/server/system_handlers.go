package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/covenantmonitor/internal/database"
	"github.com/aristath/covenantmonitor/internal/di"
	"github.com/aristath/covenantmonitor/internal/scheduler"
)

// SystemHandlers serves operational endpoints
type SystemHandlers struct {
	container *di.Container
	jobs      map[string]scheduler.Job
	startedAt time.Time
	log       zerolog.Logger
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	CPUPercent    float64                    `json:"cpu_percent"`
	MemoryPercent float64                    `json:"memory_percent"`
	Goroutines    int                        `json:"goroutines"`
	Databases     map[string]*database.Stats `json:"databases"`
	Jobs          []string                   `json:"jobs"`
	BackupsActive bool                       `json:"backups_enabled"`
}

// NewSystemHandlers creates system handlers. jobs may be nil.
func NewSystemHandlers(container *di.Container, jobs *di.JobInstances, log zerolog.Logger) *SystemHandlers {
	registered := make(map[string]scheduler.Job)
	if jobs != nil {
		if jobs.ComplianceSweep != nil {
			registered[jobs.ComplianceSweep.Name()] = jobs.ComplianceSweep
		}
		if jobs.Maintenance != nil {
			registered[jobs.Maintenance.Name()] = jobs.Maintenance
		}
		if jobs.Backup != nil {
			registered[jobs.Backup.Name()] = jobs.Backup
		}
	}

	return &SystemHandlers{
		container: container,
		jobs:      registered,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus returns host load, database sizes and registered jobs
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		Databases:     make(map[string]*database.Stats),
		Jobs:          make([]string, 0, len(h.jobs)),
		BackupsActive: h.container.BackupService != nil,
	}
	for _, db := range h.container.Databases() {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			response.Status = "degraded"
			continue
		}
		response.Databases[db.Name()] = stats
	}
	for name := range h.jobs {
		response.Jobs = append(response.Jobs, name)
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleListBackups lists uploaded backups, newest first
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.container.BackupService == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Backups are not enabled"}, h.log)
		return
	}

	backups, err := h.container.BackupService.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to list backups"}, h.log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups, "count": len(backups)}, h.log)
}

// HandleRunJob runs a registered job immediately and waits for it
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown job: " + name}, h.log)
		return
	}

	start := time.Now()
	if err := h.container.Scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"job":     name,
			"message": err.Error(),
		}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	}, h.log)
}

// getSystemStats samples CPU over 100ms and reads memory usage instantly
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}
