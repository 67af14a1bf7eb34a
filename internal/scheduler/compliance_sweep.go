package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/modules/compliance"
)

// StatusProvider is the part of the compliance service the sweep reads
type StatusProvider interface {
	DealIDs(ctx context.Context) ([]string, error)
	Status(ctx context.Context, dealID string) (*compliance.DealStatus, error)
}

// SweepResult summarises one sweep
type SweepResult struct {
	Deals          int
	DealsAlerting  int
	Failed         int
	AlertsByDealID map[string]compliance.AlertSummary
}

// ComplianceSweepJob re-classifies the latest period of every deal, refreshes
// the alert gauges and raises an event for each deal with alerts
type ComplianceSweepJob struct {
	status       StatusProvider
	metrics      *metrics.Metrics
	eventManager *events.Manager
	timeout      time.Duration
	log          zerolog.Logger
}

// NewComplianceSweepJob creates a new sweep job. m and eventManager may be nil.
func NewComplianceSweepJob(status StatusProvider, m *metrics.Metrics, eventManager *events.Manager, log zerolog.Logger) *ComplianceSweepJob {
	return &ComplianceSweepJob{
		status:       status,
		metrics:      m,
		eventManager: eventManager,
		timeout:      5 * time.Minute,
		log:          log.With().Str("job", "compliance_sweep").Logger(),
	}
}

// Name returns the job name
func (j *ComplianceSweepJob) Name() string {
	return "compliance_sweep"
}

// Run executes the sweep
func (j *ComplianceSweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, err := j.Sweep(ctx)
	return err
}

// Sweep evaluates every deal. A failing deal is logged and counted; the
// sweep only errors when the deal list itself cannot be read.
func (j *ComplianceSweepJob) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	dealIDs, err := j.status.DealIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	result := &SweepResult{Deals: len(dealIDs), AlertsByDealID: make(map[string]compliance.AlertSummary)}
	for _, dealID := range dealIDs {
		status, err := j.status.Status(ctx, dealID)
		if err != nil {
			result.Failed++
			j.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to evaluate deal status")
			j.eventManager.EmitError("scheduler", err, map[string]interface{}{"deal_id": dealID, "job": j.Name()})
			continue
		}
		if status == nil {
			j.metrics.SetAlertCounts(dealID, 0, 0, 0)
			continue
		}

		alerts := status.Alerts
		j.metrics.SetAlertCounts(dealID, alerts.BreachCount, alerts.DangerCount, alerts.CautionCount)
		if !alerts.HasAlerts {
			continue
		}

		result.DealsAlerting++
		result.AlertsByDealID[dealID] = alerts
		names := make([]string, len(alerts.Alerts))
		for i, a := range alerts.Alerts {
			names[i] = a.Name
		}
		j.eventManager.EmitTyped("compliance", &events.ComplianceAlertsRaisedData{
			DealID:       dealID,
			Period:       status.Period,
			BreachCount:  alerts.BreachCount,
			DangerCount:  alerts.DangerCount,
			CautionCount: alerts.CautionCount,
			Covenants:    names,
			Message:      alerts.Message,
		})
	}

	elapsed := time.Since(start)
	j.metrics.ObserveSweep(elapsed.Seconds())
	j.log.Info().
		Int("deals", result.Deals).
		Int("alerting", result.DealsAlerting).
		Int("failed", result.Failed).
		Dur("duration_ms", elapsed).
		Msg("Compliance sweep completed")
	return result, nil
}
