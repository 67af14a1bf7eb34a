package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/modules/compliance"
)

type fakeStatus struct {
	deals    []string
	statuses map[string]*compliance.DealStatus
	failing  map[string]bool
	listErr  error
}

func (f *fakeStatus) DealIDs(context.Context) ([]string, error) {
	return f.deals, f.listErr
}

func (f *fakeStatus) Status(_ context.Context, dealID string) (*compliance.DealStatus, error) {
	if f.failing[dealID] {
		return nil, errors.New("evaluator offline")
	}
	return f.statuses[dealID], nil
}

// alertGauges reads covenant_alerts keyed "deal/zone"
func alertGauges(t *testing.T, m *metrics.Metrics) map[string]float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "covenantmonitor_covenant_alerts" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out[labels["deal_id"]+"/"+labels["zone"]] = metric.GetGauge().GetValue()
		}
	}
	return out
}

func TestComplianceSweep(t *testing.T) {
	source := &fakeStatus{
		deals: []string{"deal-a", "deal-b", "deal-c", "deal-d"},
		statuses: map[string]*compliance.DealStatus{
			"deal-a": {
				DealID: "deal-a",
				Period: "Q2 2026",
				Alerts: compliance.AlertSummary{
					HasAlerts:   true,
					BreachCount: 1,
					DangerCount: 1,
					Alerts: []compliance.Alert{
						{Name: "Leverage", Zone: compliance.ZoneBreach},
						{Name: "DSCR", Zone: compliance.ZoneDanger},
					},
					Message: "1 covenant in breach: Leverage",
				},
			},
			"deal-b": {DealID: "deal-b", Alerts: compliance.AlertSummary{}},
		},
		failing: map[string]bool{"deal-c": true},
	}

	m := metrics.New()
	manager := events.NewManager(zerolog.Nop())
	var raised []*events.ComplianceAlertsRaisedData
	var failures int
	manager.Subscribe(events.ComplianceAlertsRaised, func(e events.EventWithData) {
		raised = append(raised, e.Data.(*events.ComplianceAlertsRaisedData))
	})
	manager.Subscribe(events.ErrorOccurred, func(events.EventWithData) { failures++ })

	job := NewComplianceSweepJob(source, m, manager, zerolog.Nop())
	result, err := job.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Deals)
	assert.Equal(t, 1, result.DealsAlerting)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, failures)

	require.Len(t, raised, 1)
	assert.Equal(t, "deal-a", raised[0].DealID)
	assert.Equal(t, "Q2 2026", raised[0].Period)
	assert.Equal(t, []string{"Leverage", "DSCR"}, raised[0].Covenants)

	gauges := alertGauges(t, m)
	assert.Equal(t, 1.0, gauges["deal-a/breach"])
	assert.Equal(t, 1.0, gauges["deal-a/danger"])
	assert.Equal(t, 0.0, gauges["deal-a/caution"])
	assert.Contains(t, gauges, "deal-b/caution")
	assert.NotContains(t, gauges, "deal-c/breach")
}

func TestComplianceSweep_ListFailure(t *testing.T) {
	job := NewComplianceSweepJob(&fakeStatus{listErr: errors.New("db locked")}, nil, nil, zerolog.Nop())
	assert.Error(t, job.Run())
}
