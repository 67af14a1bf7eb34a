package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/domain"
)

func TestGetDistanceToBreach(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		required float64
		op       domain.Operator
		percent  float64
		breach   bool
	}{
		{"max-type headroom", 4.0, 4.5, domain.OperatorLTE, 11.111, false},
		{"min-type headroom", 1.30, 1.25, domain.OperatorGTE, 4.0, false},
		{"in breach", 4.6, 4.5, domain.OperatorLTE, 0, true},
		{"at boundary", 4.5, 4.5, domain.OperatorLTE, 0, false},
		{"zero required failing", 1, 0, domain.OperatorLTE, 0, true},
		{"zero required passing", -1, 0, domain.OperatorLTE, 100, false},
		{"negative required", -2, -1, domain.OperatorLTE, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := GetDistanceToBreach(tt.actual, tt.required, tt.op)
			require.NoError(t, err)
			assert.InDelta(t, tt.percent, d.Percent, 1e-3)
			assert.Equal(t, tt.breach, d.IsInBreach)
		})
	}

	_, err := GetDistanceToBreach(1, 1, domain.OperatorEqual)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperator)
}

func TestRankByUrgency(t *testing.T) {
	observations := []domain.CovenantObservation{
		{Name: "Liquidity", Actual: 10, Required: 5, Operator: domain.OperatorGTE},
		{Name: "Reserve", Actual: 6, Required: 6, Operator: domain.OperatorEqual},
		{Name: "Capex", Actual: 99, Required: 1, Operator: domain.OperatorLTE, Suspended: true},
		{Name: "DSCR", Actual: 1.30, Required: 1.25, Operator: domain.OperatorGTE},
		{Name: "Leverage", Actual: 4.6, Required: 4.5, Operator: domain.OperatorLTE},
		{Name: "Gearing", Actual: 4.2, Required: 4.5, Operator: domain.OperatorLTE},
		{Name: "ICR", Actual: 2.7, Required: 2.5, Operator: domain.OperatorGTE},
	}

	ranked, err := RankByUrgency(observations, DefaultZoneThresholds)
	require.NoError(t, err)

	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Leverage", "DSCR", "Gearing", "ICR", "Liquidity", "Capex", "Reserve"}, names)
	assert.Equal(t, ZoneSuspended, ranked[5].Zone)
	assert.Equal(t, ZoneUnclassified, ranked[6].Zone)
}

func TestRankByUrgency_ZeroDenominator(t *testing.T) {
	ranked, err := RankByUrgency(zeroDenominatorObservations(t), DefaultZoneThresholds)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Leverage", ranked[0].Name)
	assert.Equal(t, ZoneBreach, ranked[0].Zone)
	assert.True(t, ranked[0].Distance.IsInBreach)

	assert.Equal(t, "DSCR", ranked[1].Name)
	assert.Equal(t, ZoneSafe, ranked[1].Zone)
	assert.False(t, ranked[1].Distance.IsInBreach)
	assert.Equal(t, 100.0, ranked[1].Distance.Percent)
}
