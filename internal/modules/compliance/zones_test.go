package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/domain"
)

func TestGetThresholdZone_ConcreteCases(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		required float64
		op       domain.Operator
		want     Zone
		util     float64
	}{
		{"leverage caution", 4.0, 4.5, domain.OperatorLTE, ZoneCaution, 0.8889},
		{"leverage danger", 4.1, 4.5, domain.OperatorLTE, ZoneDanger, 0.9111},
		{"leverage breach", 4.6, 4.5, domain.OperatorLTE, ZoneBreach, 1.0222},
		{"dscr danger", 1.30, 1.25, domain.OperatorGTE, ZoneDanger, 0.9615},
		{"dscr safe", 2.00, 1.25, domain.OperatorGT, ZoneSafe, 0.625},
		{"dscr breach", 1.10, 1.25, domain.OperatorGTE, ZoneBreach, 1.1364},
		{"strict at boundary is danger", 4.5, 4.5, domain.OperatorLT, ZoneDanger, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.actual, tt.required, tt.op, ZoneThresholds{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Zone)
			assert.True(t, c.UtilizationDefined)
			assert.InDelta(t, tt.util, c.Utilization, 1e-4)

			zone, err := GetThresholdZone(tt.actual, tt.required, tt.op, DefaultZoneThresholds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, zone)
		})
	}
}

func TestGetThresholdZone_UtilizationBands(t *testing.T) {
	thresholds := DefaultZoneThresholds
	for _, op := range []domain.Operator{domain.OperatorLTE, domain.OperatorLT, domain.OperatorGTE, domain.OperatorGT} {
		for _, required := range []float64{0.5, 1.25, 4.5, 1000} {
			for step := 1; step <= 150; step++ {
				target := float64(step) / 100
				actual := required * target
				if op.IsMinType() {
					actual = required / target
				}

				c, err := Classify(actual, required, op, thresholds)
				require.NoError(t, err)
				u := c.Utilization

				switch {
				case u > 1:
					assert.Equal(t, ZoneBreach, c.Zone, "op=%s u=%v", op, u)
				case u >= thresholds.DangerAt:
					assert.Equal(t, ZoneDanger, c.Zone, "op=%s u=%v", op, u)
				case u >= thresholds.CautionAt:
					assert.Equal(t, ZoneCaution, c.Zone, "op=%s u=%v", op, u)
				default:
					assert.Equal(t, ZoneSafe, c.Zone, "op=%s u=%v", op, u)
				}

				d, err := GetDistanceToBreach(actual, required, op)
				require.NoError(t, err)
				assert.Equal(t, c.Zone == ZoneBreach, d.IsInBreach, "op=%s u=%v", op, u)
				assert.GreaterOrEqual(t, d.Percent, 0.0)
			}
		}
	}
}

func TestGetThresholdZone_ZeroAndNegativeRequired(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		required float64
		op       domain.Operator
		want     Zone
	}{
		{"zero required max-type exceeded", 1, 0, domain.OperatorLTE, ZoneBreach},
		{"zero required max-type met", 0, 0, domain.OperatorLTE, ZoneSafe},
		{"min-type zero actual", 0, 1.25, domain.OperatorGTE, ZoneBreach},
		{"negative required", -2, -1, domain.OperatorLTE, ZoneSafe},
		{"negative required failed", 0, -1, domain.OperatorLTE, ZoneBreach},
		{"mixed signs", -5, 3, domain.OperatorLTE, ZoneSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.actual, tt.required, tt.op, DefaultZoneThresholds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Zone)
			assert.False(t, c.UtilizationDefined)
		})
	}
}

func TestGetThresholdZone_EqualityOperatorsUnsupported(t *testing.T) {
	for _, op := range []domain.Operator{domain.OperatorEqual, domain.OperatorNotEqual, "~"} {
		zone, err := GetThresholdZone(1, 1, op, DefaultZoneThresholds)
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperator)
		assert.Equal(t, ZoneUnclassified, zone)
	}
}

func TestZoneThresholds(t *testing.T) {
	_, err := NewZoneThresholds(0.7, 0.85)
	assert.NoError(t, err)

	for _, bad := range [][2]float64{{0.9, 0.8}, {0, 0.9}, {0.8, 1}, {0.8, 0.8}, {-0.1, 0.5}} {
		_, err := NewZoneThresholds(bad[0], bad[1])
		assert.ErrorIs(t, err, domain.ErrInvalidThresholds, "%v", bad)
	}

	_, err = Classify(4.0, 4.5, domain.OperatorLTE, ZoneThresholds{CautionAt: 0.95, DangerAt: 0.9})
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)

	custom := ZoneThresholds{CautionAt: 0.6, DangerAt: 0.7}
	zone, err := GetThresholdZone(3.0, 4.5, domain.OperatorLTE, custom)
	require.NoError(t, err)
	assert.Equal(t, ZoneCaution, zone)
}

func TestZoneSeverityOrder(t *testing.T) {
	order := []Zone{ZoneBreach, ZoneDanger, ZoneCaution, ZoneSafe, ZoneSuspended, ZoneUnclassified}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Severity(), order[i].Severity())
	}
}

func TestClassifyObservation_Undefined(t *testing.T) {
	pass, fail := true, false
	tests := []struct {
		name      string
		compliant *bool
		want      Zone
	}{
		{"judged compliant", &pass, ZoneSafe},
		{"judged non-compliant", &fail, ZoneBreach},
		{"no verdict", nil, ZoneBreach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := domain.CovenantObservation{Name: "DSCR", Required: 1.25, Operator: domain.OperatorGTE, Undefined: true, Compliant: tt.compliant}
			c, err := ClassifyObservation(obs, DefaultZoneThresholds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Zone)
			assert.False(t, c.UtilizationDefined)
		})
	}

	_, err := ClassifyObservation(domain.CovenantObservation{Operator: domain.OperatorGTE, Undefined: true}, ZoneThresholds{CautionAt: 0.9, DangerAt: 0.8})
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)
}
