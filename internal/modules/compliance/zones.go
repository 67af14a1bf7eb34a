// Package compliance classifies covenant observations into threshold zones,
// ranks them by distance to breach, aggregates alerts, projects trends and
// compiles the compliance timeline of a deal.
package compliance

import (
	"fmt"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Zone is the threshold classification of a covenant
type Zone string

const (
	ZoneSafe         Zone = "safe"
	ZoneCaution      Zone = "caution"
	ZoneDanger       Zone = "danger"
	ZoneBreach       Zone = "breach"
	ZoneSuspended    Zone = "suspended"
	ZoneUnclassified Zone = "unclassified" // operator without utilization direction (=, !=)
)

// Severity orders zones for sorting: lower is more urgent
func (z Zone) Severity() int {
	switch z {
	case ZoneBreach:
		return 0
	case ZoneDanger:
		return 1
	case ZoneCaution:
		return 2
	case ZoneSafe:
		return 3
	case ZoneSuspended:
		return 4
	}
	return 5
}

// ZoneThresholds are utilization fractions at which a covenant enters caution and danger
type ZoneThresholds struct {
	CautionAt float64 `json:"cautionAt"`
	DangerAt  float64 `json:"dangerAt"`
}

// DefaultZoneThresholds is used when no thresholds are configured
var DefaultZoneThresholds = ZoneThresholds{CautionAt: 0.80, DangerAt: 0.90}

// NewZoneThresholds validates and returns thresholds
func NewZoneThresholds(cautionAt, dangerAt float64) (ZoneThresholds, error) {
	t := ZoneThresholds{CautionAt: cautionAt, DangerAt: dangerAt}
	if err := t.Validate(); err != nil {
		return ZoneThresholds{}, err
	}
	return t, nil
}

// Validate enforces 0 < cautionAt < dangerAt < 1
func (t ZoneThresholds) Validate() error {
	if !(t.CautionAt > 0 && t.CautionAt < t.DangerAt && t.DangerAt < 1) {
		return fmt.Errorf("%w: need 0 < caution (%.4f) < danger (%.4f) < 1",
			domain.ErrInvalidThresholds, t.CautionAt, t.DangerAt)
	}
	return nil
}

// resolve substitutes defaults for the zero value
func (t ZoneThresholds) resolve() (ZoneThresholds, error) {
	if t == (ZoneThresholds{}) {
		return DefaultZoneThresholds, nil
	}
	if err := t.Validate(); err != nil {
		return ZoneThresholds{}, err
	}
	return t, nil
}

// Classification is a zone together with the utilization that produced it.
// UtilizationDefined is false when the zone came from the comparison fallback
// (required = 0, min-type actual = 0, negative required or mixed signs).
type Classification struct {
	Zone               Zone    `json:"zone"`
	Utilization        float64 `json:"utilization"`
	UtilizationDefined bool    `json:"utilizationDefined"`
}

// Utilization returns actual/required for max-type covenants and required/actual
// for min-type covenants. ok is false when the ratio is undefined or meaningless
// (zero denominator, negative required, negative ratio).
func Utilization(actual, required float64, op domain.Operator) (utilization float64, ok bool, err error) {
	if !op.IsDirectional() {
		return 0, false, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, op)
	}
	if required < 0 {
		return 0, false, nil
	}

	numerator, denominator := actual, required
	if op.IsMinType() {
		numerator, denominator = required, actual
	}
	if denominator == 0 {
		return 0, false, nil
	}

	utilization = numerator / denominator
	if utilization < 0 {
		return 0, false, nil
	}
	return utilization, true, nil
}

// Classify computes the zone and utilization of a single covenant.
// Zone is breach when utilization > 1, danger at >= DangerAt, caution at >= CautionAt,
// else safe. When utilization is undefined the comparison decides between breach and safe.
func Classify(actual, required float64, op domain.Operator, thresholds ZoneThresholds) (Classification, error) {
	t, err := thresholds.resolve()
	if err != nil {
		return Classification{}, err
	}

	utilization, ok, err := Utilization(actual, required, op)
	if err != nil {
		return Classification{Zone: ZoneUnclassified}, err
	}
	if !ok {
		if op.Compare(actual, required) {
			return Classification{Zone: ZoneSafe}, nil
		}
		return Classification{Zone: ZoneBreach}, nil
	}

	c := Classification{Utilization: utilization, UtilizationDefined: true}
	switch {
	case utilization > 1:
		c.Zone = ZoneBreach
	case utilization >= t.DangerAt:
		c.Zone = ZoneDanger
	case utilization >= t.CautionAt:
		c.Zone = ZoneCaution
	default:
		c.Zone = ZoneSafe
	}
	return c, nil
}

// ClassifyObservation classifies an observation. An observation with an
// undefined actual is safe when its evaluator judged it compliant and in
// breach otherwise; it never carries a utilization.
func ClassifyObservation(obs domain.CovenantObservation, thresholds ZoneThresholds) (Classification, error) {
	if !obs.Undefined {
		return Classify(obs.Actual, obs.Required, obs.Operator, thresholds)
	}
	if _, err := thresholds.resolve(); err != nil {
		return Classification{}, err
	}
	if obs.Compliant != nil && *obs.Compliant {
		return Classification{Zone: ZoneSafe}, nil
	}
	return Classification{Zone: ZoneBreach}, nil
}

// GetThresholdZone returns only the zone of Classify
func GetThresholdZone(actual, required float64, op domain.Operator, thresholds ZoneThresholds) (Zone, error) {
	c, err := Classify(actual, required, op, thresholds)
	if err != nil {
		return ZoneUnclassified, err
	}
	return c.Zone, nil
}
