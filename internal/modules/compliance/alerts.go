package compliance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Alert is a derived warning for a covenant outside the safe zone.
// Alerts are regenerated on every evaluation and never persisted.
type Alert struct {
	Name        string  `json:"name"`
	Zone        Zone    `json:"zone"`
	Utilization float64 `json:"utilization"`
	Measured    bool    `json:"measured"`
	Message     string  `json:"message"`
}

// AlertSummary aggregates the alerts of a set of observations
type AlertSummary struct {
	HasAlerts    bool     `json:"hasAlerts"`
	BreachCount  int      `json:"breachCount"`
	DangerCount  int      `json:"dangerCount"`
	CautionCount int      `json:"cautionCount"`
	Alerts       []Alert  `json:"alerts"`
	Message      string   `json:"message"`
	Unclassified []string `json:"unclassified,omitempty"`
}

// GenerateAlerts classifies every non-suspended observation and builds a ranked
// alert list with per-zone counts and a single summary message.
// Observations whose operator has no utilization direction are excluded and
// reported in Unclassified.
//
// Alerts are ordered by zone severity. Within a zone, alerts without a
// measured utilization (undefined actual or comparison fallback, always
// breaches) come first, then higher utilization, then name.
func GenerateAlerts(observations []domain.CovenantObservation, thresholds ZoneThresholds) (AlertSummary, error) {
	if _, err := thresholds.resolve(); err != nil {
		return AlertSummary{}, err
	}

	summary := AlertSummary{Alerts: make([]Alert, 0)}
	for _, obs := range observations {
		if obs.Suspended {
			continue
		}
		if !obs.Operator.IsDirectional() {
			summary.Unclassified = append(summary.Unclassified, obs.Name)
			continue
		}

		c, err := ClassifyObservation(obs, thresholds)
		if err != nil {
			return AlertSummary{}, err
		}

		switch c.Zone {
		case ZoneBreach:
			summary.BreachCount++
		case ZoneDanger:
			summary.DangerCount++
		case ZoneCaution:
			summary.CautionCount++
		default:
			continue
		}

		summary.Alerts = append(summary.Alerts, Alert{
			Name:        obs.Name,
			Zone:        c.Zone,
			Utilization: c.Utilization,
			Measured:    c.UtilizationDefined,
			Message:     alertMessage(obs.Name, c),
		})
	}

	sort.SliceStable(summary.Alerts, func(i, j int) bool {
		a, b := summary.Alerts[i], summary.Alerts[j]
		if a.Zone.Severity() != b.Zone.Severity() {
			return a.Zone.Severity() < b.Zone.Severity()
		}
		if a.Measured != b.Measured {
			return !a.Measured
		}
		if a.Utilization != b.Utilization {
			return a.Utilization > b.Utilization
		}
		return a.Name < b.Name
	})

	summary.HasAlerts = len(summary.Alerts) > 0
	summary.Message = summaryMessage(summary)
	return summary, nil
}

func alertMessage(name string, c Classification) string {
	if c.Zone == ZoneBreach {
		return fmt.Sprintf("%s in breach", name)
	}
	return fmt.Sprintf("%s at %.0f%% of threshold", name, c.Utilization*100)
}

func summaryMessage(s AlertSummary) string {
	var msg string
	switch {
	case s.BreachCount > 0:
		msg = fmt.Sprintf("%d %s in breach", s.BreachCount, covenantNoun(s.BreachCount))
	case s.DangerCount > 0:
		msg = fmt.Sprintf("%d %s approaching breach", s.DangerCount, covenantNoun(s.DangerCount))
	case s.CautionCount > 0:
		msg = fmt.Sprintf("%d %s in caution zone", s.CautionCount, covenantNoun(s.CautionCount))
	default:
		return "All covenants within safe thresholds"
	}

	if len(s.Alerts) <= 2 {
		names := make([]string, len(s.Alerts))
		for i, a := range s.Alerts {
			names[i] = a.Name
		}
		msg += ": " + strings.Join(names, ", ")
	}
	return msg
}

func covenantNoun(n int) string {
	if n == 1 {
		return "covenant"
	}
	return "covenants"
}
