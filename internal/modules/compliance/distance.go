package compliance

import (
	"math"
	"sort"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// DistanceToBreach is the remaining headroom as a percentage of the required value.
// Percent is 0 at the breach boundary and never negative.
type DistanceToBreach struct {
	Percent    float64 `json:"percent"`
	IsInBreach bool    `json:"isInBreach"`
}

// GetDistanceToBreach computes how far a covenant is from breaching.
// IsInBreach is true exactly when the covenant classifies as ZoneBreach.
func GetDistanceToBreach(actual, required float64, op domain.Operator) (DistanceToBreach, error) {
	zone, err := GetThresholdZone(actual, required, op, DefaultZoneThresholds)
	if err != nil {
		return DistanceToBreach{}, err
	}

	inBreach := zone == ZoneBreach
	if inBreach {
		return DistanceToBreach{Percent: 0, IsInBreach: true}, nil
	}
	if required == 0 {
		return DistanceToBreach{Percent: 100}, nil
	}

	headroom := actual - required
	if op.IsMaxType() {
		headroom = required - actual
	}
	percent := headroom / math.Abs(required) * 100
	if percent < 0 {
		percent = 0
	}
	return DistanceToBreach{Percent: percent}, nil
}

// observationDistance is GetDistanceToBreach for a classified observation.
// An undefined actual is either in breach or a full 100% away from it.
func observationDistance(obs domain.CovenantObservation, zone Zone) (DistanceToBreach, error) {
	if !obs.Undefined {
		return GetDistanceToBreach(obs.Actual, obs.Required, obs.Operator)
	}
	if zone == ZoneBreach {
		return DistanceToBreach{Percent: 0, IsInBreach: true}, nil
	}
	return DistanceToBreach{Percent: 100}, nil
}

// RankedCovenant is an observation annotated with its zone and distance to breach
type RankedCovenant struct {
	Name        string                     `json:"name"`
	Zone        Zone                       `json:"zone"`
	Utilization float64                    `json:"utilization"`
	Distance    DistanceToBreach           `json:"distance"`
	Observation domain.CovenantObservation `json:"observation"`
}

// RankByUrgency orders observations most urgent first: zone severity
// (breach, danger, caution, safe, suspended, unclassified), then smaller
// distance to breach, then name.
func RankByUrgency(observations []domain.CovenantObservation, thresholds ZoneThresholds) ([]RankedCovenant, error) {
	if _, err := thresholds.resolve(); err != nil {
		return nil, err
	}

	ranked := make([]RankedCovenant, 0, len(observations))
	for _, obs := range observations {
		rc := RankedCovenant{Name: obs.Name, Observation: obs}
		switch {
		case obs.Suspended:
			rc.Zone = ZoneSuspended
		case !obs.Operator.IsDirectional():
			rc.Zone = ZoneUnclassified
		default:
			c, err := ClassifyObservation(obs, thresholds)
			if err != nil {
				return nil, err
			}
			d, err := observationDistance(obs, c.Zone)
			if err != nil {
				return nil, err
			}
			rc.Zone = c.Zone
			rc.Utilization = c.Utilization
			rc.Distance = d
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Zone.Severity() != b.Zone.Severity() {
			return a.Zone.Severity() < b.Zone.Severity()
		}
		if a.Distance.Percent != b.Distance.Percent {
			return a.Distance.Percent < b.Distance.Percent
		}
		return a.Name < b.Name
	})
	return ranked, nil
}
