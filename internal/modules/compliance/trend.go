package compliance

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Direction is the movement of a covenant relative to its breach side
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionWorsening Direction = "worsening"
	DirectionStable    Direction = "stable"
)

const (
	trendWindow          = 3
	stableChangePercent  = 2.0
	projectionMaxPeriods = 12.0
)

// TrendInput is a chronological (oldest first) value series for one covenant
type TrendInput struct {
	Values    []float64
	MaxType   bool      // lower is better (<=, <)
	Threshold *float64  // breach boundary; nil disables projection
	AsOf      time.Time // period end of the latest value; zero means now
}

// TrendResult describes the recent direction of a covenant and, when it is
// worsening towards a known threshold, the projected breach period.
type TrendResult struct {
	Direction             Direction `json:"direction"`
	PercentChange         float64   `json:"percentChange"`
	Window                []float64 `json:"window"`
	AverageChange         float64   `json:"averageChange"`
	Slope                 float64   `json:"slope"`
	PeriodsToBreach       *float64  `json:"periodsToBreach,omitempty"`
	ProjectedBreachPeriod string    `json:"projectedBreachPeriod,omitempty"`
}

// AnalyzeTrend looks at the last three values of the series.
// percentChange = (latest - oldest) / |oldest| * 100, or 0 when oldest is 0.
// Changes under 2% are stable. A worsening series with a threshold is
// extrapolated linearly using the average per-period change; projections
// under 12 periods produce a quarter label assuming quarterly cadence.
func AnalyzeTrend(in TrendInput) (TrendResult, error) {
	if len(in.Values) < 2 {
		return TrendResult{}, fmt.Errorf("%w: got %d values", domain.ErrInsufficientHistory, len(in.Values))
	}

	start := len(in.Values) - trendWindow
	if start < 0 {
		start = 0
	}
	window := append([]float64(nil), in.Values[start:]...)
	oldest, latest := window[0], window[len(window)-1]

	result := TrendResult{Window: window}
	if oldest != 0 {
		result.PercentChange = (latest - oldest) / math.Abs(oldest) * 100
	}

	diffs := make([]float64, len(window)-1)
	xs := make([]float64, len(window))
	for i := range window {
		xs[i] = float64(i)
		if i > 0 {
			diffs[i-1] = window[i] - window[i-1]
		}
	}
	result.AverageChange = stat.Mean(diffs, nil)
	_, result.Slope = stat.LinearRegression(xs, window, nil, false)

	switch {
	case math.Abs(result.PercentChange) < stableChangePercent:
		result.Direction = DirectionStable
	case (in.MaxType && result.PercentChange > 0) || (!in.MaxType && result.PercentChange < 0):
		result.Direction = DirectionWorsening
	default:
		result.Direction = DirectionImproving
	}

	if result.Direction != DirectionWorsening || in.Threshold == nil || result.AverageChange == 0 {
		return result, nil
	}

	periods := (*in.Threshold - latest) / result.AverageChange
	if periods > 0 && periods < projectionMaxPeriods {
		result.PeriodsToBreach = &periods
		asOf := in.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		result.ProjectedBreachPeriod = quarterLabel(asOf, int(math.Ceil(periods)))
	}
	return result, nil
}

// quarterLabel advances the quarter containing t by n quarters ("Q3 2027")
func quarterLabel(t time.Time, n int) string {
	q := (int(t.Month())-1)/3 + n
	year := t.Year() + q/4
	return fmt.Sprintf("Q%d %d", q%4+1, year)
}
