package compliance

import (
	"sort"
	"time"

	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/modules/submissions"
)

// CompliancePeriod is one submission's evaluated covenants
type CompliancePeriod struct {
	SubmissionID       string                         `json:"submissionId"`
	Period             string                         `json:"period"`
	PeriodType         submissions.PeriodType         `json:"periodType"`
	PeriodEndDate      time.Time                      `json:"periodEndDate"`
	VerificationStatus submissions.VerificationStatus `json:"verificationStatus"`
	Covenants          []domain.CovenantResult        `json:"covenants"`
	OverallCompliant   bool                           `json:"overallCompliant"`
}

// BuildHistory keeps submissions that carry at least one covenant result and
// returns them newest period end first, for display. Use ChronologicalSeries
// for trend input.
func BuildHistory(subs []submissions.FinancialSubmission) []CompliancePeriod {
	periods := make([]CompliancePeriod, 0, len(subs))
	for i := range subs {
		s := &subs[i]
		if len(s.CovenantResults) == 0 {
			continue
		}
		covenants := make([]domain.CovenantResult, len(s.CovenantResults))
		copy(covenants, s.CovenantResults)
		periods = append(periods, CompliancePeriod{
			SubmissionID:       s.ID,
			Period:             s.Period,
			PeriodType:         s.PeriodType,
			PeriodEndDate:      s.PeriodEndDate,
			VerificationStatus: s.VerificationStatus,
			Covenants:          covenants,
			OverallCompliant:   s.OverallCompliant(),
		})
	}

	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].PeriodEndDate.After(periods[j].PeriodEndDate)
	})
	return periods
}

// CovenantSeries is one covenant's actual values, oldest first.
// Operator, Required and Suspended reflect the most recent period.
type CovenantSeries struct {
	Name           string          `json:"name"`
	Operator       domain.Operator `json:"operator"`
	Required       float64         `json:"required"`
	Suspended      bool            `json:"suspended"`
	Values         []float64       `json:"values"`
	PeriodEndDates []time.Time     `json:"periodEndDates"`
}

// ChronologicalSeries re-sorts periods ascending by period end and pivots them
// into per-covenant series, in order of first appearance. Undefined results
// contribute no point to their series.
func ChronologicalSeries(periods []CompliancePeriod) []CovenantSeries {
	ordered := make([]CompliancePeriod, len(periods))
	copy(ordered, periods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PeriodEndDate.Before(ordered[j].PeriodEndDate)
	})

	index := make(map[string]int)
	series := make([]CovenantSeries, 0)
	for _, p := range ordered {
		for _, c := range p.Covenants {
			i, ok := index[c.Name]
			if !ok {
				i = len(series)
				index[c.Name] = i
				series = append(series, CovenantSeries{Name: c.Name})
			}
			cs := &series[i]
			cs.Operator, cs.Required, cs.Suspended = c.Operator, c.Required, c.Suspended
			if c.Undefined {
				continue
			}
			cs.Values = append(cs.Values, c.Actual)
			cs.PeriodEndDates = append(cs.PeriodEndDates, p.PeriodEndDate)
		}
	}
	return series
}
