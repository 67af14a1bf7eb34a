package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/modules/submissions"
)

// SubmissionSource is the read side of the submission store
type SubmissionSource interface {
	ListByDeal(ctx context.Context, dealID string) ([]submissions.FinancialSubmission, error)
	ListDealIDs(ctx context.Context) ([]string, error)
}

// DealStatus is the live compliance picture of a deal from its latest evaluated period
type DealStatus struct {
	DealID           string           `json:"dealId"`
	SubmissionID     string           `json:"submissionId"`
	Period           string           `json:"period"`
	PeriodEndDate    time.Time        `json:"periodEndDate"`
	OverallCompliant bool             `json:"overallCompliant"`
	TotalCovenants   int              `json:"totalCovenants"`
	SuspendedCount   int              `json:"suspendedCount"`
	Covenants        []RankedCovenant `json:"covenants"`
	Alerts           AlertSummary     `json:"alerts"`
}

// CovenantTrend is the trend of one covenant across a deal's history.
// Trend is nil when fewer than two periods exist.
type CovenantTrend struct {
	Name     string          `json:"name"`
	Operator domain.Operator `json:"operator"`
	Required float64         `json:"required"`
	Periods  int             `json:"periods"`
	Trend    *TrendResult    `json:"trend"`
}

// Service assembles status, history and trends from stored submissions
type Service struct {
	source     SubmissionSource
	thresholds ZoneThresholds
	log        zerolog.Logger
}

// NewService creates a new compliance service
func NewService(source SubmissionSource, thresholds ZoneThresholds, log zerolog.Logger) (*Service, error) {
	t, err := thresholds.resolve()
	if err != nil {
		return nil, err
	}
	return &Service{
		source:     source,
		thresholds: t,
		log:        log.With().Str("service", "compliance").Logger(),
	}, nil
}

// Thresholds returns the zone thresholds in use
func (s *Service) Thresholds() ZoneThresholds {
	return s.thresholds
}

// DealIDs lists deals that have submissions
func (s *Service) DealIDs(ctx context.Context) ([]string, error) {
	return s.source.ListDealIDs(ctx)
}

// History returns the deal's compliance timeline, newest first
func (s *Service) History(ctx context.Context, dealID string) ([]CompliancePeriod, error) {
	subs, err := s.source.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions for deal %s: %w", dealID, err)
	}
	return BuildHistory(subs), nil
}

// Status classifies the latest evaluated period of a deal.
// Returns nil, nil when the deal has no evaluated submissions.
func (s *Service) Status(ctx context.Context, dealID string) (*DealStatus, error) {
	history, err := s.History(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	latest := history[0]

	observations := make([]domain.CovenantObservation, len(latest.Covenants))
	suspended := 0
	for i, c := range latest.Covenants {
		observations[i] = c.Observation()
		if c.Suspended {
			suspended++
		}
	}

	alerts, err := GenerateAlerts(observations, s.thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to generate alerts for deal %s: %w", dealID, err)
	}
	ranked, err := RankByUrgency(observations, s.thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to rank covenants for deal %s: %w", dealID, err)
	}
	if len(alerts.Unclassified) > 0 {
		s.log.Debug().Str("deal_id", dealID).Strs("covenants", alerts.Unclassified).Msg("Covenants without zone direction skipped")
	}

	return &DealStatus{
		DealID:           dealID,
		SubmissionID:     latest.SubmissionID,
		Period:           latest.Period,
		PeriodEndDate:    latest.PeriodEndDate,
		OverallCompliant: latest.OverallCompliant,
		TotalCovenants:   len(observations),
		SuspendedCount:   suspended,
		Covenants:        ranked,
		Alerts:           alerts,
	}, nil
}

// Trends analyzes every non-suspended directional covenant over the deal's
// chronological history, projecting breaches against the latest required value.
func (s *Service) Trends(ctx context.Context, dealID string) ([]CovenantTrend, error) {
	history, err := s.History(ctx, dealID)
	if err != nil {
		return nil, err
	}

	trends := make([]CovenantTrend, 0)
	for _, cs := range ChronologicalSeries(history) {
		if cs.Suspended || !cs.Operator.IsDirectional() {
			continue
		}
		ct := CovenantTrend{
			Name:     cs.Name,
			Operator: cs.Operator,
			Required: cs.Required,
			Periods:  len(cs.Values),
		}
		if len(cs.Values) >= 2 {
			threshold := cs.Required
			result, err := AnalyzeTrend(TrendInput{
				Values:    cs.Values,
				MaxType:   cs.Operator.IsMaxType(),
				Threshold: &threshold,
				AsOf:      cs.PeriodEndDates[len(cs.PeriodEndDates)-1],
			})
			if err != nil {
				return nil, fmt.Errorf("failed to analyze trend of %s: %w", cs.Name, err)
			}
			ct.Trend = &result
		}
		trends = append(trends, ct)
	}
	return trends, nil
}
