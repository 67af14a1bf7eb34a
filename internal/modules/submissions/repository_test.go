package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/domain"
	testingpkg "github.com/aristath/covenantmonitor/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "compliance")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func storedSubmission(id, dealID, period string, periodEnd time.Time) *FinancialSubmission {
	now := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	return &FinancialSubmission{
		ID:                 id,
		DealID:             dealID,
		Period:             period,
		PeriodType:         PeriodQuarterly,
		PeriodEndDate:      periodEnd,
		FinancialData:      domain.Financials{"Debt": 100, "EBITDA": 25},
		SubmittedBy:        "borrower@example.com",
		SubmittedAt:        now,
		VerificationStatus: StatusPending,
		CovenantResults: []domain.CovenantResult{
			{Name: "Leverage", Actual: 4, Required: 4.5, Operator: domain.OperatorLTE, Compliant: true, Headroom: 0.5},
		},
		BasketCapacities: []domain.BasketCapacity{
			{Name: "General Debt", Capacity: 10, Used: 4, Available: 6},
		},
		UpdatedAt: now,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	sub := storedSubmission("s1", "deal-1", "Q1 2026", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, sub))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.FinancialData, got.FinancialData)
	assert.Equal(t, sub.CovenantResults, got.CovenantResults)
	assert.Equal(t, sub.BasketCapacities, got.BasketCapacities)
	assert.True(t, sub.PeriodEndDate.Equal(got.PeriodEndDate))
	assert.Nil(t, got.VerifiedBy)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_ListByDealNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, storedSubmission("q1", "deal-1", "Q1 2026", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, repo.Create(ctx, storedSubmission("q3", "deal-1", "Q3 2026", time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, repo.Create(ctx, storedSubmission("q2", "deal-1", "Q2 2026", time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, repo.Create(ctx, storedSubmission("other", "deal-2", "Q1 2026", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))))

	list, err := repo.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"q3", "q2", "q1"}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := repo.ListByDeal(ctx, "deal-9")
	require.NoError(t, err)
	assert.Empty(t, empty)

	ids, err := repo.ListDealIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deal-1", "deal-2"}, ids)
}

func TestRepository_Mutate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, storedSubmission("s1", "deal-1", "Q1 2026", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))))

	verifier := "agent@example.com"
	updated, err := repo.Mutate(ctx, "s1", func(s *FinancialSubmission) error {
		s.VerificationStatus = StatusVerified
		s.VerifiedBy = &verifier
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.VerificationStatus)
	require.NotNil(t, got.VerifiedBy)
	assert.Equal(t, verifier, *got.VerifiedBy)

	missing, err := repo.Mutate(ctx, "nope", func(*FinancialSubmission) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_MutateErrorWritesNothing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, storedSubmission("s1", "deal-1", "Q1 2026", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))))

	refuse := errors.New("refused")
	_, err := repo.Mutate(ctx, "s1", func(s *FinancialSubmission) error {
		s.FinancialData["Debt"] = 999
		return refuse
	})
	assert.ErrorIs(t, err, refuse)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.FinancialData["Debt"])
}
