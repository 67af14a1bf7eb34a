package covenants

import (
	"context"
	"errors"
	"testing"

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

	repo, err := NewRepository(db.Conn(), 8, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func leverageInput(dealID string) CreateDefinitionInput {
	return CreateDefinitionInput{
		DealID:            dealID,
		Name:              "Leverage",
		NumeratorFields:   []string{"SeniorDebt"},
		DenominatorFields: []string{"EBITDA"},
		Operator:          domain.OperatorLTE,
		Threshold:         4.5,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, []string{"SeniorDebt"}, got.NumeratorFields)
	assert.Equal(t, []string{"EBITDA"}, got.DenominatorFields)
	assert.Equal(t, domain.OperatorLTE, got.Operator)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	missing, err := repo.GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_CreateValidates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	input := leverageInput("deal-1")
	input.Operator = "~"
	_, err := repo.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)

	input = leverageInput("deal-1")
	input.NumeratorFields = nil
	_, err = repo.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, leverageInput("deal-1"))
	assert.True(t, errors.Is(err, domain.ErrValidation), "duplicate name within deal")

	_, err = repo.Create(ctx, leverageInput("deal-2"))
	assert.NoError(t, err, "same name in another deal")
}

func TestRepository_ListByDealUsesCacheAndInvalidates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)

	list, err := repo.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, repo.cache.Len())

	// callers get copies
	list[0].NumeratorFields[0] = "Mutated"
	again, err := repo.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, "SeniorDebt", again[0].NumeratorFields[0])

	_, err = repo.Update(ctx, created.ID, func(d *Definition) error {
		d.Threshold = 5.0
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.cache.Len())

	again, err = repo.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, again[0].Threshold)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	again, err = repo.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRepository_UpdateMissingAndInvalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	got, err := repo.Update(ctx, "missing", func(*Definition) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := repo.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)

	_, err = repo.Update(ctx, created.ID, func(d *Definition) error {
		d.Name = " "
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	unchanged, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leverage", unchanged.Name)

	deleted, err := repo.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}
