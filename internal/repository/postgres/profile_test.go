package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/domain/profile"
	"finadvisor/internal/testsupport"
	"finadvisor/pkg/errors"
)

func TestProfileRepository_SaveAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewProfileRepository(testDB.Tx())
	ctx := context.Background()

	userID := uuid.New()
	p := testsupport.NewProfileFixture().WithCardAndCarLoan().Build()

	require.NoError(t, repo.Save(ctx, userID, p))

	got, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 45, *got.CurrentAge)
	assert.Equal(t, 90000.0, *got.TargetRetirementIncome)
	require.Len(t, got.Debts, 2)
	assert.Equal(t, "Credit Card", got.Debts[0].Name)
	assert.Nil(t, got.EmergencyFund)

	p.CurrentSavings = profile.FloatPtr(300000)
	require.NoError(t, repo.Save(ctx, userID, p))

	stored, err := repo.GetStored(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, 300000.0, *stored.Profile.CurrentSavings)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestProfileRepository_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewProfileRepository(testDB.Tx())

	_, err := repo.GetByUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestProfileRepository_SaveRejectsInvalid(t *testing.T) {
	repo := NewProfileRepository(nil)

	err := repo.Save(context.Background(), uuid.New(), &profile.ClientProfile{CurrentAge: profile.IntPtr(-1)})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	err = repo.Save(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReturnSeriesRepository_AnnualReturns(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewReturnSeriesRepository(testDB.Tx())
	ctx := context.Background()

	history := map[int]float64{2019: 0.31, 2020: 0.18, 2021: 0.28, 2022: -0.18, 2023: 0.26}
	for year, r := range history {
		require.NoError(t, repo.SaveAnnualReturn(ctx, "test_equity", year, r))
	}

	all, err := repo.AnnualReturns(ctx, "test_equity", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.31, 0.18, 0.28, -0.18, 0.26}, all)

	latest, err := repo.AnnualReturns(ctx, "test_equity", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.28, -0.18, 0.26}, latest)

	none, err := repo.AnnualReturns(ctx, "test_unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
