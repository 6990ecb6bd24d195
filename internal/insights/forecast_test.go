package insights

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// April has 30 days.
var april10 = time.Date(2025, 4, 10, 18, 0, 0, 0, time.UTC)

func TestForecastOverspendScenario(t *testing.T) {
	p, err := Forecast(ForecastInput{
		Now: april10,
		Expenses: []core.Expense{
			expense(12000, "Food", time.Date(2025, 4, 3, 9, 0, 0, 0, time.UTC)),
			expense(8000, "Transport", time.Date(2025, 4, 8, 9, 0, 0, 0, time.UTC)),
		},
		Budget: core.Money{Cents: 50000},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, p.DaysPassed)
	assert.Equal(t, 30, p.DaysInMonth)
	assert.Equal(t, 20, p.DaysRemaining)
	assert.Equal(t, int64(20000), p.VariableSpent.Cents)
	assert.Equal(t, int64(2000), p.DailyAverage.Cents)
	assert.Equal(t, int64(60000), p.ProjectedTotal.Cents)
	assert.Equal(t, int64(-10000), p.Difference.Cents)
	assert.Equal(t, StatusOverspending, p.Status)
	assert.Equal(t, int64(1500), p.SafeDailySpend.Cents)
	require.NotNil(t, p.Top)
	assert.Equal(t, "Food", p.Top.Name)
}

func TestForecastOnTrackIncludesSubscriptions(t *testing.T) {
	p, err := Forecast(ForecastInput{
		Now:           april10,
		Expenses:      []core.Expense{expense(5000, "Food", april10)},
		Subscriptions: []core.Subscription{{UserID: 1, Name: "Netflix", Amount: core.Money{Cents: 1500}}},
		Budget:        core.Money{Cents: 100000},
	})
	require.NoError(t, err)

	// 50/10*30 = 150 variable + 15 fixed
	assert.Equal(t, int64(16500), p.ProjectedTotal.Cents)
	assert.Equal(t, int64(83500), p.Difference.Cents)
	assert.Equal(t, StatusOnTrack, p.Status)
	assert.Equal(t, int64(98500), p.DisposableBudget.Cents)
	// (985 - 50) / 20
	assert.Equal(t, int64(4675), p.SafeDailySpend.Cents)
}

func TestForecastCriticalWhenSubscriptionsExceedBudget(t *testing.T) {
	p, err := Forecast(ForecastInput{
		Now:           april10,
		Subscriptions: []core.Subscription{{UserID: 1, Name: "Rent", Amount: core.Money{Cents: 90000}}},
		Budget:        core.Money{Cents: 50000},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCritical, p.Status)
	assert.True(t, p.SafeDailySpend.IsZero())
	assert.Nil(t, p.Top)
}

func TestForecastWithoutBudgetHasNoAdvice(t *testing.T) {
	p, err := Forecast(ForecastInput{
		Now:      april10,
		Expenses: []core.Expense{expense(1000, "Food", april10)},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNoBudget, p.Status)
	assert.False(t, p.HasBudget())
	assert.True(t, p.SafeDailySpend.IsZero())
	assert.True(t, p.Difference.IsZero())
}

func TestForecastRefusesWithoutData(t *testing.T) {
	_, err := Forecast(ForecastInput{
		Now:      april10,
		Expenses: []core.Expense{expense(1000, "Food", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))},
	})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
}

func TestForecastBudgetOnlyUsesZeroVariableSpend(t *testing.T) {
	p, err := Forecast(ForecastInput{Now: april10, Budget: core.Money{Cents: 30000}})
	require.NoError(t, err)
	assert.True(t, p.VariableSpent.IsZero())
	assert.Equal(t, StatusOnTrack, p.Status)
	assert.Equal(t, int64(1500), p.SafeDailySpend.Cents)
	assert.Nil(t, p.Top)
}

func TestForecastLastDayOfMonth(t *testing.T) {
	last := time.Date(2025, 4, 30, 20, 0, 0, 0, time.UTC)
	p, err := Forecast(ForecastInput{
		Now:      last,
		Expenses: []core.Expense{expense(30000, "Food", last)},
		Budget:   core.Money{Cents: 40000},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.DaysRemaining)
	assert.Equal(t, int64(10000), p.SafeDailySpend.Cents)
}
