package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func expense(cents int64, category string, ts time.Time) core.Expense {
	return core.Expense{UserID: 1, Amount: core.Money{Cents: cents}, Category: category, Timestamp: ts}
}

func TestAggregateGroupsByNormalizedCategory(t *testing.T) {
	ts := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	summary := Aggregate([]core.Expense{
		expense(1000, "Food", ts),
		expense(500, "food", ts),
		expense(2000, "Transport", ts),
	}, core.AllTime())

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, int64(3500), summary.Total.Cents)
	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, core.CategoryAmount{Name: "Transport", Amount: core.Money{Cents: 2000}}, summary.ByCategory[0])
	assert.Equal(t, core.CategoryAmount{Name: "Food", Amount: core.Money{Cents: 1500}}, summary.ByCategory[1])
	require.NotNil(t, summary.Top)
	assert.Equal(t, "Transport", summary.Top.Name)
}

func TestAggregateTieBreaksByName(t *testing.T) {
	ts := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		summary := Aggregate([]core.Expense{
			expense(700, "Shopping", ts),
			expense(700, "Bills", ts),
			expense(700, "Food", ts),
		}, core.AllTime())
		require.NotNil(t, summary.Top)
		assert.Equal(t, "Bills", summary.Top.Name)
	}
}

func TestAggregateRespectsWindow(t *testing.T) {
	now := time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)
	summary := Aggregate([]core.Expense{
		expense(100, "Food", time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)),
		expense(200, "Food", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
		expense(300, "Food", now),
		expense(400, "Food", now.Add(time.Hour)),
	}, core.CurrentMonth(now))

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, int64(500), summary.Total.Cents)
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil, core.AllTime())
	assert.True(t, summary.IsEmpty())
	assert.Nil(t, summary.Top)
	assert.Empty(t, summary.ByCategory)
}

func TestBudgetPercent(t *testing.T) {
	pct, ok := BudgetPercent(core.Money{Cents: 25000}, core.Money{Cents: 50000})
	assert.True(t, ok)
	assert.InDelta(t, 50.0, pct, 0.0001)

	_, ok = BudgetPercent(core.Money{Cents: 25000}, core.Money{})
	assert.False(t, ok)
}
