// Package insights derives statistics and month-end projections from expense
// records. Everything here is pure: callers load the records.
package insights

import (
	"sort"

	"fintrack/internal/core"
)

// Aggregate totals the expenses that fall inside w, grouped by normalized
// category. Ties for the top category resolve to the alphabetically first
// name so the result never depends on map iteration order.
func Aggregate(expenses []core.Expense, w core.Window) core.Summary {
	summary := core.Summary{Window: w}
	totals := make(map[string]int64)

	for _, e := range expenses {
		if !w.Contains(e.Timestamp) {
			continue
		}
		key := core.NormalizeCategory(e.Category)
		totals[key] += e.Amount.Cents
		summary.Total = summary.Total.Add(e.Amount)
		summary.Count++
	}

	summary.ByCategory = make([]core.CategoryAmount, 0, len(totals))
	for name, cents := range totals {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: cents},
		})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})

	if len(summary.ByCategory) > 0 {
		top := summary.ByCategory[0]
		summary.Top = &top
	}
	return summary
}

// BudgetPercent returns spent as a percentage of budget. It reports false when
// no budget is configured so callers suppress budget-relative output entirely.
func BudgetPercent(spent, budget core.Money) (float64, bool) {
	if budget.Cents <= 0 {
		return 0, false
	}
	return float64(spent.Cents) / float64(budget.Cents) * 100, true
}
