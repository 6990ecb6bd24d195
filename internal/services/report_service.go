package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/storage"
)

// StatsReport is a Summary plus the budget context for month-bounded windows.
type StatsReport struct {
	Preset  core.Preset
	Label   string
	Summary core.Summary
	Budget  core.Money
	// Percent is spend over budget; valid only when HasPercent.
	Percent    float64
	HasPercent bool
}

// ReportService answers read-only questions from the store.
type ReportService struct {
	store storage.Store
}

func NewReportService(store storage.Store) *ReportService {
	return &ReportService{store: store}
}

// Stats aggregates the user's expenses over preset resolved against now.
func (s *ReportService) Stats(ctx context.Context, userID int64, preset core.Preset, now time.Time) (StatsReport, error) {
	w := preset.Window(now)

	var (
		expenses []core.Expense
		budget   core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.QueryExpenses(gctx, userID, w, 0)
		return err
	})
	g.Go(func() error {
		var err error
		budget, _, err = s.store.GetUserBudget(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return StatsReport{}, fmt.Errorf("load stats: %w", err)
	}

	report := StatsReport{
		Preset:  preset,
		Label:   preset.Label(now),
		Summary: insights.Aggregate(expenses, w),
		Budget:  budget,
	}
	if preset.MonthBounded() {
		report.Percent, report.HasPercent = insights.BudgetPercent(report.Summary.Total, budget)
	}
	return report, nil
}

// Forecast loads the current month, subscriptions and budget concurrently and
// projects month-end spend. core.ErrInsufficientData passes through unwrapped.
func (s *ReportService) Forecast(ctx context.Context, userID int64, now time.Time) (insights.Projection, error) {
	in := insights.ForecastInput{Now: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Expenses, err = s.store.QueryExpenses(gctx, userID, core.CurrentMonth(now), 0)
		return err
	})
	g.Go(func() error {
		var err error
		in.Subscriptions, err = s.store.QuerySubscriptions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		in.Budget, _, err = s.store.GetUserBudget(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return insights.Projection{}, fmt.Errorf("load forecast data: %w", err)
	}

	return insights.Forecast(in)
}

// MonthSpend totals the user's current-month expenses.
func (s *ReportService) MonthSpend(ctx context.Context, userID int64, now time.Time) (core.Money, error) {
	w := core.CurrentMonth(now)
	expenses, err := s.store.QueryExpenses(ctx, userID, w, 0)
	if err != nil {
		return core.Money{}, err
	}
	return insights.Aggregate(expenses, w).Total, nil
}
