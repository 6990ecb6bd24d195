package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Alert thresholds as a share of the monthly budget, highest first.
var alertThresholds = []int64{100, 80}

type BudgetReader interface {
	Budget(ctx context.Context, userID int64) (core.Money, error)
}

type SpendReader interface {
	MonthSpend(ctx context.Context, userID int64, now time.Time) (core.Money, error)
}

// Notifier delivers a plain message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// AlertWorker warns a user when a new expense pushes the month's spend across
// a budget threshold. Only the highest threshold crossed by a single expense
// is reported.
type AlertWorker struct {
	budgets  BudgetReader
	spend    SpendReader
	notifier Notifier
	now      func() time.Time
}

func NewAlertWorker(budgets BudgetReader, spend SpendReader, notifier Notifier) *AlertWorker {
	return &AlertWorker{
		budgets:  budgets,
		spend:    spend,
		notifier: notifier,
		now:      time.Now,
	}
}

func (w *AlertWorker) HandleEvent(ctx context.Context, ev amqp.Event) error {
	if ev.Type != amqp.EventExpenseCreated {
		return nil
	}

	budget, err := w.budgets.Budget(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	if budget.Cents <= 0 {
		return nil
	}

	now := ev.OccurredAt
	if now.IsZero() {
		now = w.now()
	}
	after, err := w.spend.MonthSpend(ctx, ev.UserID, now)
	if err != nil {
		return fmt.Errorf("load month spend: %w", err)
	}
	before := after.Sub(core.Money{Cents: ev.AmountCents})

	pct, crossed := crossedThreshold(before, after, budget)
	if !crossed {
		return nil
	}

	if err := w.notifier.Notify(ctx, ev.UserID, alertText(pct, after, budget)); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	slog.InfoContext(ctx, "Budget alert sent",
		"user_id", ev.UserID,
		"threshold", pct,
		"spent_cents", after.Cents,
		"budget_cents", budget.Cents)
	return nil
}

// crossedThreshold returns the highest threshold t with before < t <= after.
func crossedThreshold(before, after, budget core.Money) (int64, bool) {
	for _, pct := range alertThresholds {
		limit := budget.Decimal().Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
		if before.Decimal().LessThan(limit) && !after.Decimal().LessThan(limit) {
			return pct, true
		}
	}
	return 0, false
}

func alertText(pct int64, spent, budget core.Money) string {
	if pct >= 100 {
		return fmt.Sprintf("🚨 You have reached your monthly budget: %s spent of %s.", spent, budget)
	}
	return fmt.Sprintf("⚠️ You have used %d%% of your monthly budget (%s of %s).", pct, spent, budget)
}
