// Package storage persists expenses, budgets and subscriptions.
package storage

import (
	"context"

	"fintrack/internal/core"
)

// Store is the record store behind every bot operation. Implementations wrap
// driver failures with core.Unavailable so callers can tell a storage outage
// from a validation or not-found error.
type Store interface {
	InsertExpense(ctx context.Context, e core.Expense) (int64, error)
	// InsertExpenses writes all rows or none.
	InsertExpenses(ctx context.Context, es []core.Expense) (int, error)
	GetExpense(ctx context.Context, id, userID int64) (core.Expense, error)
	// DeleteExpense returns core.ErrNotFound when the id is missing or owned
	// by another user.
	DeleteExpense(ctx context.Context, id, userID int64) error
	// QueryExpenses returns the user's expenses inside w, newest first. A
	// limit of zero or less returns every match.
	QueryExpenses(ctx context.Context, userID int64, w core.Window, limit int) ([]core.Expense, error)

	UpsertUserBudget(ctx context.Context, userID int64, limit core.Money) error
	// GetUserBudget reports false when the user never set a budget.
	GetUserBudget(ctx context.Context, userID int64) (core.Money, bool, error)

	InsertSubscription(ctx context.Context, s core.Subscription) (int64, error)
	DeleteSubscription(ctx context.Context, id, userID int64) error
	QuerySubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error)

	Ping(ctx context.Context) error
	Close() error
}
