package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher emits record events for background consumers.
type Publisher interface {
	Publish(ctx context.Context, ev amqp.Event) error
}

// ExpenseService orchestrates record mutations across the store and the
// event bus. The store is the source of truth; events are best effort.
type ExpenseService struct {
	store     storage.Store
	publisher Publisher
	now       func() time.Time
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store storage.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// AddExpense stores one expense stamped with the current time.
func (s *ExpenseService) AddExpense(ctx context.Context, userID int64, amount core.Money, category, description string) (core.Expense, error) {
	e := core.NewExpense(userID, amount, category, description, s.now())
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.publish(ctx, amqp.ExpenseCreated(e))
	return e, nil
}

// ImportExpenses stores a decoded batch for userID in one transaction.
// Rows without a timestamp are stamped with the import time.
func (s *ExpenseService) ImportExpenses(ctx context.Context, userID int64, rows []core.Expense) (int, error) {
	now := s.now()
	batch := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = now
		}
		batch = append(batch, core.NewExpense(userID, r.Amount, r.Category, r.Description, ts))
	}

	n, err := s.store.InsertExpenses(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("import expenses: %w", err)
	}

	slog.InfoContext(ctx, "Expenses imported", "user_id", userID, "count", n)
	return n, nil
}

// DeleteExpense removes one of the user's expenses. core.ErrNotFound covers
// both a missing id and an id owned by someone else.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteExpense(ctx, id, userID); err != nil {
		return err
	}
	s.publish(ctx, amqp.ExpenseDeleted(userID, id))
	return nil
}

func (s *ExpenseService) RecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	return s.store.QueryExpenses(ctx, userID, core.AllTime(), limit)
}

// AllExpenses returns the user's full history, newest first.
func (s *ExpenseService) AllExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.store.QueryExpenses(ctx, userID, core.AllTime(), 0)
}

func (s *ExpenseService) SetBudget(ctx context.Context, userID int64, limit core.Money) error {
	if err := s.store.UpsertUserBudget(ctx, userID, limit); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, amqp.BudgetUpdated(userID, limit))
	return nil
}

// Budget returns the user's limit, zero when never set.
func (s *ExpenseService) Budget(ctx context.Context, userID int64) (core.Money, error) {
	limit, _, err := s.store.GetUserBudget(ctx, userID)
	return limit, err
}

func (s *ExpenseService) AddSubscription(ctx context.Context, userID int64, name string, amount core.Money) (core.Subscription, error) {
	sub := core.Subscription{UserID: userID, Name: strings.TrimSpace(name), Amount: amount}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	id, err := s.store.InsertSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	sub.ID = id
	return sub, nil
}

func (s *ExpenseService) DeleteSubscription(ctx context.Context, userID, id int64) error {
	return s.store.DeleteSubscription(ctx, id, userID)
}

func (s *ExpenseService) Subscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	return s.store.QuerySubscriptions(ctx, userID)
}

func (s *ExpenseService) publish(ctx context.Context, ev amqp.Event) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping event", "type", ev.Type)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// Don't fail the request - the record is already stored
		slog.WarnContext(ctx, "Failed to publish event",
			"type", ev.Type,
			"user_id", ev.UserID,
			"error", err)
	}
}
