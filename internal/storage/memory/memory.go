// Package memory is a process-local Store for development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var errClosed = errors.New("memory store closed")

type Store struct {
	mu      sync.Mutex
	closed  bool
	nextID  int64
	items   []core.Expense
	budgets map[int64]core.Money
	subs    []core.Subscription
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{budgets: make(map[int64]core.Money)}
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, core.Unavailable("insert expense", errClosed)
	}
	s.nextID++
	e.ID = s.nextID
	e.Timestamp = e.Timestamp.UTC()
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) InsertExpenses(_ context.Context, es []core.Expense) (int, error) {
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, core.Unavailable("import expenses", errClosed)
	}
	for _, e := range es {
		s.nextID++
		e.ID = s.nextID
		e.Timestamp = e.Timestamp.UTC()
		s.items = append(s.items, e)
	}
	return len(es), nil
}

func (s *Store) GetExpense(_ context.Context, id, userID int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, core.Unavailable("get expense", errClosed)
	}
	for _, e := range s.items {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (s *Store) DeleteExpense(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Unavailable("delete expense", errClosed)
	}
	for i, e := range s.items {
		if e.ID == id && e.UserID == userID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) QueryExpenses(_ context.Context, userID int64, w core.Window, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.Unavailable("query expenses", errClosed)
	}
	var out []core.Expense
	for _, e := range s.items {
		if e.UserID == userID && w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertUserBudget(_ context.Context, userID int64, limit core.Money) error {
	if userID <= 0 {
		return core.ErrInvalidUser
	}
	if limit.IsNegative() {
		return core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Unavailable("upsert budget", errClosed)
	}
	s.budgets[userID] = limit
	return nil
}

func (s *Store) GetUserBudget(_ context.Context, userID int64) (core.Money, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Money{}, false, core.Unavailable("get budget", errClosed)
	}
	b, ok := s.budgets[userID]
	return b, ok, nil
}

func (s *Store) InsertSubscription(_ context.Context, sub core.Subscription) (int64, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, core.Unavailable("insert subscription", errClosed)
	}
	s.nextID++
	sub.ID = s.nextID
	sub.Name = strings.TrimSpace(sub.Name)
	s.subs = append(s.subs, sub)
	return sub.ID, nil
}

func (s *Store) DeleteSubscription(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Unavailable("delete subscription", errClosed)
	}
	for i, sub := range s.subs {
		if sub.ID == id && sub.UserID == userID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) QuerySubscriptions(_ context.Context, userID int64) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.Unavailable("query subscriptions", errClosed)
	}
	var out []core.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Unavailable("ping", errClosed)
	}
	return nil
}

// Close marks the store unavailable; later calls fail with a StorageError.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
