// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// StoreSuite runs against a fresh store per test. Embed it and set NewStore.
type StoreSuite struct {
	suite.Suite
	NewStore func() (storage.Store, error)

	store storage.Store
	ctx   context.Context
}

var base = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func (s *StoreSuite) SetupTest() {
	store, err := s.NewStore()
	s.Require().NoError(err, "failed to create store")
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreSuite) insert(userID, cents int64, category string, ts time.Time) int64 {
	id, err := s.store.InsertExpense(s.ctx, core.Expense{
		UserID:    userID,
		Amount:    core.Money{Cents: cents},
		Category:  category,
		Timestamp: ts,
	})
	s.Require().NoError(err)
	return id
}

func (s *StoreSuite) TestInsertAndGetExpense() {
	id, err := s.store.InsertExpense(s.ctx, core.Expense{
		UserID:      1,
		Amount:      core.Money{Cents: 1550},
		Category:    "Food",
		Description: "Coffee",
		Timestamp:   base,
	})
	s.Require().NoError(err)
	s.NotZero(id)

	got, err := s.store.GetExpense(s.ctx, id, 1)
	s.Require().NoError(err)
	s.Equal(int64(1550), got.Amount.Cents)
	s.Equal("Food", got.Category)
	s.Equal("Coffee", got.Description)
	s.True(base.Equal(got.Timestamp))
}

func (s *StoreSuite) TestInsertRejectsInvalidExpense() {
	_, err := s.store.InsertExpense(s.ctx, core.Expense{UserID: 1, Amount: core.Money{Cents: 0}, Category: "Food", Timestamp: base})
	s.ErrorIs(err, core.ErrValidation)

	list, err := s.store.QueryExpenses(s.ctx, 1, core.AllTime(), 0)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *StoreSuite) TestIDsAreUnique() {
	a := s.insert(1, 100, "Food", base)
	b := s.insert(1, 100, "Food", base)
	s.NotEqual(a, b)
}

func (s *StoreSuite) TestQueryNewestFirstWithLimit() {
	s.insert(1, 100, "Food", base.Add(-2*time.Hour))
	s.insert(1, 200, "Food", base.Add(-1*time.Hour))
	newest := s.insert(1, 300, "Food", base)
	s.insert(2, 999, "Food", base.Add(time.Hour))

	list, err := s.store.QueryExpenses(s.ctx, 1, core.AllTime(), 2)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newest, list[0].ID)
	s.Equal(int64(200), list[1].Amount.Cents)
}

func (s *StoreSuite) TestQueryWindowIsInclusive() {
	w := core.Window{Start: base.Add(-time.Hour), End: base}
	s.insert(1, 100, "Food", w.Start)
	s.insert(1, 200, "Food", w.End)
	s.insert(1, 400, "Food", w.End.Add(time.Second))
	s.insert(1, 800, "Food", w.Start.Add(-time.Second))

	list, err := s.store.QueryExpenses(s.ctx, 1, w, 0)
	s.Require().NoError(err)
	s.Len(list, 2)
	var total int64
	for _, e := range list {
		total += e.Amount.Cents
	}
	s.Equal(int64(300), total)
}

func (s *StoreSuite) TestDeleteExpenseEnforcesOwnership() {
	id := s.insert(1, 100, "Food", base)

	err := s.store.DeleteExpense(s.ctx, id, 2)
	s.ErrorIs(err, core.ErrNotFound)

	s.Require().NoError(s.store.DeleteExpense(s.ctx, id, 1))
	_, err = s.store.GetExpense(s.ctx, id, 1)
	s.ErrorIs(err, core.ErrNotFound)

	err = s.store.DeleteExpense(s.ctx, id, 1)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *StoreSuite) TestInsertExpensesIsAllOrNothing() {
	good := core.Expense{UserID: 1, Amount: core.Money{Cents: 100}, Category: "Food", Timestamp: base}
	bad := core.Expense{UserID: 1, Amount: core.Money{Cents: 100}, Category: "", Timestamp: base}

	_, err := s.store.InsertExpenses(s.ctx, []core.Expense{good, bad})
	s.ErrorIs(err, core.ErrValidation)
	list, err := s.store.QueryExpenses(s.ctx, 1, core.AllTime(), 0)
	s.Require().NoError(err)
	s.Empty(list)

	n, err := s.store.InsertExpenses(s.ctx, []core.Expense{good, good})
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *StoreSuite) TestBudgetUpsert() {
	_, ok, err := s.store.GetUserBudget(s.ctx, 1)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.UpsertUserBudget(s.ctx, 1, core.Money{Cents: 50000}))
	s.Require().NoError(s.store.UpsertUserBudget(s.ctx, 1, core.Money{Cents: 60000}))

	got, ok, err := s.store.GetUserBudget(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(int64(60000), got.Cents)

	err = s.store.UpsertUserBudget(s.ctx, 1, core.Money{Cents: -1})
	s.True(errors.Is(err, core.ErrValidation))
}

func (s *StoreSuite) TestSubscriptions() {
	id, err := s.store.InsertSubscription(s.ctx, core.Subscription{UserID: 1, Name: "Netflix", Amount: core.Money{Cents: 1599}})
	s.Require().NoError(err)
	_, err = s.store.InsertSubscription(s.ctx, core.Subscription{UserID: 2, Name: "Gym", Amount: core.Money{Cents: 3000}})
	s.Require().NoError(err)

	subs, err := s.store.QuerySubscriptions(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal("Netflix", subs[0].Name)

	s.ErrorIs(s.store.DeleteSubscription(s.ctx, id, 2), core.ErrNotFound)
	s.Require().NoError(s.store.DeleteSubscription(s.ctx, id, 1))

	subs, err = s.store.QuerySubscriptions(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
