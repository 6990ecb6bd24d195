package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storagetest.StoreSuite{
		NewStore: func() (storage.Store, error) { return New(), nil },
	})
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := New()
	s.Close()

	_, err := s.InsertExpense(context.Background(), core.Expense{})
	assert.ErrorIs(t, err, core.ErrValidation, "validation runs before the closed check")

	_, _, err = s.GetUserBudget(context.Background(), 1)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), core.ErrStorageUnavailable)
}
