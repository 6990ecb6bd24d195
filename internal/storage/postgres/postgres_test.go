package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

// Runs only when POSTGRES_TEST_URL points at a disposable database.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	suite.Run(t, &storagetest.StoreSuite{
		NewStore: func() (storage.Store, error) {
			s, err := New(context.Background(), url)
			if err != nil {
				return nil, err
			}
			if _, err := s.pool.Exec(context.Background(), `TRUNCATE expenses, subscriptions, users RESTART IDENTITY`); err != nil {
				s.Close()
				return nil, err
			}
			return s, nil
		},
	})
}
