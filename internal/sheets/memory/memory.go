// Package memory is an in-process ExpenseMirror for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.Expense
	seq  int
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[int64]core.Expense)}
}

// Append stores the expense and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.rows[e.ID] = e
	return fmt.Sprintf("mem:%d", m.seq), nil
}

func (m *Mirror) Remove(_ context.Context, expenseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, expenseID)
	return nil
}

// Rows returns a copy of the mirrored expenses keyed by id.
func (m *Mirror) Rows() map[int64]core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]core.Expense, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out
}
