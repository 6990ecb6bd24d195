package sheets

import (
	"context"

	"fintrack/internal/core"
)

// ExpenseMirror keeps an external copy of stored expenses. The store stays
// the source of truth; a mirror only follows it.
type ExpenseMirror interface {
	// Append copies one expense and returns a row reference.
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	// Remove drops the copy of an expense. Missing rows are not an error.
	Remove(ctx context.Context, expenseID int64) error
}
