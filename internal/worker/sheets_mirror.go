package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type ExpenseReader interface {
	GetExpense(ctx context.Context, id, userID int64) (core.Expense, error)
}

// SheetsMirror follows expense events into an external spreadsheet.
type SheetsMirror struct {
	store  ExpenseReader
	mirror sheets.ExpenseMirror
}

func NewSheetsMirror(store ExpenseReader, mirror sheets.ExpenseMirror) *SheetsMirror {
	return &SheetsMirror{store: store, mirror: mirror}
}

func (m *SheetsMirror) HandleEvent(ctx context.Context, ev amqp.Event) error {
	switch ev.Type {
	case amqp.EventExpenseCreated:
		e, err := m.store.GetExpense(ctx, ev.ExpenseID, ev.UserID)
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Expense gone before mirroring, skipping", "expense_id", ev.ExpenseID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense from storage: %w", err)
		}
		ref, err := m.mirror.Append(ctx, e)
		if err != nil {
			return fmt.Errorf("mirror expense: %w", err)
		}
		slog.InfoContext(ctx, "Expense mirrored", "expense_id", e.ID, "ref", ref)

	case amqp.EventExpenseDeleted:
		if err := m.mirror.Remove(ctx, ev.ExpenseID); err != nil {
			return fmt.Errorf("remove mirrored expense: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored expense removed", "expense_id", ev.ExpenseID)
	}
	return nil
}
