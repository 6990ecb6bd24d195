package google

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Column order of a mirrored row: ID, User, Date, Category, Description, Amount.
func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.UserID,
		e.Timestamp.UTC().Format("2006-01-02 15:04"),
		e.Category,
		e.Description,
		e.Amount.Plain(),
	}
}

// findRow returns the 1-based row whose first column equals id, or 0.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		if v == id {
			return i + 1
		}
	}
	return 0
}
