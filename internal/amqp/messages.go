package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// EventType names what happened to a user's records.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
	EventBudgetUpdated  EventType = "budget.updated"
)

// Event is a lightweight notification. Consumers re-read the store for
// anything beyond these fields.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Type        EventType `json:"type"`
	UserID      int64     `json:"user_id"`
	ExpenseID   int64     `json:"expense_id,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func newEvent(t EventType, userID int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// ExpenseCreated builds the event published after an expense is stored.
func ExpenseCreated(e core.Expense) Event {
	ev := newEvent(EventExpenseCreated, e.UserID)
	ev.ExpenseID = e.ID
	ev.AmountCents = e.Amount.Cents
	ev.Category = e.Category
	return ev
}

func ExpenseDeleted(userID, expenseID int64) Event {
	ev := newEvent(EventExpenseDeleted, userID)
	ev.ExpenseID = expenseID
	return ev
}

func BudgetUpdated(userID int64, limit core.Money) Event {
	ev := newEvent(EventBudgetUpdated, userID)
	ev.AmountCents = limit.Cents
	return ev
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and sanity-checks an event body.
func EventFromJSON(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	switch ev.Type {
	case EventExpenseCreated, EventExpenseDeleted, EventBudgetUpdated:
	default:
		return Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.UserID <= 0 {
		return Event{}, fmt.Errorf("event %s: missing user id", ev.ID)
	}
	return ev, nil
}
