// Package conversation drives multi-step data entry for each user.
//
// A user is in at most one flow at a time. Every transition either advances
// the flow, repeats the current prompt after a validation failure, or ends the
// flow after a single storage mutation.
package conversation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// State is the position of a user inside a flow.
type State int

const (
	Idle State = iota
	AwaitingAmount
	AwaitingCategory
	AwaitingCustomCategory
	AwaitingBudgetAmount
)

func (s State) String() string {
	switch s {
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingCategory:
		return "awaiting_category"
	case AwaitingCustomCategory:
		return "awaiting_custom_category"
	case AwaitingBudgetAmount:
		return "awaiting_budget_amount"
	default:
		return "idle"
	}
}

// Flow is the transient per-user context of an unfinished flow.
type Flow struct {
	State     State
	Amount    core.Money
	UpdatedAt time.Time
}

// StepKind tells the caller what to say next.
type StepKind int

const (
	StepNone StepKind = iota
	PromptAmount
	PromptCategory
	PromptCustomCategory
	PromptBudget
	InvalidAmount
	InvalidBudget
	EmptyCategory
	CategoryTooLong
	ExpenseSaved
	BudgetSaved
)

// Step is the outcome of one transition.
type Step struct {
	Kind  StepKind
	State State

	// Amount is the stashed amount while choosing a category.
	Amount core.Money
	// Expense is set on ExpenseSaved.
	Expense core.Expense
	// Budget is set on BudgetSaved.
	Budget core.Money
}

// Recorder performs the single mutation that ends a flow.
type Recorder interface {
	AddExpense(ctx context.Context, userID int64, amount core.Money, category, description string) (core.Expense, error)
	SetBudget(ctx context.Context, userID int64, limit core.Money) error
}

// Machine owns every user's flow. Callers must serialize calls per user.
type Machine struct {
	rec         Recorder
	flows       cache.Cache[int64, Flow]
	customLabel string
	now         func() time.Time
}

type Option func(*Machine)

// WithCustomLabel sets the button text that escapes to a free-text category.
// "custom" is always accepted as well.
func WithCustomLabel(label string) Option {
	return func(m *Machine) { m.customLabel = label }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(rec Recorder, flows cache.Cache[int64, Flow], opts ...Option) *Machine {
	m := &Machine{
		rec:         rec,
		flows:       flows,
		customLabel: "✏️ Custom",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartAddExpense begins the add-expense flow, replacing any flow in progress.
func (m *Machine) StartAddExpense(userID int64) Step {
	m.flows.Set(userID, Flow{State: AwaitingAmount, UpdatedAt: m.now()})
	return Step{Kind: PromptAmount, State: AwaitingAmount}
}

// StartSetBudget begins the budget flow, replacing any flow in progress.
func (m *Machine) StartSetBudget(userID int64) Step {
	m.flows.Set(userID, Flow{State: AwaitingBudgetAmount, UpdatedAt: m.now()})
	return Step{Kind: PromptBudget, State: AwaitingBudgetAmount}
}

// Cancel drops the user's flow and reports whether one was active.
func (m *Machine) Cancel(userID int64) bool {
	return m.flows.Delete(userID)
}

func (m *Machine) State(userID int64) State {
	f, ok := m.flows.Get(userID)
	if !ok {
		return Idle
	}
	return f.State
}

func (m *Machine) Active(userID int64) bool {
	return m.State(userID) != Idle
}

// Handle feeds one text input into the user's flow. With no active flow it
// returns a StepNone step and does nothing. When the final mutation fails the
// flow is left as it was and the error is returned.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) (Step, error) {
	flow, ok := m.flows.Get(userID)
	if !ok {
		return Step{Kind: StepNone, State: Idle}, nil
	}
	text = strings.TrimSpace(text)

	switch flow.State {
	case AwaitingAmount:
		amount, err := core.ParseAmount(text)
		if err != nil {
			return Step{Kind: InvalidAmount, State: AwaitingAmount}, nil
		}
		m.flows.Set(userID, Flow{State: AwaitingCategory, Amount: amount, UpdatedAt: m.now()})
		return Step{Kind: PromptCategory, State: AwaitingCategory, Amount: amount}, nil

	case AwaitingCategory:
		if m.isCustom(text) {
			flow.State = AwaitingCustomCategory
			flow.UpdatedAt = m.now()
			m.flows.Set(userID, flow)
			return Step{Kind: PromptCustomCategory, State: AwaitingCustomCategory, Amount: flow.Amount}, nil
		}
		return m.saveExpense(ctx, userID, flow, text)

	case AwaitingCustomCategory:
		return m.saveExpense(ctx, userID, flow, text)

	case AwaitingBudgetAmount:
		limit, err := core.ParseLimit(text)
		if err != nil {
			return Step{Kind: InvalidBudget, State: AwaitingBudgetAmount}, nil
		}
		if err := m.rec.SetBudget(ctx, userID, limit); err != nil {
			return Step{}, err
		}
		m.flows.Delete(userID)
		return Step{Kind: BudgetSaved, State: Idle, Budget: limit}, nil
	}

	m.flows.Delete(userID)
	return Step{Kind: StepNone, State: Idle}, nil
}

func (m *Machine) saveExpense(ctx context.Context, userID int64, flow Flow, category string) (Step, error) {
	category = core.NormalizeCategory(category)
	if category == "" {
		return Step{Kind: EmptyCategory, State: flow.State, Amount: flow.Amount}, nil
	}
	if utf8.RuneCountInString(category) > core.MaxCategoryLength {
		return Step{Kind: CategoryTooLong, State: flow.State, Amount: flow.Amount}, nil
	}

	e, err := m.rec.AddExpense(ctx, userID, flow.Amount, category, "")
	if err != nil {
		return Step{}, err
	}
	m.flows.Delete(userID)
	return Step{Kind: ExpenseSaved, State: Idle, Expense: e}, nil
}

func (m *Machine) isCustom(text string) bool {
	return strings.EqualFold(text, m.customLabel) || strings.EqualFold(text, "custom")
}
