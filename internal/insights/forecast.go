package insights

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Status classifies a projection against the user's budget.
type Status int

const (
	// StatusNoBudget: no budget configured, projection only.
	StatusNoBudget Status = iota
	// StatusCritical: subscriptions alone exceed the budget.
	StatusCritical
	StatusOverspending
	StatusOnTrack
)

func (s Status) String() string {
	switch s {
	case StatusCritical:
		return "critical"
	case StatusOverspending:
		return "overspending"
	case StatusOnTrack:
		return "on_track"
	default:
		return "no_budget"
	}
}

// ForecastInput carries everything the projection needs. Expenses outside the
// current month are ignored.
type ForecastInput struct {
	Now           time.Time
	Expenses      []core.Expense
	Subscriptions []core.Subscription
	Budget        core.Money
}

// Projection is the month-end outlook for one user.
type Projection struct {
	Now           time.Time
	DaysPassed    int
	DaysInMonth   int
	DaysRemaining int
	ExpenseCount  int

	VariableSpent     core.Money
	FixedCosts        core.Money
	DailyAverage      core.Money
	ProjectedVariable core.Money
	ProjectedTotal    core.Money

	Budget           core.Money
	DisposableBudget core.Money
	// Difference is Budget minus ProjectedTotal; negative means overspend.
	Difference     core.Money
	SafeDailySpend core.Money

	Status Status
	Top    *core.CategoryAmount
}

// HasBudget reports whether budget-relative fields are meaningful.
func (p Projection) HasBudget() bool {
	return p.Status != StatusNoBudget
}

// Forecast projects month-end spend from the current month's expenses plus
// fixed subscription costs. It returns core.ErrInsufficientData when there are
// no expenses, no subscriptions and no budget to work with.
func Forecast(in ForecastInput) (Projection, error) {
	now := in.Now.UTC()
	window := core.CurrentMonth(now)
	summary := Aggregate(in.Expenses, window)

	if summary.Count == 0 && len(in.Subscriptions) == 0 && in.Budget.Cents <= 0 {
		return Projection{}, core.ErrInsufficientData
	}

	var fixed core.Money
	for _, s := range in.Subscriptions {
		fixed = fixed.Add(s.Amount)
	}

	daysPassed := now.Day()
	if daysPassed < 1 {
		daysPassed = 1
	}
	daysInMonth := core.DaysInMonth(now)
	daysRemaining := daysInMonth - daysPassed

	passed := decimal.NewFromInt(int64(daysPassed))
	variable := summary.Total.Decimal()
	projectedVariable := variable.Mul(decimal.NewFromInt(int64(daysInMonth))).Div(passed)
	projectedTotal := projectedVariable.Add(fixed.Decimal())

	p := Projection{
		Now:               now,
		DaysPassed:        daysPassed,
		DaysInMonth:       daysInMonth,
		DaysRemaining:     daysRemaining,
		ExpenseCount:      summary.Count,
		VariableSpent:     summary.Total,
		FixedCosts:        fixed,
		DailyAverage:      core.FromDecimal(variable.Div(passed)),
		ProjectedVariable: core.FromDecimal(projectedVariable),
		ProjectedTotal:    core.FromDecimal(projectedTotal),
		Budget:            in.Budget,
		Status:            StatusNoBudget,
	}
	if summary.Count > 0 {
		p.Top = summary.Top
	}

	if in.Budget.Cents <= 0 {
		return p, nil
	}

	budget := in.Budget.Decimal()
	disposable := budget.Sub(fixed.Decimal())
	p.DisposableBudget = core.FromDecimal(disposable)
	p.Difference = core.FromDecimal(budget.Sub(projectedTotal))

	remaining := daysRemaining
	if remaining < 1 {
		remaining = 1
	}
	safe := disposable.Sub(variable).Div(decimal.NewFromInt(int64(remaining)))
	if safe.IsNegative() {
		safe = decimal.Zero
	}
	p.SafeDailySpend = core.FromDecimal(safe)

	switch {
	case fixed.Cents > in.Budget.Cents:
		p.Status = StatusCritical
	case budget.Sub(projectedTotal).IsNegative():
		p.Status = StatusOverspending
	default:
		p.Status = StatusOnTrack
	}
	return p, nil
}
