package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the aggregate of a user's expenses over a window.
type Summary struct {
	Window     Window
	Count      int
	Total      Money
	ByCategory []CategoryAmount // amount desc, name asc
	Top        *CategoryAmount  // nil when there are no expenses
}

// IsEmpty reports whether no expense fell inside the window.
func (s Summary) IsEmpty() bool {
	return s.Count == 0
}
