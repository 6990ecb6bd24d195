package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MaxCategoryLength    = 64
	MaxDescriptionLength = 200
	MaxNameLength        = 64

	// Timestamps are stored as int64 nanoseconds, which only span 1678-2262.
	MinYear = 1900
	MaxYear = 2200
)

type (
	// User holds per-user settings. A zero BudgetLimit means no budget is configured.
	User struct {
		ID          int64
		BudgetLimit Money
	}

	Expense struct {
		ID          int64
		UserID      int64
		Amount      Money
		Category    string
		Description string
		Timestamp   time.Time
	}

	// Subscription is a fixed monthly cost. It feeds forecasts only, never
	// historical aggregation.
	Subscription struct {
		ID     int64
		UserID int64
		Name   string
		Amount Money
	}
)

var (
	ErrInvalidUser      = fmt.Errorf("%w: invalid user id", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
	ErrCategoryTooLong  = fmt.Errorf("%w: category too long (max %d characters)", ErrValidation, MaxCategoryLength)
	ErrDescTooLong      = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLength)
	ErrEmptyName        = fmt.Errorf("%w: empty subscription name", ErrValidation)
	ErrNameTooLong      = fmt.Errorf("%w: subscription name too long (max %d characters)", ErrValidation, MaxNameLength)
	ErrMissingTimestamp = fmt.Errorf("%w: missing timestamp", ErrValidation)
	ErrTimestampRange   = fmt.Errorf("%w: timestamp outside %d-%d", ErrValidation, MinYear, MaxYear)
)

// NormalizeCategory trims the input, collapses inner whitespace and title-cases
// it so that "food", " FOOD " and "Food" group together.
func NormalizeCategory(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// Casers keep state and are not safe to share between goroutines.
	return cases.Title(language.Und).String(s)
}

// NewExpense builds a normalized expense stamped with now in UTC.
func NewExpense(userID int64, amount Money, category, description string, now time.Time) Expense {
	return Expense{
		UserID:      userID,
		Amount:      amount,
		Category:    NormalizeCategory(category),
		Description: strings.TrimSpace(description),
		Timestamp:   now.UTC(),
	}
}

func (e Expense) Validate() error {
	if e.UserID <= 0 {
		return ErrInvalidUser
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(e.Category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if e.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if !TimestampInRange(e.Timestamp) {
		return ErrTimestampRange
	}
	return nil
}

// TimestampInRange reports whether t falls within the storable years.
func TimestampInRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= MinYear && y <= MaxYear
}

func (s Subscription) Validate() error {
	if s.UserID <= 0 {
		return ErrInvalidUser
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return s.Amount.Validate()
}

// HasBudget reports whether a budget limit has been configured.
func (u User) HasBudget() bool {
	return u.BudgetLimit.Cents > 0
}
