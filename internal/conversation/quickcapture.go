package conversation

import (
	"regexp"
	"strings"

	"fintrack/internal/core"
)

// Capture is an expense recognized in a single free-text message.
type Capture struct {
	Amount   core.Money
	Category string
}

var (
	amountFirst = regexp.MustCompile(`^(\d+(?:\.\d*)?)\s+(.+)$`)
	amountLast  = regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d*)?)$`)
)

// ParseQuickCapture recognizes "<amount> <category>" and "<category> <amount>".
// Amount-first wins when both shapes match, so "12 34" is 12 in category "34".
// A zero amount or unmatched text reports false.
func ParseQuickCapture(text string) (Capture, bool) {
	text = strings.TrimSpace(text)

	var rawAmount, rawCategory string
	if m := amountFirst.FindStringSubmatch(text); m != nil {
		rawAmount, rawCategory = m[1], m[2]
	} else if m := amountLast.FindStringSubmatch(text); m != nil {
		rawCategory, rawAmount = m[1], m[2]
	} else {
		return Capture{}, false
	}

	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return Capture{}, false
	}
	category := core.NormalizeCategory(rawCategory)
	if category == "" {
		return Capture{}, false
	}
	return Capture{Amount: amount, Category: category}, true
}
