package bot

import (
	"fmt"
	"strings"

	"fintrack/internal/conversation"
	"fintrack/internal/core"
)

// Main menu labels.
const (
	BtnAddExpense    = "💸 Add Expense"
	BtnStats         = "📊 Stats"
	BtnHistory       = "📜 History"
	BtnDelete        = "🗑 Delete"
	BtnForecast      = "🔮 Forecast"
	BtnSubscriptions = "🔄 Subscriptions"
	BtnBudget        = "🎯 Budget"
	BtnExport        = "📥 Export"

	BtnCustomCategory = "✏️ Custom"
	BtnCancel         = "❌ Cancel"
)

// Callback payloads.
const (
	cbDeletePrefix = "del_"
	cbDeleteCancel = "del_cancel"
	cbStatsPrefix  = "stats_"
	cbExportPrefix = "export_"
)

var menuLabels = []string{
	BtnAddExpense, BtnStats,
	BtnHistory, BtnDelete,
	BtnForecast, BtnSubscriptions,
	BtnBudget, BtnExport,
}

// IsMenuLabel reports whether text is one of the main menu buttons.
func IsMenuLabel(text string) bool {
	for _, l := range menuLabels {
		if text == l {
			return true
		}
	}
	return false
}

func mainMenu() *Keyboard {
	return &Keyboard{Rows: pairs(menuLabels)}
}

func removeKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// categoryKeyboard lays the fixed categories out two per row, with the
// custom escape last.
func categoryKeyboard(categories []string) *Keyboard {
	labels := append(append([]string(nil), categories...), BtnCustomCategory)
	return &Keyboard{Rows: pairs(labels)}
}

func pairs(labels []string) [][]Button {
	var rows [][]Button
	for i := 0; i < len(labels); i += 2 {
		row := []Button{{Text: labels[i]}}
		if i+1 < len(labels) {
			row = append(row, Button{Text: labels[i+1]})
		}
		rows = append(rows, row)
	}
	return rows
}

// deleteKeyboard lists expenses one per row with a cancel button at the end.
func deleteKeyboard(expenses []core.Expense) *Keyboard {
	kb := &Keyboard{Inline: true}
	for _, e := range expenses {
		kb.Rows = append(kb.Rows, []Button{{
			Text: fmt.Sprintf("%s - %s (%s)", e.Category, e.Amount, e.Timestamp.Format("Jan 2")),
			Data: fmt.Sprintf("%s%d", cbDeletePrefix, e.ID),
		}})
	}
	kb.Rows = append(kb.Rows, []Button{{Text: BtnCancel, Data: cbDeleteCancel}})
	return kb
}

func statsKeyboard() *Keyboard {
	return &Keyboard{Inline: true, Rows: [][]Button{{
		{Text: "This month", Data: cbStatsPrefix + string(core.PresetCurrentMonth)},
		{Text: "Last month", Data: cbStatsPrefix + string(core.PresetPreviousMonth)},
		{Text: "All time", Data: cbStatsPrefix + string(core.PresetAllTime)},
	}}}
}

func exportKeyboard() *Keyboard {
	return &Keyboard{Inline: true, Rows: [][]Button{
		{{Text: "🧾 PDF receipt", Data: cbExportPrefix + formatPDF}},
		{{Text: "📊 Excel", Data: cbExportPrefix + formatXLSX}, {Text: "📄 CSV", Data: cbExportPrefix + formatCSV}},
	}}
}

// isCancelText matches the cancel button and, outside free-text category
// entry, the bare word "cancel". A custom category may be named "Cancel".
func isCancelText(text string, state conversation.State) bool {
	if text == BtnCancel {
		return true
	}
	return state != conversation.AwaitingCustomCategory && strings.EqualFold(text, "cancel")
}
