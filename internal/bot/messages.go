package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/services"
)

const (
	msgHelp = "Here is what I can do:\n\n" +
		"/add - record an expense step by step\n" +
		"/budget [amount] - set your monthly budget\n" +
		"/stats [month|last|all] - spending breakdown\n" +
		"/history - your latest expenses\n" +
		"/forecast - end-of-month projection\n" +
		"/subs - list subscriptions\n" +
		"/addsub Name Amount - add a monthly subscription\n" +
		"/export - download your expenses\n" +
		"/cancel - abandon the current step\n\n" +
		"You can also just type \"15.50 Coffee\" or \"Taxi 20\"."

	msgPromptAmount    = "Enter the amount (e.g., 15.50):"
	msgInvalidAmount   = "Please enter a valid positive number (e.g. 100 or 10.5)."
	msgPromptCategory  = "Select a category:"
	msgPromptCustom    = "Type the category name:"
	msgEmptyCategory   = "Category cannot be empty. Type the category name:"
	msgPromptBudget    = "Enter your monthly budget (0 to clear it):"
	msgInvalidBudget   = "Please enter a valid non-negative number (e.g. 500)."
	msgCancelled       = "Cancelled."
	msgNothingToCancel = "Nothing to cancel."
	msgUnknownCommand  = "Unknown command. Send /help to see what I can do."

	msgNoExpenses        = "No expenses found."
	msgNothingToDelete   = "No expenses to delete."
	msgPickDelete        = "Select an expense to delete:"
	msgDeleted           = "🗑 Expense deleted."
	msgDeleteCancelled   = "Deletion cancelled."
	msgAlreadyDeleted    = "Expense not found. Already deleted?"
	msgSubRemoved        = "✅ Subscription removed."
	msgSubNotFound       = "Subscription not found. Already deleted?"
	msgNoSubscriptions   = "You have no subscriptions yet.\nAdd one using: /addsub Name Amount"
	msgAddSubUsage       = "⚠️ Usage: /addsub Name Amount\nExample: /addsub Netflix 15.99"
	msgBudgetUsage       = "❌ Please enter a valid number, e.g. /budget 500"
	msgStatsUsage        = "⚠️ Usage: /stats [month|last|all]"
	msgNotEnoughData     = "⚠️ Not enough data yet to make a prediction. Add some expenses first!"
	msgExportMenu        = "📂 <b>Export Data</b>\n\nChoose a format to download your expenses."
	msgNothingToExport   = "⚠️ You have no expenses to export."
	msgGenerating        = "Generating file..."
	msgChartCaption      = "Here is your spending breakdown."
	msgImporting         = "⏳ Processing file..."
	msgImportUnsupported = "❌ Unsupported file. Send a .csv or .xlsx file with amount and category columns."
	msgImportColumns     = "❌ Error: the file must have columns: amount, category"
	msgImportTooLarge    = "❌ File is too large."
	msgImportInvalid     = "❌ Invalid file: I could not read it."
	msgImportEmpty       = "⚠️ No valid data found in the file."
	msgUnknownAction     = "Unknown action."

	msgStorageDown = "⚠️ I cannot reach my storage right now. Please try again in a moment."
	msgInternal    = "⚠️ Something went wrong. Please try again."
)

func welcome(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s! 👋\nI am your Personal Finance Bot.\nUse the buttons below to track your expenses.", name)
}

func categoryTooLong() string {
	return fmt.Sprintf("Category is too long (max %d characters). Try a shorter one:", core.MaxCategoryLength)
}

func expenseSaved(e core.Expense) string {
	return fmt.Sprintf("✅ Saved: %s for %s", e.Amount, e.Category)
}

func budgetSaved(limit core.Money) string {
	if limit.IsZero() {
		return "✅ Monthly budget cleared."
	}
	return fmt.Sprintf("✅ Monthly Budget set to: <b>%s</b>", limit)
}

func subscriptionAdded(s core.Subscription) string {
	return fmt.Sprintf("✅ Added subscription: <b>%s</b> (%s/mo)", html.EscapeString(s.Name), s.Amount)
}

func historyText(expenses []core.Expense) string {
	var b strings.Builder
	b.WriteString("🗓 <b>Recent Expenses:</b>\n\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "▫️ %s: %s (%s)", html.EscapeString(e.Category), e.Amount, e.Timestamp.Format("2006-01-02"))
		if e.Description != "" {
			fmt.Fprintf(&b, " %s", html.EscapeString(e.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func subscriptionsText(subs []core.Subscription) string {
	var (
		b     strings.Builder
		total core.Money
	)
	b.WriteString("🔄 <b>Monthly Subscriptions</b>\n──────────────────\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "• %s: <code>%s</code> /delete_sub_%d\n", html.EscapeString(s.Name), s.Amount, s.ID)
		total = total.Add(s.Amount)
	}
	fmt.Fprintf(&b, "──────────────────\n<b>Total Fixed Cost:</b> <code>%s</code>", total)
	return b.String()
}

func statsText(r services.StatsReport) string {
	if r.Summary.IsEmpty() {
		return fmt.Sprintf("No data to show stats for %s.", r.Label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Stats: %s</b>\n", html.EscapeString(r.Label))
	fmt.Fprintf(&b, "Total: <b>%s</b> (%s)\n\n", r.Summary.Total, countNoun(r.Summary.Count, "expense"))
	for _, c := range r.Summary.ByCategory {
		share := float64(c.Amount.Cents) / float64(r.Summary.Total.Cents) * 100
		fmt.Fprintf(&b, "• %s: %s (%.1f%%)\n", html.EscapeString(c.Name), c.Amount, share)
	}
	if r.Summary.Top != nil {
		fmt.Fprintf(&b, "\n🏆 Top: %s (%s)", html.EscapeString(r.Summary.Top.Name), r.Summary.Top.Amount)
	}
	if r.HasPercent {
		fmt.Fprintf(&b, "\n🎯 Budget: %.1f%% of %s used", r.Percent, r.Budget)
	}
	return b.String()
}

func forecastText(p insights.Projection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔮 <b>End-of-Month Projection</b>\n📅 Date: %s\n\n", p.Now.Format("January 2"))

	b.WriteString("📉 <b>Current Status:</b>\n")
	fmt.Fprintf(&b, "• Spent so far: <b>%s</b>\n", p.VariableSpent)
	fmt.Fprintf(&b, "• Avg. Daily Spend: <b>%s</b>\n", p.DailyAverage)
	if !p.FixedCosts.IsZero() {
		fmt.Fprintf(&b, "• Fixed costs: <b>%s</b>\n", p.FixedCosts)
	}
	fmt.Fprintf(&b, "• Days left: %d of %d\n\n", p.DaysRemaining, p.DaysInMonth)

	b.WriteString("🚀 <b>Forecast:</b>\n")
	fmt.Fprintf(&b, "At this rate, you will spend <b>%s</b> by month end.\n", p.ProjectedTotal)

	switch p.Status {
	case insights.StatusNoBudget:
		b.WriteString("\n<i>(Set a /budget to get smart advice)</i>")
	case insights.StatusCritical:
		fmt.Fprintf(&b, "🎯 <b>Budget Goal:</b> %s\n", p.Budget)
		fmt.Fprintf(&b, "🚨 <b>CRITICAL:</b> Your subscriptions (%s) alone exceed your budget! Review them with /subs.", p.FixedCosts)
	case insights.StatusOverspending:
		fmt.Fprintf(&b, "🎯 <b>Budget Goal:</b> %s\n", p.Budget)
		fmt.Fprintf(&b, "⚠️ <b>WARNING:</b> You are on track to overspend by <b>%s</b>!\n", p.Difference.Abs())
		fmt.Fprintf(&b, "💡 <b>Advice:</b> Try to spend less than <b>%s</b> per day for the rest of the month.", p.SafeDailySpend)
	case insights.StatusOnTrack:
		fmt.Fprintf(&b, "🎯 <b>Budget Goal:</b> %s\n", p.Budget)
		fmt.Fprintf(&b, "✅ <b>Great Job!</b> You are on track to save <b>%s</b>.\n", p.Difference)
		fmt.Fprintf(&b, "💡 You can spend up to <b>%s</b> per day for the rest of the month.", p.SafeDailySpend)
	}

	if p.Top != nil {
		fmt.Fprintf(&b, "\n\n🍔 <b>Top Drain:</b> %s (%s)", html.EscapeString(p.Top.Name), p.Top.Amount)
	}
	return b.String()
}

func importDone(imported, total, skipped int) string {
	msg := fmt.Sprintf("✅ Success! Imported <b>%d</b> of %d expenses.", imported, total)
	if skipped > 0 {
		msg += fmt.Sprintf("\n%s skipped.", countNoun(skipped, "row"))
	}
	return msg
}

func exportCaption(format string) string {
	switch format {
	case formatPDF:
		return "🧾 Here is your expense receipt."
	case formatXLSX:
		return "📊 Here is your expense spreadsheet."
	default:
		return "📄 Here are your expenses as CSV."
	}
}

func exportFileName(format string, userID int64, now time.Time) string {
	prefix := "expenses"
	if format == formatPDF {
		prefix = "receipt"
	}
	return fmt.Sprintf("%s_%d_%s.%s", prefix, userID, now.Format("20060102"), format)
}

// countNoun renders "1 expense", "2 expenses", "1,204 expenses".
func countNoun(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
