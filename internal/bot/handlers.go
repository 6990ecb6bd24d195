package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/log"
	"fintrack/internal/render"
)

const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"
	formatCSV  = "csv"

	deleteSubPrefix = "delete_sub_"
)

// handleCommand runs a slash command. Every command except /cancel abandons
// the active flow first.
func (d *Dispatcher) handleCommand(ctx context.Context, ev Event) error {
	name := strings.ToLower(ev.Name)
	if name == "cancel" {
		return d.cancel(ctx, ev)
	}
	if d.machine.Cancel(ev.UserID) {
		log.FromContext(ctx).DebugContext(ctx, "Flow abandoned by command", "command", name)
	}

	switch name {
	case "start":
		return d.send(ctx, ev.ChatID, welcome(ev.FirstName), false, mainMenu())
	case "help":
		return d.send(ctx, ev.ChatID, msgHelp, false, mainMenu())
	case "add":
		return d.renderStep(ctx, ev.ChatID, d.machine.StartAddExpense(ev.UserID))
	case "budget":
		return d.budgetCommand(ctx, ev)
	case "stats":
		preset, err := core.ParsePreset(ev.Args)
		if err != nil {
			return d.send(ctx, ev.ChatID, msgStatsUsage, false, nil)
		}
		return d.stats(ctx, ev.UserID, ev.ChatID, preset)
	case "history":
		return d.history(ctx, ev)
	case "delete":
		return d.deleteMenu(ctx, ev)
	case "forecast":
		return d.forecast(ctx, ev)
	case "subs", "subscriptions":
		return d.subscriptions(ctx, ev)
	case "addsub":
		return d.addSubscription(ctx, ev)
	case "export":
		return d.send(ctx, ev.ChatID, msgExportMenu, true, exportKeyboard())
	}

	if strings.HasPrefix(name, deleteSubPrefix) {
		return d.deleteSubscription(ctx, ev, strings.TrimPrefix(name, deleteSubPrefix))
	}
	return d.send(ctx, ev.ChatID, msgUnknownCommand, false, nil)
}

// budgetCommand sets the budget in one shot, or starts the guided flow when
// no amount is given.
func (d *Dispatcher) budgetCommand(ctx context.Context, ev Event) error {
	arg := trimmed(ev.Args)
	if arg == "" {
		return d.renderStep(ctx, ev.ChatID, d.machine.StartSetBudget(ev.UserID))
	}
	limit, err := core.ParseLimit(arg)
	if err != nil {
		return d.send(ctx, ev.ChatID, msgBudgetUsage, false, nil)
	}
	if err := d.expenses.SetBudget(ctx, ev.UserID, limit); err != nil {
		return err
	}
	return d.send(ctx, ev.ChatID, budgetSaved(limit), true, nil)
}

func (d *Dispatcher) history(ctx context.Context, ev Event) error {
	expenses, err := d.expenses.RecentExpenses(ctx, ev.UserID, d.historyLimit)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return d.send(ctx, ev.ChatID, msgNoExpenses, false, nil)
	}
	return d.send(ctx, ev.ChatID, historyText(expenses), true, nil)
}

func (d *Dispatcher) deleteMenu(ctx context.Context, ev Event) error {
	expenses, err := d.expenses.RecentExpenses(ctx, ev.UserID, d.historyLimit)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return d.send(ctx, ev.ChatID, msgNothingToDelete, false, nil)
	}
	return d.send(ctx, ev.ChatID, msgPickDelete, false, deleteKeyboard(expenses))
}

func (d *Dispatcher) stats(ctx context.Context, userID, chatID int64, preset core.Preset) error {
	report, err := d.reports.Stats(ctx, userID, preset, d.now())
	if err != nil {
		return err
	}
	if err := d.send(ctx, chatID, statsText(report), !report.Summary.IsEmpty(), statsKeyboard()); err != nil {
		return err
	}
	if report.Summary.IsEmpty() {
		return nil
	}

	png, err := render.PieChart(report.Summary)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to render chart", log.FieldError, err)
		return nil
	}
	return d.transport.SendImage(ctx, File{ChatID: chatID, FileName: "chart.png", Caption: msgChartCaption, Data: png})
}

func (d *Dispatcher) forecast(ctx context.Context, ev Event) error {
	p, err := d.reports.Forecast(ctx, ev.UserID, d.now())
	if errors.Is(err, core.ErrInsufficientData) {
		return d.send(ctx, ev.ChatID, msgNotEnoughData, false, nil)
	}
	if err != nil {
		return err
	}
	return d.send(ctx, ev.ChatID, forecastText(p), true, nil)
}

func (d *Dispatcher) subscriptions(ctx context.Context, ev Event) error {
	subs, err := d.expenses.Subscriptions(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return d.send(ctx, ev.ChatID, msgNoSubscriptions, false, nil)
	}
	return d.send(ctx, ev.ChatID, subscriptionsText(subs), true, nil)
}

// addSubscription parses "/addsub Name With Spaces 9.99": the last word is
// the amount and everything before it the name.
func (d *Dispatcher) addSubscription(ctx context.Context, ev Event) error {
	fields := strings.Fields(ev.Args)
	if len(fields) < 2 {
		return d.send(ctx, ev.ChatID, msgAddSubUsage, false, nil)
	}
	amount, err := core.ParseAmount(fields[len(fields)-1])
	if err != nil {
		return d.send(ctx, ev.ChatID, "❌ Amount must be a positive number.\n"+msgAddSubUsage, false, nil)
	}
	sub, err := d.expenses.AddSubscription(ctx, ev.UserID, strings.Join(fields[:len(fields)-1], " "), amount)
	if err != nil {
		return err
	}
	return d.send(ctx, ev.ChatID, subscriptionAdded(sub), true, nil)
}

func (d *Dispatcher) deleteSubscription(ctx context.Context, ev Event, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return d.send(ctx, ev.ChatID, msgSubNotFound, false, nil)
	}
	err = d.expenses.DeleteSubscription(ctx, ev.UserID, id)
	if errors.Is(err, core.ErrNotFound) {
		return d.send(ctx, ev.ChatID, msgSubNotFound, false, nil)
	}
	if err != nil {
		return err
	}
	return d.send(ctx, ev.ChatID, msgSubRemoved, false, nil)
}

func (d *Dispatcher) handleCallback(ctx context.Context, ev Event) error {
	token := ev.Token
	switch {
	case token == cbDeleteCancel:
		if err := d.answer(ctx, ev, ""); err != nil {
			return err
		}
		return d.transport.EditMessage(ctx, ev.ChatID, ev.MessageRef, Reply{ChatID: ev.ChatID, Text: msgDeleteCancelled})

	case strings.HasPrefix(token, cbDeletePrefix):
		return d.deleteExpense(ctx, ev, strings.TrimPrefix(token, cbDeletePrefix))

	case strings.HasPrefix(token, cbStatsPrefix):
		preset, err := core.ParsePreset(strings.TrimPrefix(token, cbStatsPrefix))
		if err != nil {
			return d.answer(ctx, ev, msgUnknownAction)
		}
		if err := d.answer(ctx, ev, ""); err != nil {
			return err
		}
		return d.stats(ctx, ev.UserID, ev.ChatID, preset)

	case strings.HasPrefix(token, cbExportPrefix):
		return d.export(ctx, ev, strings.TrimPrefix(token, cbExportPrefix))
	}
	return d.answer(ctx, ev, msgUnknownAction)
}

// deleteExpense removes one of the caller's expenses. Ids owned by another
// user behave exactly like missing ids.
func (d *Dispatcher) deleteExpense(ctx context.Context, ev Event, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return d.answer(ctx, ev, msgUnknownAction)
	}

	err = d.expenses.DeleteExpense(ctx, ev.UserID, id)
	text := msgDeleted
	switch {
	case errors.Is(err, core.ErrNotFound):
		text = msgAlreadyDeleted
	case err != nil:
		return err
	default:
		log.FromContext(ctx).InfoContext(ctx, "Expense deleted",
			log.NewFields().WithOperation(log.OpDelete).WithExpenseID(id).ToSlice()...)
	}

	if err := d.answer(ctx, ev, text); err != nil {
		return err
	}
	return d.transport.EditMessage(ctx, ev.ChatID, ev.MessageRef, Reply{ChatID: ev.ChatID, Text: text})
}

func (d *Dispatcher) export(ctx context.Context, ev Event, format string) error {
	if format != formatPDF && format != formatXLSX && format != formatCSV {
		return d.answer(ctx, ev, msgUnknownAction)
	}
	if err := d.answer(ctx, ev, msgGenerating); err != nil {
		return err
	}

	expenses, err := d.expenses.AllExpenses(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return d.send(ctx, ev.ChatID, msgNothingToExport, false, nil)
	}

	now := d.now()
	var data []byte
	switch format {
	case formatPDF:
		data, err = render.ReceiptPDF(ev.FirstName, expenses, now)
	case formatXLSX:
		data, err = render.Spreadsheet(expenses)
	default:
		data, err = render.CSV(expenses)
	}
	if err != nil {
		return err
	}

	log.FromContext(ctx).WithFields(log.NewFields().WithOperation(log.OpExport)).
		InfoContext(ctx, "Export generated", "format", format, "count", len(expenses))
	return d.transport.SendDocument(ctx, File{
		ChatID:   ev.ChatID,
		FileName: exportFileName(format, ev.UserID, now),
		Caption:  exportCaption(format),
		Data:     data,
	})
}

func (d *Dispatcher) handleDocument(ctx context.Context, ev Event) error {
	if !importer.Supported(ev.FileName) {
		return d.send(ctx, ev.ChatID, msgImportUnsupported, false, nil)
	}
	if err := d.send(ctx, ev.ChatID, msgImporting, false, nil); err != nil {
		return err
	}

	data := ev.Data
	if data == nil && ev.Load != nil {
		var err error
		if data, err = ev.Load(ctx); err != nil {
			if errors.Is(err, importer.ErrTooLarge) {
				return d.send(ctx, ev.ChatID, msgImportTooLarge, false, nil)
			}
			return fmt.Errorf("download upload: %w", err)
		}
	}

	res, err := d.decoder.Decode(ev.FileName, data)
	switch {
	case errors.Is(err, importer.ErrTooLarge):
		return d.send(ctx, ev.ChatID, msgImportTooLarge, false, nil)
	case errors.Is(err, importer.ErrMissingColumns):
		return d.send(ctx, ev.ChatID, msgImportColumns, false, nil)
	case err != nil:
		log.FromContext(ctx).DebugContext(ctx, "Unreadable import", log.FieldError, err)
		return d.send(ctx, ev.ChatID, msgImportInvalid, false, nil)
	}
	if len(res.Rows) == 0 {
		return d.send(ctx, ev.ChatID, msgImportEmpty, false, nil)
	}

	n, err := d.expenses.ImportExpenses(ctx, ev.UserID, res.Expenses())
	if err != nil {
		return err
	}
	log.FromContext(ctx).WithFields(log.NewFields().WithOperation(log.OpImport)).
		InfoContext(ctx, "Import finished", "imported", n, "total", res.Total, "skipped", len(res.Skipped))
	return d.send(ctx, ev.ChatID, importDone(n, res.Total, len(res.Skipped)), true, nil)
}

func (d *Dispatcher) answer(ctx context.Context, ev Event, text string) error {
	if ev.CallbackID == "" {
		return nil
	}
	return d.transport.AnswerCallback(ctx, ev.CallbackID, text)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// validationMessage strips the sentinel prefix from a validation error.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := core.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
