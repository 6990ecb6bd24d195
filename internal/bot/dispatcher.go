package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/conversation"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Expenses is the write side the dispatcher needs.
type Expenses interface {
	conversation.Recorder
	ImportExpenses(ctx context.Context, userID int64, rows []core.Expense) (int, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error)
	AllExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	AddSubscription(ctx context.Context, userID int64, name string, amount core.Money) (core.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, id int64) error
	Subscriptions(ctx context.Context, userID int64) ([]core.Subscription, error)
}

// Reports is the read side the dispatcher needs.
type Reports interface {
	Stats(ctx context.Context, userID int64, preset core.Preset, now time.Time) (services.StatsReport, error)
	Forecast(ctx context.Context, userID int64, now time.Time) (insights.Projection, error)
}

// Options tunes the dispatcher.
type Options struct {
	Categories     []string
	HistoryLimit   int
	MaxImportBytes int64
	Now            func() time.Time
}

// Dispatcher handles events. Events of one user run one at a time in the
// order they were enqueued; different users run concurrently.
type Dispatcher struct {
	transport Transport
	machine   *conversation.Machine
	expenses  Expenses
	reports   Reports
	decoder   *importer.Decoder
	logger    *log.Logger

	categories   []string
	historyLimit int
	now          func() time.Time

	queue *userQueue
}

func NewDispatcher(t Transport, m *conversation.Machine, e Expenses, r Reports, opts Options, logger *log.Logger) *Dispatcher {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Dispatcher{
		transport:    t,
		machine:      m,
		expenses:     e,
		reports:      r,
		decoder:      importer.NewDecoder(opts.MaxImportBytes),
		logger:       logger.WithComponent(log.ComponentBot),
		categories:   opts.Categories,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
		queue:        newUserQueue(),
	}
}

// Handle processes ev after every earlier event of the same user.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	return d.Enqueue(ev)(ctx)
}

// Enqueue reserves ev's place in its user's queue without blocking and
// returns the function that processes it. Call the returned function exactly
// once, from any goroutine.
func (d *Dispatcher) Enqueue(ev Event) func(ctx context.Context) error {
	t := d.queue.reserve(ev.UserID)
	return func(ctx context.Context) error {
		if err := t.wait(ctx); err != nil {
			return err
		}
		defer t.release()
		return d.process(ctx, ev)
	}
}

// process runs one event and turns every failure into a reply. Only
// transport errors are returned.
func (d *Dispatcher) process(ctx context.Context, ev Event) (err error) {
	logger := d.logger.WithFields(log.NewFields().WithUser(ev.UserID)).With(log.FieldChatID, ev.ChatID, "event", ev.Kind.String())
	ctx = log.NewContext(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while handling event", "panic", fmt.Sprint(r))
			err = d.send(ctx, ev.ChatID, msgInternal, false, nil)
		}
	}()

	if herr := d.route(ctx, ev); herr != nil {
		return d.fail(ctx, ev, herr)
	}
	return nil
}

func (d *Dispatcher) route(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case CommandInvoked:
		return d.handleCommand(ctx, ev)
	case TextMessage, ButtonPressed:
		return d.handleText(ctx, ev)
	case CallbackPressed:
		return d.handleCallback(ctx, ev)
	case DocumentUploaded:
		return d.handleDocument(ctx, ev)
	default:
		log.FromContext(ctx).DebugContext(ctx, "Ignoring unknown event kind")
		return nil
	}
}

// handleText applies the routing order for free text: cancel, menu buttons,
// the active flow, quick capture, then silence.
func (d *Dispatcher) handleText(ctx context.Context, ev Event) error {
	text := trimmed(ev.Text)

	if isCancelText(text, d.machine.State(ev.UserID)) {
		return d.cancel(ctx, ev)
	}
	if IsMenuLabel(text) {
		d.machine.Cancel(ev.UserID)
		return d.handleMenu(ctx, ev, text)
	}
	if d.machine.Active(ev.UserID) {
		step, err := d.machine.Handle(ctx, ev.UserID, text)
		if err != nil {
			return err
		}
		return d.renderStep(ctx, ev.ChatID, step)
	}
	if c, ok := conversation.ParseQuickCapture(text); ok {
		e, err := d.expenses.AddExpense(ctx, ev.UserID, c.Amount, c.Category, "")
		if err != nil {
			return err
		}
		log.FromContext(ctx).InfoContext(ctx, "Quick capture saved",
			log.NewFields().WithExpense(e.ID, e.Amount.Cents, e.Category).ToSlice()...)
		return d.send(ctx, ev.ChatID, expenseSaved(e), false, mainMenu())
	}

	log.FromContext(ctx).DebugContext(ctx, "Ignoring unmatched text")
	return nil
}

func (d *Dispatcher) handleMenu(ctx context.Context, ev Event, label string) error {
	switch label {
	case BtnAddExpense:
		return d.renderStep(ctx, ev.ChatID, d.machine.StartAddExpense(ev.UserID))
	case BtnBudget:
		return d.renderStep(ctx, ev.ChatID, d.machine.StartSetBudget(ev.UserID))
	case BtnStats:
		return d.stats(ctx, ev.UserID, ev.ChatID, core.PresetCurrentMonth)
	case BtnHistory:
		return d.history(ctx, ev)
	case BtnDelete:
		return d.deleteMenu(ctx, ev)
	case BtnForecast:
		return d.forecast(ctx, ev)
	case BtnSubscriptions:
		return d.subscriptions(ctx, ev)
	case BtnExport:
		return d.send(ctx, ev.ChatID, msgExportMenu, true, exportKeyboard())
	}
	return nil
}

func (d *Dispatcher) cancel(ctx context.Context, ev Event) error {
	if d.machine.Cancel(ev.UserID) {
		log.FromContext(ctx).DebugContext(ctx, "Flow cancelled")
		return d.send(ctx, ev.ChatID, msgCancelled, false, mainMenu())
	}
	return d.send(ctx, ev.ChatID, msgNothingToCancel, false, mainMenu())
}

func (d *Dispatcher) renderStep(ctx context.Context, chatID int64, step conversation.Step) error {
	switch step.Kind {
	case conversation.PromptAmount:
		return d.send(ctx, chatID, msgPromptAmount, false, removeKeyboard())
	case conversation.InvalidAmount:
		return d.send(ctx, chatID, msgInvalidAmount, false, nil)
	case conversation.PromptCategory:
		return d.send(ctx, chatID, msgPromptCategory, false, categoryKeyboard(d.categories))
	case conversation.PromptCustomCategory:
		return d.send(ctx, chatID, msgPromptCustom, false, removeKeyboard())
	case conversation.EmptyCategory:
		return d.send(ctx, chatID, msgEmptyCategory, false, nil)
	case conversation.CategoryTooLong:
		return d.send(ctx, chatID, categoryTooLong(), false, nil)
	case conversation.ExpenseSaved:
		return d.send(ctx, chatID, expenseSaved(step.Expense), false, mainMenu())
	case conversation.PromptBudget:
		return d.send(ctx, chatID, msgPromptBudget, false, removeKeyboard())
	case conversation.InvalidBudget:
		return d.send(ctx, chatID, msgInvalidBudget, false, nil)
	case conversation.BudgetSaved:
		return d.send(ctx, chatID, budgetSaved(step.Budget), true, mainMenu())
	}
	return nil
}

// fail converts a handler error into a reply. Storage outages are the only
// errors logged at error level.
func (d *Dispatcher) fail(ctx context.Context, ev Event, err error) error {
	logger := log.FromContext(ctx)

	var text string
	switch {
	// Drivers wrap a cancelled query as unavailable storage, so cancellation
	// is checked first.
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.DebugContext(ctx, "Event aborted", log.NewFields().WithError(err).ToSlice()...)
		return nil
	case errors.Is(err, core.ErrStorageUnavailable):
		logger.ErrorContext(ctx, "Storage unavailable", log.NewFields().WithError(err).ToSlice()...)
		text = msgStorageDown
	case errors.Is(err, core.ErrNotFound):
		logger.DebugContext(ctx, "Record not found", log.FieldError, err)
		text = msgAlreadyDeleted
	case errors.Is(err, core.ErrValidation):
		logger.DebugContext(ctx, "Rejected input", log.FieldError, err)
		text = "❌ " + capitalize(validationMessage(err))
	default:
		logger.WarnContext(ctx, "Event failed", log.NewFields().WithError(err).ToSlice()...)
		text = msgInternal
	}

	if ev.Kind == CallbackPressed && ev.CallbackID != "" {
		if aerr := d.transport.AnswerCallback(ctx, ev.CallbackID, ""); aerr != nil {
			logger.DebugContext(ctx, "Failed to answer callback", log.FieldError, aerr)
		}
	}
	return d.send(ctx, ev.ChatID, text, false, nil)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, html bool, kb *Keyboard) error {
	if err := d.transport.SendText(ctx, Reply{ChatID: chatID, Text: text, HTML: html, Keyboard: kb}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
