// Package telegram adapts the Telegram Bot API to the bot dispatcher.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/bot"
	"fintrack/internal/importer"
	"fintrack/internal/log"
)

const (
	pollTimeout     = 60 // seconds
	downloadTimeout = 30 * time.Second
	maxInFlight     = 64
)

// api is the part of tgbotapi.BotAPI the client uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client implements bot.Transport over the Telegram Bot API. Private chats
// share their id with the user, so Notify sends to the user id directly.
type Client struct {
	api        api
	httpClient *http.Client
	maxUpload  int64
	logger     *log.Logger
}

var _ bot.Transport = (*Client)(nil)

// New authenticates with token. maxUpload caps document downloads.
func New(token string, maxUpload int64, logger *log.Logger) (*Client, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	c := newClient(botAPI, maxUpload, logger)
	c.logger.Info("Authorized on Telegram", "username", botAPI.Self.UserName)
	return c, nil
}

func newClient(a api, maxUpload int64, logger *log.Logger) *Client {
	if maxUpload <= 0 {
		maxUpload = importer.DefaultMaxBytes
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		api:        a,
		httpClient: &http.Client{Timeout: downloadTimeout},
		maxUpload:  maxUpload,
		logger:     logger.WithComponent(log.ComponentTelegram),
	}
}

func (c *Client) SendText(_ context.Context, r bot.Reply) error {
	msg := tgbotapi.NewMessage(r.ChatID, r.Text)
	if r.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if r.Keyboard != nil {
		msg.ReplyMarkup = markup(r.Keyboard)
	}
	_, err := c.api.Send(msg)
	return err
}

func (c *Client) SendDocument(_ context.Context, f bot.File) error {
	doc := tgbotapi.NewDocument(f.ChatID, tgbotapi.FileBytes{Name: f.FileName, Bytes: f.Data})
	doc.Caption = f.Caption
	_, err := c.api.Send(doc)
	return err
}

func (c *Client) SendImage(_ context.Context, f bot.File) error {
	photo := tgbotapi.NewPhoto(f.ChatID, tgbotapi.FileBytes{Name: f.FileName, Bytes: f.Data})
	photo.Caption = f.Caption
	_, err := c.api.Send(photo)
	return err
}

func (c *Client) EditMessage(_ context.Context, chatID int64, ref int, r bot.Reply) error {
	edit := tgbotapi.NewEditMessageText(chatID, ref, r.Text)
	if r.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	if r.Keyboard != nil && r.Keyboard.Inline {
		kb := inlineMarkup(r.Keyboard)
		edit.ReplyMarkup = &kb
	}
	_, err := c.api.Send(edit)
	return err
}

func (c *Client) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// Notify sends a plain message to a user's private chat.
func (c *Client) Notify(ctx context.Context, userID int64, text string) error {
	return c.SendText(ctx, bot.Reply{ChatID: userID, Text: text})
}

// Handler processes one event. bot.Dispatcher.Enqueue satisfies it.
type Handler interface {
	Enqueue(ev bot.Event) func(ctx context.Context) error
}

// Run long-polls for updates until ctx ends. Each update is queued on
// arrival and handled on its own goroutine; the handler keeps a single user's
// events in order.
func (c *Client) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	updates := c.api.GetUpdatesChan(cfg)

	var g errgroup.Group
	g.SetLimit(maxInFlight)

	c.logger.InfoContext(ctx, "Polling for updates")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			c.logger.InfoContext(ctx, "Waiting for in-flight updates")
			_ = g.Wait()
			return nil
		case u, ok := <-updates:
			if !ok {
				_ = g.Wait()
				return errors.New("telegram update channel closed")
			}
			ev, ok := c.ToEvent(u)
			if !ok {
				continue
			}
			run := h.Enqueue(ev)
			g.Go(func() error {
				if err := run(ctx); err != nil && ctx.Err() == nil {
					c.logger.WarnContext(ctx, "Failed to handle update",
						log.FieldUserID, ev.UserID, log.FieldError, err)
				}
				return nil
			})
		}
	}
}

// ToEvent converts an update. Updates the bot does not react to report false.
func (c *Client) ToEvent(u tgbotapi.Update) (bot.Event, bool) {
	if q := u.CallbackQuery; q != nil {
		if q.From == nil {
			return bot.Event{}, false
		}
		ev := bot.Event{
			Kind:       bot.CallbackPressed,
			UserID:     q.From.ID,
			ChatID:     q.From.ID,
			FirstName:  q.From.FirstName,
			Token:      q.Data,
			CallbackID: q.ID,
		}
		if q.Message != nil {
			ev.MessageRef = q.Message.MessageID
			if q.Message.Chat != nil {
				ev.ChatID = q.Message.Chat.ID
			}
		}
		return ev, true
	}

	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{UserID: m.From.ID, ChatID: m.Chat.ID, FirstName: m.From.FirstName}

	switch {
	case m.IsCommand():
		ev.Kind = bot.CommandInvoked
		ev.Name = m.Command()
		ev.Args = m.CommandArguments()
	case m.Document != nil:
		ev.Kind = bot.DocumentUploaded
		ev.FileName = m.Document.FileName
		fileID, size := m.Document.FileID, int64(m.Document.FileSize)
		ev.Load = func(ctx context.Context) ([]byte, error) {
			return c.download(ctx, fileID, size)
		}
	case strings.TrimSpace(m.Text) != "":
		ev.Kind = bot.TextMessage
		ev.Text = m.Text
		if bot.IsMenuLabel(strings.TrimSpace(m.Text)) {
			ev.Kind = bot.ButtonPressed
		}
	default:
		return bot.Event{}, false
	}
	return ev, true
}

// download fetches an uploaded file, refusing anything above maxUpload.
func (c *Client) download(ctx context.Context, fileID string, size int64) ([]byte, error) {
	if size > c.maxUpload {
		return nil, importer.ErrTooLarge
	}
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > c.maxUpload {
		return nil, importer.ErrTooLarge
	}
	return data, nil
}

func markup(kb *bot.Keyboard) any {
	switch {
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(true)
	case kb.Inline:
		return inlineMarkup(kb)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewKeyboardButton(b.Text))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func inlineMarkup(kb *bot.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
