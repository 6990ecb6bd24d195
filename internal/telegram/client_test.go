package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/bot"
	"fintrack/internal/importer"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fileURL  string
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) { return f.fileURL, nil }

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, FirstName: "Ada"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
}

func commandMessage(userID int64, text string) *tgbotapi.Message {
	m := textMessage(userID, text)
	cmdLen := len(strings.Fields(text)[0])
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return m
}

func TestToEvent(t *testing.T) {
	c := newClient(&fakeAPI{}, 0, nil)

	t.Run("command", func(t *testing.T) {
		ev, ok := c.ToEvent(tgbotapi.Update{Message: commandMessage(7, "/budget 500")})
		require.True(t, ok)
		assert.Equal(t, bot.CommandInvoked, ev.Kind)
		assert.Equal(t, "budget", ev.Name)
		assert.Equal(t, "500", ev.Args)
		assert.Equal(t, int64(7), ev.UserID)
	})

	t.Run("delete subscription command", func(t *testing.T) {
		ev, ok := c.ToEvent(tgbotapi.Update{Message: commandMessage(7, "/delete_sub_12")})
		require.True(t, ok)
		assert.Equal(t, "delete_sub_12", ev.Name)
	})

	t.Run("menu button", func(t *testing.T) {
		ev, ok := c.ToEvent(tgbotapi.Update{Message: textMessage(7, bot.BtnStats)})
		require.True(t, ok)
		assert.Equal(t, bot.ButtonPressed, ev.Kind)
	})

	t.Run("free text", func(t *testing.T) {
		ev, ok := c.ToEvent(tgbotapi.Update{Message: textMessage(7, "15.5 Coffee")})
		require.True(t, ok)
		assert.Equal(t, bot.TextMessage, ev.Kind)
		assert.Equal(t, "Ada", ev.FirstName)
	})

	t.Run("callback", func(t *testing.T) {
		ev, ok := c.ToEvent(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: 7},
			Message: textMessage(7, "Select an expense to delete:"),
			Data:    "del_3",
		}})
		require.True(t, ok)
		assert.Equal(t, bot.CallbackPressed, ev.Kind)
		assert.Equal(t, "del_3", ev.Token)
		assert.Equal(t, "cb1", ev.CallbackID)
		assert.Equal(t, 10, ev.MessageRef)
	})

	t.Run("document", func(t *testing.T) {
		m := textMessage(7, "")
		m.Document = &tgbotapi.Document{FileID: "f1", FileName: "data.csv", FileSize: 10}
		ev, ok := c.ToEvent(tgbotapi.Update{Message: m})
		require.True(t, ok)
		assert.Equal(t, bot.DocumentUploaded, ev.Kind)
		assert.Equal(t, "data.csv", ev.FileName)
		assert.NotNil(t, ev.Load)
	})

	t.Run("ignored", func(t *testing.T) {
		_, ok := c.ToEvent(tgbotapi.Update{Message: textMessage(7, "   ")})
		assert.False(t, ok)
		_, ok = c.ToEvent(tgbotapi.Update{})
		assert.False(t, ok)
	})
}

func TestSendTextRendersKeyboards(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, 0, nil)
	ctx := context.Background()

	require.NoError(t, c.SendText(ctx, bot.Reply{ChatID: 1, Text: "<b>hi</b>", HTML: true,
		Keyboard: &bot.Keyboard{Rows: [][]bot.Button{{{Text: "A"}, {Text: "B"}}}}}))
	require.NoError(t, c.SendText(ctx, bot.Reply{ChatID: 1, Text: "pick",
		Keyboard: &bot.Keyboard{Inline: true, Rows: [][]bot.Button{{{Text: "X", Data: "del_1"}}}}}))
	require.NoError(t, c.SendText(ctx, bot.Reply{ChatID: 1, Text: "amount?", Keyboard: &bot.Keyboard{Remove: true}}))

	require.Len(t, api.sent, 3)
	first := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeHTML, first.ParseMode)
	reply := first.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.Equal(t, "B", reply.Keyboard[0][1].Text)

	inline := api.sent[1].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.NotNil(t, inline.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "del_1", *inline.InlineKeyboard[0][0].CallbackData)

	_, ok := api.sent[2].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)
}

func TestFilesEditsAndCallbacks(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, 0, nil)
	ctx := context.Background()

	require.NoError(t, c.SendDocument(ctx, bot.File{ChatID: 1, FileName: "r.pdf", Caption: "receipt", Data: []byte("%PDF")}))
	require.NoError(t, c.SendImage(ctx, bot.File{ChatID: 1, FileName: "c.png", Data: []byte("png")}))
	require.NoError(t, c.EditMessage(ctx, 1, 42, bot.Reply{Text: "done"}))
	require.NoError(t, c.AnswerCallback(ctx, "cb", "ok"))
	require.NoError(t, c.Notify(ctx, 9, "alert"))

	require.Len(t, api.sent, 4)
	assert.Equal(t, "receipt", api.sent[0].(tgbotapi.DocumentConfig).Caption)
	assert.IsType(t, tgbotapi.PhotoConfig{}, api.sent[1])
	assert.Equal(t, 42, api.sent[2].(tgbotapi.EditMessageTextConfig).MessageID)
	assert.Equal(t, int64(9), api.sent[3].(tgbotapi.MessageConfig).ChatID)
	require.Len(t, api.requests, 1)
	assert.Equal(t, "cb", api.requests[0].(tgbotapi.CallbackConfig).CallbackQueryID)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("amount,category\n1,food\n"))
	}))
	defer srv.Close()

	c := newClient(&fakeAPI{fileURL: srv.URL}, 64, nil)

	data, err := c.download(context.Background(), "f", 10)
	require.NoError(t, err)
	assert.Contains(t, string(data), "food")

	_, err = c.download(context.Background(), "f", 1000)
	assert.ErrorIs(t, err, importer.ErrTooLarge)

	small := newClient(&fakeAPI{fileURL: srv.URL}, 8, nil)
	_, err = small.download(context.Background(), "f", 0)
	assert.ErrorIs(t, err, importer.ErrTooLarge)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []bot.Event
}

func (h *recordingHandler) Enqueue(ev bot.Event) func(context.Context) error {
	return func(context.Context) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, ev)
		return nil
	}
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestRunDispatchesUntilCancelled(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 3)}
	c := newClient(api, 0, nil)
	h := &recordingHandler{}

	api.updates <- tgbotapi.Update{Message: textMessage(1, "10 Food")}
	api.updates <- tgbotapi.Update{Message: textMessage(2, "   ")}
	api.updates <- tgbotapi.Update{Message: commandMessage(3, "/start")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, h) }()

	assert.Eventually(t, func() bool { return h.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}
