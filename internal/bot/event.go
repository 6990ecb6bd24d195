// Package bot routes inbound chat events to the conversation machine, the
// quick-capture parser and the command handlers, and renders the replies.
package bot

import "context"

// EventKind is the shape of an inbound event.
type EventKind int

const (
	CommandInvoked EventKind = iota + 1
	TextMessage
	ButtonPressed
	CallbackPressed
	DocumentUploaded
)

func (k EventKind) String() string {
	switch k {
	case CommandInvoked:
		return "command"
	case TextMessage:
		return "text"
	case ButtonPressed:
		return "button"
	case CallbackPressed:
		return "callback"
	case DocumentUploaded:
		return "document"
	default:
		return "unknown"
	}
}

// Event is one inbound message from the transport.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	FirstName string

	// Name and Args are set for commands; Name has no leading slash.
	Name string
	Args string

	// Text is the message body or the pressed button label.
	Text string

	// Token is the callback payload, CallbackID the handle used to
	// acknowledge it and MessageRef the message the button belongs to.
	Token      string
	CallbackID string
	MessageRef int

	FileName string
	Data     []byte
	// Load fetches Data on demand when the transport defers the download.
	Load func(ctx context.Context) ([]byte, error)
}

// Button is a keyboard key. Data is set only on inline buttons.
type Button struct {
	Text string
	Data string
}

// Keyboard is attached to a reply. Remove hides a previous reply keyboard.
type Keyboard struct {
	Rows   [][]Button
	Inline bool
	Remove bool
}

// Reply is an outbound text message.
type Reply struct {
	ChatID   int64
	Text     string
	HTML     bool
	Keyboard *Keyboard
}

// File is an outbound document or image.
type File struct {
	ChatID   int64
	FileName string
	Caption  string
	Data     []byte
}

// Transport delivers replies to the chat service.
type Transport interface {
	SendText(ctx context.Context, r Reply) error
	SendDocument(ctx context.Context, f File) error
	SendImage(ctx context.Context, f File) error
	EditMessage(ctx context.Context, chatID int64, ref int, r Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
