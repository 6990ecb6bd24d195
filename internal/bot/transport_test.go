package bot

import (
	"context"
	"sync"
)

type edit struct {
	ChatID int64
	Ref    int
	Reply  Reply
}

type answer struct {
	ID   string
	Text string
}

// fakeTransport records everything the dispatcher sends.
type fakeTransport struct {
	mu        sync.Mutex
	texts     []Reply
	documents []File
	images    []File
	edits     []edit
	answers   []answer
	sendErr   error
}

func (f *fakeTransport) SendText(_ context.Context, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, r)
	return nil
}

func (f *fakeTransport) SendDocument(_ context.Context, file File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, file)
	return nil
}

func (f *fakeTransport) SendImage(_ context.Context, file File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, file)
	return nil
}

func (f *fakeTransport) EditMessage(_ context.Context, chatID int64, ref int, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit{ChatID: chatID, Ref: ref, Reply: r})
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer{ID: id, Text: text})
	return nil
}

func (f *fakeTransport) last() Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return Reply{}
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}
