package bot

import (
	"context"
	"sync"
)

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// userQueue orders work per user. Each reservation waits for the previous
// reservation of the same user to be released, so events run one at a time
// and in reservation order. Entries are reference counted and dropped when
// a user has nothing pending.
type userQueue struct {
	mu   sync.Mutex
	keys map[int64]*queueEntry
}

type queueEntry struct {
	tail chan struct{}
	refs int
}

func newUserQueue() *userQueue {
	return &userQueue{keys: make(map[int64]*queueEntry)}
}

// turn is a reserved slot in a user's queue.
type turn struct {
	q     *userQueue
	key   int64
	entry *queueEntry
	prev  <-chan struct{}
	done  chan struct{}
	once  sync.Once
}

// reserve takes the next slot for key without blocking.
func (q *userQueue) reserve(key int64) *turn {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.keys[key]
	if !ok {
		e = &queueEntry{}
		q.keys[key] = e
	}
	prev := e.tail
	if prev == nil {
		prev = closedChan
	}
	done := make(chan struct{})
	e.tail = done
	e.refs++

	return &turn{q: q, key: key, entry: e, prev: prev, done: done}
}

// wait blocks until every earlier turn has been released. If ctx ends first
// the turn releases itself once its predecessor finishes and the caller must
// not call release.
func (t *turn) wait(ctx context.Context) error {
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		go func() {
			<-t.prev
			t.release()
		}()
		return ctx.Err()
	}
}

func (t *turn) release() {
	t.once.Do(func() {
		close(t.done)
		t.q.mu.Lock()
		t.entry.refs--
		if t.entry.refs == 0 {
			delete(t.q.keys, t.key)
		}
		t.q.mu.Unlock()
	})
}

func (q *userQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}
