// Package worker reacts to record events published by the bot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
)

const (
	// DefaultMaxAttempts bounds deliveries of one event before it is
	// dead-lettered.
	DefaultMaxAttempts = 5

	progressSize = 10000
	progressTTL  = 24 * time.Hour
)

// EventHandler is one reaction to a record event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev amqp.Event) error
}

// Chain runs every handler for an event. A handler that succeeded is not run
// again when the event is redelivered, so one failing handler cannot repeat
// another's side effects. After maxAttempts failed deliveries the event is
// discarded to the dead-letter queue.
type Chain struct {
	handlers    []EventHandler
	maxAttempts int
	done        *cache.LRUCache[progressKey, struct{}]
	attempts    *cache.LRUCache[uuid.UUID, int]
}

// progressKey marks one handler as finished with one event.
type progressKey struct {
	event   uuid.UUID
	handler int
}

func NewChain(maxAttempts int, handlers ...EventHandler) *Chain {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Chain{
		handlers:    handlers,
		maxAttempts: maxAttempts,
		done:        cache.NewLRUCache[progressKey, struct{}](progressSize, progressTTL),
		attempts:    cache.NewLRUCache[uuid.UUID, int](progressSize, progressTTL),
	}
}

// Caches exposes the progress caches so a cache.Manager can sweep them.
func (c *Chain) Caches() []cache.Cleaner {
	return []cache.Cleaner{c.done, c.attempts}
}

// Handle is the consumer callback. Its error requeues the event unless it
// wraps amqp.ErrDiscard. Events without an id cannot be tracked and run
// every handler on each delivery.
func (c *Chain) Handle(ctx context.Context, ev amqp.Event) error {
	tracked := ev.ID != uuid.Nil

	var errs []error
	for i, h := range c.handlers {
		key := progressKey{event: ev.ID, handler: i}
		if tracked {
			if _, ok := c.done.Get(key); ok {
				continue
			}
		}
		if err := h.HandleEvent(ctx, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		if tracked {
			c.done.Set(key, struct{}{})
		}
	}
	if len(errs) == 0 {
		if tracked {
			c.attempts.Delete(ev.ID)
		}
		return nil
	}
	if !tracked {
		return errors.Join(errs...)
	}

	n, _ := c.attempts.Get(ev.ID)
	n++
	c.attempts.Set(ev.ID, n)
	err := errors.Join(errs...)
	if n >= c.maxAttempts {
		slog.ErrorContext(ctx, "Giving up on event",
			"event_id", ev.ID,
			"type", ev.Type,
			"attempts", n,
			"error", err)
		return fmt.Errorf("%w after %d attempts: %w", amqp.ErrDiscard, n, err)
	}
	return err
}
