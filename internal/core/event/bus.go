package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Handler errors are logged and never reach the publisher.
type Handler func(ctx context.Context, event Event) error

type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())
}

// NewBus creates an in-process event bus. Handlers run synchronously on the
// publishing goroutine, in subscription order.
func NewBus() Bus {
	return &inProcessBus{
		subscribers: make(map[EventType][]subscriberEntry),
	}
}

type subscriberEntry struct {
	id      uint64
	handler Handler
}

type inProcessBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscriberEntry
	nextID      uint64
}

func (b *inProcessBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := slices.Clone(b.subscribers[event.Type])
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			log.Error().Err(err).
				Str("event", string(event.Type)).
				Msg("event handler error")
		}
	}
	return nil
}

func (b *inProcessBus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriberEntry{
		id:      id,
		handler: handler,
	})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subscribers[eventType] = slices.DeleteFunc(b.subscribers[eventType], func(s subscriberEntry) bool {
			return s.id == id
		})
	}
}

var (
	jobEvents   = []EventType{EventJobCreated, EventJobCompleted, EventJobFailed}
	fileEvents  = []EventType{EventFileServed, EventFileRejected}
	sweepEvents = []EventType{EventSweepRemoved}
)

// OnJob subscribes fn to job events of the given types, or to every job event
// when types is empty.
func OnJob(b Bus, fn func(context.Context, EventType, JobEvent) error, types ...EventType) func() {
	return subscribeTyped(b, orDefault(types, jobEvents), fn)
}

// OnFile subscribes fn to retrieval events.
func OnFile(b Bus, fn func(context.Context, EventType, FileEvent) error, types ...EventType) func() {
	return subscribeTyped(b, orDefault(types, fileEvents), fn)
}

// OnSweep subscribes fn to retention events.
func OnSweep(b Bus, fn func(context.Context, SweepEvent) error) func() {
	return subscribeTyped(b, sweepEvents, func(ctx context.Context, _ EventType, p SweepEvent) error {
		return fn(ctx, p)
	})
}

// subscribeTyped unwraps the payload as T. Events carrying another payload
// type are reported to the bus as handler errors and never reach fn.
func subscribeTyped[T any](b Bus, types []EventType, fn func(context.Context, EventType, T) error) func() {
	unsubscribes := make([]func(), 0, len(types))
	for _, typ := range types {
		unsubscribes = append(unsubscribes, b.Subscribe(typ, func(ctx context.Context, e Event) error {
			p, ok := e.Payload.(T)
			if !ok {
				return fmt.Errorf("event %s: unexpected payload %T", e.Type, e.Payload)
			}
			return fn(ctx, e.Type, p)
		}))
	}
	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}

func orDefault(types, def []EventType) []EventType {
	if len(types) == 0 {
		return def
	}
	return types
}
