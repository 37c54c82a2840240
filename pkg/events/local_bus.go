package events

import (
	"context"
	"log"
	"sync"
)

// LocalBus delivers events to in-process handlers. It stands in for NATS on a
// single node so notifications still flow without a broker. Subjects are
// ignored; every handler sees every event.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Subscribe(_ context.Context, _ string, _ string, handler Handler) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	return nil
}

// Publish hands the event to each handler on its own goroutine.
func (b *LocalBus) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(context.Background(), event); err != nil {
				log.Printf("local event handler failed for %s: %v", event.EventType(), err)
			}
		}(h)
	}
	return nil
}

// Wait blocks until every in-flight delivery has finished.
func (b *LocalBus) Wait() {
	b.wg.Wait()
}
