package events

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBus delivers events to subscribers in the same process. It is used
// when no Redis address is configured.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus closed")
	}
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers h until ctx is done.
func (b *MemoryBus) Subscribe(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus closed")
	}
	idx := len(b.handlers)
	b.handlers = append(b.handlers, h)

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = func(Event) {}
		}
	}()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
