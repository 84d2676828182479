package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalBus is an in-process Bus for single-instance deployments and tests.
type LocalBus struct {
	mu   sync.Mutex
	subs []chan ChangeEvent
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Publish delivers the event to every subscriber. Delivery is best effort:
// a subscriber that stopped draining its channel is skipped.
func (b *LocalBus) Publish(_ context.Context, event ChangeEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered subscriber channel that is closed when ctx
// is cancelled.
func (b *LocalBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent, 64)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
