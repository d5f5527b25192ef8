package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
)

// Notifier fans registry events out to in-process subscribers. Delivery to a
// subscriber is best-effort: a full subscriber channel drops the event rather
// than blocking the emitting operation.
type Notifier struct {
	mutex       sync.Mutex
	nextID      int
	subscribers map[int]chan model.Event
	bufferSize  int
}

// Notify implements port.Notifier.
func (n *Notifier) Notify(ctx context.Context, event model.Event) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	slog.DebugContext(ctx, "notifying event", slog.String("event", event.EventName()))

	for id, ch := range n.subscribers {
		select {
		case ch <- event:
		default:
			slog.WarnContext(ctx, "subscriber channel full, dropping event",
				slog.Int("subscriber", id),
				slog.String("event", event.EventName()),
			)
		}
	}
}

// Subscribe registers a new subscriber and returns its channel with a
// function unregistering it.
func (n *Notifier) Subscribe() (<-chan model.Event, func()) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan model.Event, n.bufferSize)
	n.subscribers[id] = ch

	unsubscribe := func() {
		n.mutex.Lock()
		defer n.mutex.Unlock()

		if _, exists := n.subscribers[id]; !exists {
			return
		}

		delete(n.subscribers, id)
		close(ch)
	}

	return ch, unsubscribe
}

func NewNotifier(bufferSize int) *Notifier {
	return &Notifier{
		subscribers: map[int]chan model.Event{},
		bufferSize:  bufferSize,
	}
}

var _ port.Notifier = &Notifier{}
