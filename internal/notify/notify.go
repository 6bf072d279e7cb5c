// README: Best-effort notification pipeline. Services enqueue after their primary
// write commits; a worker drains the queue into a sink with bounded retries.
package notify

import (
	"context"
	"log"
	"time"

	"courier/internal/types"
)

// Event is one user-facing notification.
type Event struct {
	UserIDs  []types.ID        `json:"user_ids"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata,omitempty"`
	At       time.Time         `json:"at"`
}

// Sink delivers a notification somewhere: a message queue, a log, a test double.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher decouples notification delivery from the caller's critical path.
// Notify never blocks: when the buffer is full the event is dropped.
// Notifications are best-effort by contract.
type Dispatcher struct {
	sink     Sink
	queue    chan Event
	attempts int
	backoff  time.Duration
}

func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		sink:     sink,
		queue:    make(chan Event, buffer),
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
}

func (d *Dispatcher) Notify(userIDs []types.ID, title, message, category string, meta map[string]string) {
	e := Event{
		UserIDs:  userIDs,
		Title:    title,
		Message:  message,
		Category: category,
		Metadata: meta,
		At:       time.Now(),
	}
	select {
	case d.queue <- e:
	default:
		log.Printf("notify: queue full, dropping %q for %d users", category, len(userIDs))
	}
}

// Run drains the queue until ctx is cancelled, retrying failed deliveries with
// exponential backoff before giving up on an event.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.queue:
			d.deliver(ctx, e)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	wait := d.backoff
	for i := 0; i < d.attempts; i++ {
		if err := d.sink.Deliver(ctx, e); err == nil {
			return
		} else if i == d.attempts-1 {
			log.Printf("notify: giving up on %q after %d attempts: %v", e.Category, d.attempts, err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
	}
}
