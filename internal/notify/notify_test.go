// README: Dispatcher tests with a scripted sink.
package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courier/internal/types"
)

type scriptedSink struct {
	mu       sync.Mutex
	failures int // deliveries to fail before succeeding
	got      []Event
	done     chan struct{}
}

func (s *scriptedSink) Deliver(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.got = append(s.got, e)
	select {
	case s.done <- struct{}{}:
	default:
	}
	return nil
}

func (s *scriptedSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.got...)
}

func TestDispatcherDelivers(t *testing.T) {
	sink := &scriptedSink{done: make(chan struct{}, 1)}
	d := NewDispatcher(sink, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Notify([]types.ID{"u1", "u2"}, "title", "message", "test_event", map[string]string{"k": "v"})

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}

	got := sink.delivered()
	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	e := got[0]
	if e.Category != "test_event" || len(e.UserIDs) != 2 || e.Metadata["k"] != "v" {
		t.Fatalf("event corrupted: %+v", e)
	}
}

func TestDispatcherRetries(t *testing.T) {
	sink := &scriptedSink{failures: 2, done: make(chan struct{}, 1)}
	d := NewDispatcher(sink, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Notify([]types.ID{"u1"}, "title", "message", "retry_event", nil)

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not succeed within the retry budget")
	}
	if got := sink.delivered(); len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
}

func TestNotifyDropsWhenFull(t *testing.T) {
	// No worker draining, buffer of one: the second event is dropped, the
	// caller never blocks.
	sink := &scriptedSink{done: make(chan struct{}, 1)}
	d := NewDispatcher(sink, 1)

	done := make(chan struct{})
	go func() {
		d.Notify([]types.ID{"u1"}, "a", "a", "a", nil)
		d.Notify([]types.ID{"u1"}, "b", "b", "b", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}
