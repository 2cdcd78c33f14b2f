package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	Value int
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsAllHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var seen []int
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
		seen = append(seen, event.(testEvent).Value)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
		seen = append(seen, event.(testEvent).Value*10)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: 7}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(seen) != 2 || seen[0] != 7 || seen[1] != 70 {
		t.Fatalf("expected [7 70], got %v", seen)
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	wantErr := errors.New("handler failed")

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected joined error containing %v, got %v", wantErr, err)
	}
}

func TestPublishIsAsynchronousAndDelivers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	done := make(chan int, 1)

	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
		done <- event.(testEvent).Value
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: 42})

	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestPublishUnknownEventIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("expected nil error for event with no handlers, got %v", err)
	}
}
