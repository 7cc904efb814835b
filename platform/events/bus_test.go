package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"
)

type testEvent struct {
	BaseEvent
	Value string
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var got []string

	for i := 0; i < 2; i++ {
		bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
			defer wg.Done()
			mu.Lock()
			got = append(got, event.(testEvent).Value)
			mu.Unlock()
			return nil
		}))
	}

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: "hello"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not run")
	}

	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	for _, value := range got {
		if value != "hello" {
			t.Errorf("delivered value = %q, want hello", value)
		}
	}
}

func TestPublishIgnoresUnrelatedEvents(t *testing.T) {
	bus := NewInMemoryBus(nil)

	called := make(chan struct{}, 1)
	bus.Subscribe("other.event", HandlerFunc(func(context.Context, Event) error {
		called <- struct{}{}
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})

	select {
	case <-called:
		t.Fatal("handler for a different event name was invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishSyncRunsInOrderAndCombinesErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)

	errFirst := errors.New("first failed")
	var order []int

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return errFirst
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, errFirst) {
		t.Fatalf("combined error = %v, want to contain %v", err, errFirst)
	}
	if got := multierr.Errors(err); len(got) != 1 {
		t.Errorf("error count = %d, want 1", len(got))
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handler order = %v, want [1 2]", order)
	}
}

func TestPublishSurvivesCancelledRequestContext(t *testing.T) {
	bus := NewInMemoryBus(nil)

	ctxErr := make(chan error, 1)
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		ctxErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})

	select {
	case err := <-ctxErr:
		if err != nil {
			t.Errorf("handler context error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}
}
