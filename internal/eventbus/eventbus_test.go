package eventbus

import (
	"testing"
	"time"

	"github.com/fieldops/fieldsched/core/events"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish(events.RunStarted{RunID: "run-1", Mode: "geographic", Time: time.Now()})
	ev, ok := (<-ch).(events.RunStarted)
	if !ok || ev.RunID != "run-1" {
		t.Fatalf("expected the published RunStarted, got %#v", ev)
	}
	bus.Unsubscribe(ch)
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	for i := 0; i < subscriberBuffer+8; i++ {
		bus.Publish(events.JobPlaced{RunID: "run-1"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", subscriberBuffer, got)
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected a closed channel from a closed bus")
	}
}
