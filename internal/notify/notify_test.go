package notify

import (
	"testing"
	"time"

	"deposit-bot/internal/event"
)

type stubBroadcaster struct {
	got chan interface{}
}

func (s *stubBroadcaster) BroadcastJSON(v interface{}) {
	s.got <- v
}

func TestSettledEventBroadcast(t *testing.T) {
	bus := event.NewBus()
	hub := &stubBroadcaster{got: make(chan interface{}, 1)}
	Register(bus, hub, nil)

	ev := event.PaymentSettled{UserID: "u1", Amount: 10, NewBalance: 10, PaymentID: "p1"}
	bus.Publish(event.EventPaymentSettled, ev)

	select {
	case v := <-hub.got:
		msg := v.(map[string]interface{})
		if msg["event"] != event.EventPaymentSettled {
			t.Fatalf("event = %v", msg["event"])
		}
		if msg["payload"].(event.PaymentSettled) != ev {
			t.Fatalf("payload = %+v, want %+v", msg["payload"], ev)
		}
	case <-time.After(time.Second):
		t.Fatal("settled event not broadcast")
	}
}

func TestFailedEventBroadcast(t *testing.T) {
	bus := event.NewBus()
	hub := &stubBroadcaster{got: make(chan interface{}, 1)}
	Register(bus, hub, nil)

	bus.Publish(event.EventPaymentFailed, event.PaymentFailed{UserID: "u1", PaymentID: "p1", Status: "expired"})

	select {
	case v := <-hub.got:
		msg := v.(map[string]interface{})
		if msg["event"] != event.EventPaymentFailed {
			t.Fatalf("event = %v", msg["event"])
		}
	case <-time.After(time.Second):
		t.Fatal("failed event not broadcast")
	}
}

func TestNilHubDoesNotPanic(t *testing.T) {
	bus := event.NewBus()
	Register(bus, nil, nil)
	bus.Publish(event.EventPaymentSettled, event.PaymentSettled{UserID: "u1"})
	time.Sleep(10 * time.Millisecond)
}
