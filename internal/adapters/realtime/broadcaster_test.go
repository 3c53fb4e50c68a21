package realtime

import (
	"testing"
)

func TestBroadcasterPublishAndUnsubscribe(t *testing.T) {
	b := NewBroadcaster(0)
	a := b.Subscribe()
	c := b.Subscribe()
	if b.Len() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Len())
	}

	if dropped := b.Publish("state", []byte(`{"phase":"idle"}`)); dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}
	for _, ch := range []chan Message{a, c} {
		msg := <-ch
		if msg.Event != "state" || string(msg.Data) != `{"phase":"idle"}` {
			t.Errorf("unexpected message %+v", msg)
		}
	}

	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Error("expected unsubscribed channel to be closed")
	}
	// Unsubscribing twice must not panic on a closed channel.
	b.Unsubscribe(a)
	if b.Len() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.Len())
	}
}

func TestBroadcasterDropsForLaggingSubscriber(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish("toast", nil)
	if dropped := b.Publish("toast", nil); dropped != 1 {
		t.Errorf("expected the second publish to drop, got %d", dropped)
	}
	if len(ch) != 1 {
		t.Errorf("expected one queued message, got %d", len(ch))
	}
}
