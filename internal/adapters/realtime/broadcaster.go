// Package realtime fans game events out to server-sent event subscribers.
package realtime

import (
	"sync"

	"github.com/okian/wikiline/pkg/metrics"
)

const defaultBuffer = 32

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// Broadcaster publishes events to SSE subscribers. It is safe for concurrent use.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Message]struct{}
	buffer int
}

// NewBroadcaster creates an empty broadcaster. buffer is the per-subscriber
// queue length; non-positive values use the default.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broadcaster{
		subs:   make(map[chan Message]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()
	metrics.UpdateStreamSubscribers(n)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	n := len(b.subs)
	b.mu.Unlock()
	metrics.UpdateStreamSubscribers(n)
}

// Publish delivers an event to all subscribers and reports how many
// subscribers were skipped because their queue was full.
func (b *Broadcaster) Publish(event string, data []byte) int {
	msg := Message{Event: event, Data: data}
	dropped := 0
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
			// Lagging subscribers catch up from the next state event.
			dropped++
		}
	}
	b.mu.Unlock()
	return dropped
}

// Len is the number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
