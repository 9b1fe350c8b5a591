// internal/realtime/broker.go
package realtime

import (
	"sync"
	"time"

	"kitchenops/internal/logger"
)

// EventInvalidate is the only message type: re-fetch the topic's state.
const EventInvalidate = "invalidate"

const defaultPingInterval = 25 * time.Second

// Event is delivered to subscribers of a topic. Topics are prep dates.
type Event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
}

// Broker fans invalidation events out to per-topic subscribers.
type Broker struct {
	mu           sync.RWMutex
	topics       map[string]map[chan Event]struct{}
	closed       bool
	pingInterval time.Duration
}

func NewBroker() *Broker {
	return &Broker{
		topics:       make(map[string]map[chan Event]struct{}),
		pingInterval: defaultPingInterval,
	}
}

// SetPingInterval changes the keep-alive comment interval of SSE streams.
func (b *Broker) SetPingInterval(d time.Duration) {
	if d > 0 {
		b.pingInterval = d
	}
}

// Subscribe registers for events on topic. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(topic string) (<-chan Event, func()) {
	// One slot is enough: a pending invalidate already covers any newer one.
	ch := make(chan Event, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[chan Event]struct{})
		b.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.topics[topic]; ok {
				if _, ok := subs[ch]; ok {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(b.topics, topic)
				}
			}
		})
	}
	return ch, cancel
}

// Publish sends an invalidate event to every subscriber of topic without blocking.
func (b *Broker) Publish(topic string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ev := Event{Topic: topic, Type: EventInvalidate}
	delivered := 0
	for ch := range b.topics[topic] {
		select {
		case ch <- ev:
			delivered++
		default:
			// Subscriber already has an undelivered invalidate.
		}
	}
	logger.LogDebug("Published %s for %s to %d subscriber(s)", EventInvalidate, topic, delivered)
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.topics {
		for ch := range subs {
			close(ch)
		}
		delete(b.topics, topic)
	}
}
