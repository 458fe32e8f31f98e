// Package eventbus provides an in-process publish/subscribe mechanism for
// domain events, generalizing infrastructure/tracking's single-tracker,
// N-reporter fan-out into N topics each with M independent subscribers.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

// Topic identifies a class of domain event.
type Topic string

// Topic values, published at the transition points named in the system's
// control-flow diagram.
const (
	TopicRepositoryReady       Topic = "repository_ready"
	TopicGraphStatusChanged    Topic = "graph_status_changed"
	TopicDocumentationCompleted Topic = "documentation_completed"
	TopicMessageDelta          Topic = "message_delta"
	TopicMessageComplete       Topic = "message_complete"
)

// Event is a single published domain event.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// defaultBufferSize bounds each subscriber's channel; a slow consumer drops
// events past this depth rather than blocking the publisher.
const defaultBufferSize = 64

// Subscription is a single subscriber's bounded view onto a topic.
type Subscription struct {
	ch     chan Event
	bus    *Bus
	topic  Topic
	id     uint64
	closed bool
	mu     sync.Mutex
}

// Events returns the channel to receive events on. Closed when
// Unsubscribe is called.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe removes the subscription from its bus and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.bus.remove(s.topic, s.id)
	close(s.ch)
}

// Bus is a bounded, in-process event bus: publishers never block on slow
// subscribers. Safe for concurrent use.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic]map[uint64]chan Event
	nextID      uint64
	bufferSize  int
	logger      *slog.Logger
}

// NewBus creates a Bus using defaultBufferSize for every subscription.
func NewBus(logger *slog.Logger) *Bus {
	return NewBusWithBufferSize(logger, defaultBufferSize)
}

// NewBusWithBufferSize creates a Bus with a custom per-subscriber buffer depth.
func NewBusWithBufferSize(logger *slog.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[Topic]map[uint64]chan Event),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers a new subscription to topic.
func (b *Bus) Subscribe(topic Topic) *Subscription {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[uint64]chan Event)
	}
	b.subscribers[topic][id] = ch
	b.mu.Unlock()

	return &Subscription{ch: ch, bus: b, topic: topic, id: id}
}

// Publish sends payload to every subscriber of topic. Subscribers whose
// channel is full are skipped with a logged warning rather than blocking
// the publisher — backpressure is the consumer's problem, not the
// producer's.
func (b *Bus) Publish(topic Topic, payload any) {
	event := Event{Topic: topic, Payload: payload, Timestamp: time.Now().UTC()}

	// Sends are non-blocking, so the read lock is held across them; this keeps
	// Unsubscribe from closing a channel while it is being sent to.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("eventbus: dropping event for slow subscriber",
					slog.String("topic", string(topic)))
			}
		}
	}
}

// SubscriberCount reports how many subscriptions are active for topic.
// Exposed for tests and diagnostics.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers[topic], id)
}
