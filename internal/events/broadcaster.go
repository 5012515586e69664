package events

import (
	"sync"

	"github.com/google/uuid"
)

// Well-known event types emitted on the push streams.
const (
	TypeConnected        = "connected"
	TypeKeepalive        = "keepalive"
	TypeWemoStateChange  = "wemo_state_change"
	TypeGoveeStateChange = "govee_state_change"
	TypeGoveeEvent       = "govee_event"
)

// Event is an immutable record broadcast once to all current
// subscribers. Timestamp is a freshly generated UUID used as a
// uniqueness surrogate, not a true event order.
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Logger is the logging interface used by the Broadcaster.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Subscription is one live push connection's delivery queue.
//
// The broadcaster owns the producing side and the connection handler
// owns the consuming side; the queue lives exactly as long as the
// connection. C is closed by Unsubscribe.
type Subscription struct {
	// C delivers events in per-subscriber FIFO order. Events published
	// while the queue is full are dropped for this subscriber only.
	C <-chan Event

	ch     chan Event
	closed bool
}

// Broadcaster fans out named state-change events to every currently
// subscribed connection. Delivery is fire-and-forget: a full or closed
// queue drops the event for that subscriber and never blocks the
// producer or delivery to other subscribers. This at-most-once,
// no-backpressure policy is intentional — producers are HTTP handlers
// that must never stall on subscriber behaviour.
//
// All methods are safe for concurrent use.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	bufSize int
	logger  Logger
}

// NewBroadcaster creates a broadcaster whose subscriptions carry
// buffered queues of the given depth.
func NewBroadcaster(bufSize int) *Broadcaster {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Broadcaster{
		subs:    make(map[*Subscription]struct{}),
		bufSize: bufSize,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the broadcaster.
func (b *Broadcaster) SetLogger(logger Logger) {
	b.logger = logger
}

// Subscribe registers a new delivery queue and returns its handle.
// The caller must Unsubscribe when the connection ends.
func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan Event, b.bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "subscribers", count)
	return sub
}

// Unsubscribe removes the queue from the broadcaster and closes it.
// Safe to call more than once for the same subscription.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	_, existed := b.subs[sub]
	delete(b.subs, sub)
	if existed && !sub.closed {
		// Close under the lock so Publish can never send on a closed
		// channel: sends also happen under the lock.
		close(sub.ch)
		sub.closed = true
	}
	count := len(b.subs)
	b.mu.Unlock()

	if existed {
		b.logger.Debug("subscriber removed", "subscribers", count)
	}
}

// Publish constructs an event with a fresh correlation identifier and
// pushes a copy into every currently registered queue. Subscribers
// registered after the call receive nothing (no replay); a subscriber
// whose queue is full loses the event rather than delaying anyone.
func (b *Broadcaster) Publish(eventType string, data any) {
	ev := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: uuid.NewString(),
	}

	b.mu.Lock()
	dropped := 0
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			dropped++
		}
	}
	total := len(b.subs)
	b.mu.Unlock()

	if dropped > 0 {
		b.logger.Warn("event dropped for slow subscribers",
			"type", eventType,
			"dropped", dropped,
			"subscribers", total,
		)
	}
}

// SubscriberCount returns the number of registered subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
