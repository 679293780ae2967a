package bus

import "time"

// EventBus is a synchronous, in-process pub/sub bus used to tell the host
// about track loads, completed laps and the end of a race.
//
//   - Handlers subscribe by Event.Type(); Wildcard receives every event.
//   - Publish calls handlers in the caller goroutine, in subscription order.
//   - Handler errors are joined and returned from Publish.
//   - Metrics are only collected while an observer is registered.
type EventBus interface {
	// Publish delivers the event to every active subscriber of its type.
	Publish(event Event) error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for eventType. Use Wildcard to receive
	// everything.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil subscription is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	GetMetrics() Metrics
}

// Event is an immutable message transported by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

type (
	// EventHandler is invoked once per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler; repeated calls are safe.
	Cancel() error
}

// Observer is told about every publish. Observers must return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

// Metrics is a snapshot of the bus counters.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
