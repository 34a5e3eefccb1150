// Package eventbus fans dispatch events out to in-process subscribers (the
// metrics collector, the SSE stream, the MQTT publisher). Publishing never
// blocks the coordinator.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus is the untyped bus handed to producers and consumers.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation.
type Bus = TypedBus[Event]

// New creates a new Bus. buffer optionally overrides the per-subscriber
// capacity.
func New(buffer ...int) *Bus { return NewTyped[Event](buffer...) }
