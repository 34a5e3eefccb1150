// Package mqtt declares the messaging port used to publish dispatch events to
// external consumers.
package mqtt

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}
