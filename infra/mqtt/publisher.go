package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/trackdispatch/core/events"
	"github.com/kilianp07/trackdispatch/core/logger"
	coremqtt "github.com/kilianp07/trackdispatch/core/mqtt"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// Topic segments per message kind.
var topicKinds = map[string]string{
	"sections":  "section",
	"refusals":  "refusal",
	"snapshots": "snapshot",
}

func kindOf(topic string) string {
	for _, seg := range strings.Split(topic, "/") {
		if k, ok := topicKinds[seg]; ok {
			return k
		}
	}
	return "status"
}

// Envelope wraps every published event.
type Envelope struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

type refusal struct {
	SectionID int64  `json:"section_id"`
	Action    string `json:"action"`
	Actor     int64  `json:"actor"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

type persisted struct {
	SnapshotID string `json:"snapshot_id"`
	Result     string `json:"result"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// StartEventPublisher forwards bus events to pub under prefix until ctx is
// canceled. Section events go to <prefix>/sections/<id>, refused actions to
// <prefix>/refusals/<id> and snapshot outcomes to <prefix>/snapshots. The
// returned channel is closed once the publisher has stopped.
func StartEventPublisher(ctx context.Context, bus eventbus.EventBus, pub coremqtt.Publisher, prefix string, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.Nop{}
	}
	prefix = strings.TrimSuffix(prefix, "/")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				topic, env, ok := envelopeFor(prefix, ev)
				if !ok {
					continue
				}
				payload, err := json.Marshal(env)
				if err != nil {
					log.Errorf("encode %s event: %v", env.Type, err)
					continue
				}
				if err := pub.Publish(topic, payload); err != nil {
					log.Errorf("publish %s event: %v", env.Type, err)
				}
			}
		}
	}()
	return done
}

func envelopeFor(prefix string, ev eventbus.Event) (string, Envelope, bool) {
	env := Envelope{ID: uuid.NewString(), Time: time.Now().UTC()}
	switch e := ev.(type) {
	case events.SectionEvent:
		env.Type, env.Payload = "section", e
		if !e.At.IsZero() {
			env.Time = e.At
		}
		return fmt.Sprintf("%s/sections/%d", prefix, e.SectionID), env, true
	case events.ActionFailedEvent:
		r := refusal{SectionID: e.SectionID, Action: e.Action, Actor: e.Actor, Kind: e.Kind}
		if e.Err != nil {
			r.Message = e.Err.Error()
		}
		env.Type, env.Payload = "refusal", r
		return fmt.Sprintf("%s/refusals/%d", prefix, e.SectionID), env, true
	case events.PersistEvent:
		p := persisted{SnapshotID: e.SnapshotID, Result: "ok", DurationMS: e.Duration.Milliseconds()}
		switch {
		case e.Dropped:
			p.Result = "dropped"
		case e.Err != nil:
			p.Result, p.Error = "failed", e.Err.Error()
		}
		env.Type, env.Payload = "snapshot", p
		return prefix + "/snapshots", env, true
	default:
		return "", Envelope{}, false
	}
}

// Message is one payload recorded by MockPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []Message
	Fail     error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Publish records the message or returns Fail when set.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockPublisher) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
