package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/trackdispatch/config"
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	coremon "github.com/kilianp07/trackdispatch/core/monitoring"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *captureTransport) Configure(sentry.ClientOptions) {}
func (t *captureTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}
func (t *captureTransport) Flush(time.Duration) bool { return true }
func (t *captureTransport) FlushWithContext(context.Context) bool { return true }
func (t *captureTransport) Close() {}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor got %T", m)
	}
}

func TestSentryMonitorTagsDomainErrors(t *testing.T) {
	tr := &captureTransport{}
	m, err := newSentryMonitor(config.SentryConfig{DSN: "https://key@o0.ingest.sentry.io/1", Environment: "test"}, tr)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	perr := apperrors.New(apperrors.KindPersistenceFailure, "save snapshot").With("snapshot", "abc")
	m.CaptureException(perr, coremon.Tags(perr, map[string]string{"component": "persister"}))
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.events) != 1 {
		t.Fatalf("expected 1 event got %d", len(tr.events))
	}
	tags := tr.events[0].Tags
	if tags["kind"] != string(apperrors.KindPersistenceFailure) || tags["snapshot"] != "abc" || tags["component"] != "persister" {
		t.Fatalf("unexpected tags %v", tags)
	}
}
