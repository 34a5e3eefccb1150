package sections

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/kilianp07/trackdispatch/core/events"
)

const streamID = "sections"

// refusal is the stream form of a refused action.
type refusal struct {
	SectionID int64  `json:"section_id"`
	Action    string `json:"action"`
	Actor     int64  `json:"actor"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// Run forwards bus events to the SSE stream until ctx is canceled or the bus
// is closed; the returned channel is closed once it has.
func (h *Handler) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if h.bus == nil {
		close(done)
		return done
	}
	sub := h.bus.Subscribe()
	go func() {
		defer close(done)
		defer h.bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var (
					name    string
					payload any
				)
				switch e := ev.(type) {
				case events.SectionEvent:
					name, payload = "section", e
				case events.ActionFailedEvent:
					msg := ""
					if e.Err != nil {
						msg = e.Err.Error()
					}
					name, payload = "refusal", refusal{SectionID: e.SectionID, Action: e.Action, Actor: e.Actor, Kind: e.Kind, Message: msg}
				default:
					continue
				}
				data, err := json.Marshal(payload)
				if err != nil {
					h.log.Warnf("sse: marshal %s event: %v", name, err)
					continue
				}
				h.sse.TryPublish(streamID, &sse.Event{Event: []byte(name), Data: data})
			}
		}
	}()
	return done
}

// events serves the SSE stream. The stream query parameter is optional.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		q := r.URL.Query()
		q.Set("stream", streamID)
		r.URL.RawQuery = q.Encode()
	}
	h.sse.ServeHTTP(w, r)
}

// Close ends every open event stream.
func (h *Handler) Close() { h.sse.Close() }
