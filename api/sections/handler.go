// Package sections exposes the dispatch coordinator over HTTP.
package sections

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/r3labs/sse/v2"

	"github.com/kilianp07/trackdispatch/core/dispatch"
	apperrors "github.com/kilianp07/trackdispatch/core/errors"
	"github.com/kilianp07/trackdispatch/core/journal"
	"github.com/kilianp07/trackdispatch/core/logger"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// Coordinator is the part of *dispatch.Coordinator served by the API.
type Coordinator interface {
	Departures(actor int64) []dispatch.SectionView
	Arrivals(actor int64) []dispatch.SectionView
	Passages(actor int64) []dispatch.SectionView
	Section(id, actor int64) (dispatch.SectionView, error)
	Execute(ctx context.Context, sectionID, actor int64, action dispatch.Action) (dispatch.ActionResult, error)
}

// Options configures a Handler. Journal and Bus are optional; their routes
// answer 404 and the event stream stays silent without them.
type Options struct {
	Coordinator Coordinator
	Journal     journal.Store
	Bus         eventbus.EventBus
	// Token enables bearer authentication when non-empty.
	Token  string
	Logger logger.Logger
	// Replay sends the event history to new stream subscribers.
	Replay bool
}

// Handler routes the dispatch API.
type Handler struct {
	coord   Coordinator
	journal journal.Store
	bus     eventbus.EventBus
	token   string
	log     logger.Logger
	sse     *sse.Server
	router  *mux.Router
}

// ActionRequest is the body of POST /api/sections/{id}/actions.
type ActionRequest struct {
	Actor  int64           `json:"actor"`
	Action dispatch.Action `json:"action"`
}

// ErrorBody is the JSON form of every error response.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

const kindBadRequest = "BAD_REQUEST"

// NewHandler builds the router.
func NewHandler(o Options) (*Handler, error) {
	if o.Coordinator == nil {
		return nil, errors.New("sections api: coordinator is required")
	}
	if o.Logger == nil {
		o.Logger = logger.Nop{}
	}
	h := &Handler{
		coord: o.Coordinator, journal: o.Journal, bus: o.Bus, token: o.Token, log: o.Logger,
		sse: sse.New(),
	}
	h.sse.AutoReplay = o.Replay
	h.sse.CreateStream(streamID)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.authenticate)
	api.HandleFunc("/actors/{actor}/departures", h.list(Coordinator.Departures)).Methods(http.MethodGet)
	api.HandleFunc("/actors/{actor}/arrivals", h.list(Coordinator.Arrivals)).Methods(http.MethodGet)
	api.HandleFunc("/actors/{actor}/passages", h.list(Coordinator.Passages)).Methods(http.MethodGet)
	api.HandleFunc("/sections/{id}", h.section).Methods(http.MethodGet)
	api.HandleFunc("/sections/{id}/actions", h.execute).Methods(http.MethodPost)
	api.HandleFunc("/journal", h.queryJournal).Methods(http.MethodGet)
	api.HandleFunc("/events", h.events).Methods(http.MethodGet)
	h.router = r
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.router.ServeHTTP(w, r) }

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeJSON(w, http.StatusUnauthorized, ErrorBody{Kind: "UNAUTHORIZED", Message: "missing or invalid bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) list(query func(Coordinator, int64) []dispatch.SectionView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := pathID(w, r, "actor")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, query(h.coord, actor))
	}
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var actor int64
	if s := r.URL.Query().Get("actor"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "invalid actor " + strconv.Quote(s)})
			return
		}
		actor = v
	}
	v, err := h.coord.Section(id, actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: err.Error()})
		return
	}
	res, err := h.coord.Execute(r.Context(), id, req.Actor, req.Action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	body := ErrorBody{Kind: string(apperrors.KindOf(err)), Message: err.Error()}
	var e *apperrors.Error
	if errors.As(err, &e) {
		body.Details = e.Metadata
	}
	status := apperrors.KindOf(err).HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Errorf("api: %v", err)
	}
	writeJSON(w, status, body)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	s := mux.Vars(r)[name]
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "invalid " + name + " " + strconv.Quote(s)})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
