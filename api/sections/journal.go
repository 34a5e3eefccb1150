package sections

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/trackdispatch/core/journal"
)

// queryJournal serves GET /api/journal. Filters: start and end (RFC 3339),
// section_id, train_id and action.
func (h *Handler) queryJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, ErrorBody{Kind: "NOT_FOUND", Message: "journal disabled"})
		return
	}
	params := r.URL.Query()
	q := journal.Query{Action: params.Get("action")}
	var err error
	if q.Start, err = timeParam(params.Get("start")); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "start: " + err.Error()})
		return
	}
	if q.End, err = timeParam(params.Get("end")); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "end: " + err.Error()})
		return
	}
	if q.SectionID, err = intParam(params.Get("section_id")); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "section_id: " + err.Error()})
		return
	}
	if q.TrainID, err = intParam(params.Get("train_id")); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: "train_id: " + err.Error()})
		return
	}
	entries, err := h.journal.Query(r.Context(), q)
	if err != nil {
		h.log.Errorf("journal query: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Kind: "UNKNOWN", Message: err.Error()})
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func timeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func intParam(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
