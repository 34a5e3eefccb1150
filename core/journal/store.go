// Package journal keeps an append-only audit trail of dispatch actions,
// successful or refused, for later inspection.
package journal

import (
	"context"
	"time"
)

// Entry records one action attempt.
type Entry struct {
	Time      time.Time `json:"time"`
	SectionID int64     `json:"section_id"`
	TrainID   int64     `json:"train_id"`
	Train     string    `json:"train"`
	Action    string    `json:"action"`
	Actor     int64     `json:"actor"`
	// Outcome is "ok" or the failure kind.
	Outcome string `json:"outcome"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
}

// Query filters entries. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	SectionID int64
	TrainID   int64
	Action    string
}

// Match reports whether e satisfies q.
func (q Query) Match(e Entry) bool {
	if !q.Start.IsZero() && e.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Time.After(q.End) {
		return false
	}
	if q.SectionID != 0 && e.SectionID != q.SectionID {
		return false
	}
	if q.TrainID != 0 && e.TrainID != q.TrainID {
		return false
	}
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	return true
}

// Store persists entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}
