// Package monitoring reports unexpected failures (persistence errors,
// recovered panics) to an error tracker.
package monitoring

import (
	"errors"
	"time"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the monitor installed by Init.
func Current() Monitor { return current }

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover captures panics in goroutines.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}

// Tags derives report tags from a domain error: its kind plus metadata.
// extra entries win over metadata keys.
func Tags(err error, extra map[string]string) map[string]string {
	tags := map[string]string{"kind": string(apperrors.KindOf(err))}
	var de *apperrors.Error
	if errors.As(err, &de) {
		for k, v := range de.Metadata {
			tags[k] = v
		}
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}
