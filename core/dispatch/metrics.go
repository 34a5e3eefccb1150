package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	occupiedTracks prometheus.Gauge
	snapshotsTotal *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Gauge, *prometheus.CounterVec) {
	act := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_actions_total",
			Help: "Number of dispatch actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_action_duration_seconds",
			Help:    "Time spent executing a dispatch action",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"action"},
	)
	occ := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_occupied_tracks",
			Help: "Number of tracks currently occupied by a section",
		},
	)
	snap := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_snapshots_total",
			Help: "Snapshot attempts by result (ok, failed, dropped)",
		},
		[]string{"result"},
	)
	return act, dur, occ, snap
}

func init() {
	actionsTotal, actionDuration, occupiedTracks, snapshotsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(actionsTotal, actionDuration, occupiedTracks, snapshotsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	actionsTotal, actionDuration, occupiedTracks, snapshotsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
