package metrics

import (
	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records dispatch actions in Prometheus metrics.
type PromSink struct {
	actions   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	occupied  prometheus.Gauge
	snapshots *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	sink, err := NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackdispatch_section_actions_total",
		Help: "Section actions by action, outcome and train",
	}, []string{"action", "outcome", "train"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackdispatch_section_action_seconds",
		Help:    "Time spent applying a section action",
		Buckets: prometheus.DefBuckets,
	}, []string{"action", "outcome"})
	occupied := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trackdispatch_occupied_tracks",
		Help: "Tracks directly occupied by a section",
	})
	snapshots := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackdispatch_snapshot_seconds",
		Help:    "Snapshot save duration by result",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	var err error
	if actions, err = register(reg, actions); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if occupied, err = register(reg, occupied); err != nil {
		return nil, err
	}
	if snapshots, err = register(reg, snapshots); err != nil {
		return nil, err
	}
	return &PromSink{actions: actions, latency: latency, occupied: occupied, snapshots: snapshots}, nil
}

// register returns the already registered collector when c was registered
// before, so sinks can be recreated on the same registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAction counts the action and observes its duration.
func (s *PromSink) RecordAction(rec coremetrics.ActionRecord) error {
	s.actions.WithLabelValues(rec.Action, rec.Outcome, rec.Train).Inc()
	s.latency.WithLabelValues(rec.Action, rec.Outcome).Observe(rec.Duration.Seconds())
	return nil
}

// RecordOccupancy sets the occupied tracks gauge.
func (s *PromSink) RecordOccupancy(sample coremetrics.OccupancySample) error {
	s.occupied.Set(float64(sample.OccupiedTracks))
	return nil
}

// RecordSnapshot observes the snapshot duration.
func (s *PromSink) RecordSnapshot(rec coremetrics.SnapshotRecord) error {
	s.snapshots.WithLabelValues(rec.Result).Observe(rec.Duration.Seconds())
	return nil
}
