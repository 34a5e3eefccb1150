package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	"github.com/kilianp07/trackdispatch/infra/logger"
)

// InfluxSink writes dispatch records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAction writes one section_action point.
func (s *InfluxSink) RecordAction(rec coremetrics.ActionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("section_action").
		AddTag("action", rec.Action).
		AddTag("outcome", rec.Outcome).
		AddTag("train", rec.Train).
		AddTag("component", "coordinator").
		AddField("section_id", rec.SectionID).
		AddField("actor", rec.Actor).
		AddField("duration_ms", durationMS(rec.Duration)).
		SetTime(rec.Time)
	if rec.State != "" {
		p = p.AddField("state", rec.State)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOccupancy writes the number of occupied tracks.
func (s *InfluxSink) RecordOccupancy(sample coremetrics.OccupancySample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("occupancy").
		AddTag("component", "occupancy").
		AddField("occupied_tracks", sample.OccupiedTracks).
		SetTime(sample.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSnapshot writes the outcome of a snapshot attempt.
func (s *InfluxSink) RecordSnapshot(rec coremetrics.SnapshotRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("snapshot").
		AddTag("result", rec.Result).
		AddTag("snapshot_id", rec.SnapshotID).
		AddTag("component", "persister").
		AddField("duration_ms", durationMS(rec.Duration)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client's resources.
func (s *InfluxSink) Close() { s.client.Close() }

func durationMS(d time.Duration) float64 {
	return round3(d.Seconds() * 1000)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
