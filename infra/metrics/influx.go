package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/posched/core/metrics"
	"github.com/kilianp07/posched/infra/logger"
)

// InfluxSink writes solver events to an InfluxDB instance using the official client.
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

// RecordRunResult writes one solve_result point.
func (s *InfluxSink) RecordRunResult(res coremetrics.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_result").
		AddTag("run_id", res.RunID).
		AddTag("scenario", res.Scenario).
		AddTag("status", res.Status).
		AddField("objective", res.Objective).
		AddField("best_bound", res.BestBound).
		AddField("wall_time_ms", res.WallTime.Milliseconds()).
		AddField("movements", res.Movements).
		AddField("solutions", res.Solutions).
		AddField("nodes", res.Nodes).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordProgress writes one solve_progress point.
func (s *InfluxSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_progress").
		AddTag("run_id", ev.RunID).
		AddField("iteration", ev.Iteration).
		AddField("elapsed_ms", ev.Elapsed.Milliseconds()).
		AddField("objective", ev.Objective).
		AddField("bound", ev.Bound).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRunStarted writes the model dimensions.
func (s *InfluxSink) RecordRunStarted(ev coremetrics.RunStarted) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_started").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddField("jobs", ev.Jobs).
		AddField("ticks", ev.Ticks).
		AddField("variables", ev.Variables).
		AddField("constraints", ev.Constraints).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }
