package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/posched/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordRunResult(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	res := coremetrics.RunResult{
		RunID:     "r1",
		Scenario:  "depot",
		Status:    "OPTIMAL",
		Objective: 4,
		BestBound: 4,
		WallTime:  1500 * time.Millisecond,
		Movements: 4,
		Solutions: 2,
		Nodes:     31,
		Time:      now,
	}
	if err := sink.RecordRunResult(res); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("solve_result").
		AddTag("run_id", "r1").
		AddTag("scenario", "depot").
		AddTag("status", "OPTIMAL").
		AddField("objective", int64(4)).
		AddField("best_bound", int64(4)).
		AddField("wall_time_ms", int64(1500)).
		AddField("movements", 4).
		AddField("solutions", 2).
		AddField("nodes", int64(31)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestInfluxSink_RecordProgress(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.ProgressEvent{RunID: "r1", Iteration: 3, Elapsed: 20 * time.Millisecond, Objective: 9, Bound: 2, Time: now}
	if err := sink.RecordProgress(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("solve_progress").
		AddTag("run_id", "r1").
		AddField("iteration", 3).
		AddField("elapsed_ms", int64(20)).
		AddField("objective", int64(9)).
		AddField("bound", int64(2)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
