package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fieldops/fieldsched/core/metrics"
)

func TestInfluxSink_RecordPlacements(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	rec := coremetrics.PlacementRecord{
		RunID:        "run-1",
		Mode:         "geographic",
		WorkOrder:    42,
		TechnicianID: "t1",
		Region:       "front-range",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		WorkHours:    5,
		DriveHours:   1.25,
		Time:         now,
	}

	if err := sink.RecordPlacements([]coremetrics.PlacementRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("placement_event").
		AddTag("run_id", "run-1").
		AddTag("mode", "geographic").
		AddTag("technician_id", "t1").
		AddTag("region", "front-range").
		AddTag("forced", "false").
		AddField("work_order", 42).
		AddField("date", "2026-03-02").
		AddField("work_hours", 5.0).
		AddField("drive_hours", 1.25).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordRunSummary(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	sum := coremetrics.RunSummary{
		RunID: "run-1", Mode: "fillin",
		Metrics:  coremetrics.RunMetrics{JobsPlaced: 3, JobsUnplaced: 1},
		Duration: 250 * time.Millisecond,
		Time:     time.Now(),
	}
	if err := sink.RecordRunSummary(sum); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one write, got %d", hits)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	// No server listening: the health check fails and a NopSink is
	// returned instead of a broken sink.
	sink := NewInfluxSinkWithFallback("http://127.0.0.1:1", "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
