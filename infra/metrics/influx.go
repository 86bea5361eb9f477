package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fieldops/fieldsched/core/metrics"
	"github.com/fieldops/fieldsched/infra/logger"
)

// InfluxSink writes placement events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
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

// RecordPlacements writes committed placements as line protocol events.
func (s *InfluxSink) RecordPlacements(recs []coremetrics.PlacementRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("placement_event").
			AddTag("run_id", r.RunID).
			AddTag("mode", r.Mode).
			AddTag("technician_id", r.TechnicianID).
			AddTag("region", r.Region).
			AddTag("forced", strconv.FormatBool(r.Forced)).
			AddField("work_order", r.WorkOrder).
			AddField("date", r.Date.Format("2006-01-02")).
			AddField("work_hours", round3(r.WorkHours)).
			AddField("drive_hours", round3(r.DriveHours)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary persists the aggregate figures of one run.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", sum.RunID).
		AddTag("mode", sum.Mode).
		AddField("jobs_placed", sum.Metrics.JobsPlaced).
		AddField("jobs_unplaced", sum.Metrics.JobsUnplaced).
		AddField("work_hours", round3(sum.Metrics.TotalWorkHours)).
		AddField("drive_hours", round3(sum.Metrics.TotalDriveHours)).
		AddField("utilization_mean", round3(sum.Metrics.UtilizationMean)).
		AddField("utilization_std", round3(sum.Metrics.UtilizationStd)).
		AddField("duration_ms", round3(sum.Duration.Seconds()*1000)).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
