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

	coremetrics "github.com/wyattarnold/StageLP-WSOP/core/metrics"
	"github.com/wyattarnold/StageLP-WSOP/infra/logger"
)

// InfluxSink writes solve records to an InfluxDB instance using the official
// client.
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

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails, so a missing metrics backend never
// blocks a run.
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

// RecordSolveResult writes the solve records as line protocol points.
func (s *InfluxSink) RecordSolveResult(res []coremetrics.SolveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("scenario_solve").
			AddTag("run_id", r.RunID).
			AddTag("model", r.Model).
			AddTag("scenario", r.Scenario).
			AddTag("status", r.Status).
			AddField("objective", round3(r.Objective)).
			AddField("solve_seconds", r.SolveTime.Seconds()).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary writes the run aggregate as a single point.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", sum.RunID).
		AddTag("model", sum.Model).
		AddField("scenarios", sum.Scenarios).
		AddField("expected_cost", round3(sum.ExpectedCost)).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
