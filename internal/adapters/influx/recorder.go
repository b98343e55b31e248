// Package influx writes coverage figures to InfluxDB for the operations
// dashboards.
package influx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

const measurement = "spraying_coverage"

// Recorder implements ports.CoverageRecorder on the non-blocking write API.
// Write errors arrive asynchronously and are logged.
type Recorder struct {
	client influxdb2.Client
	api    api.WriteAPI

	mu      sync.RWMutex
	lastErr time.Time
}

// NewRecorder creates a client for url and starts draining its error channel.
func NewRecorder(url, token, org, bucket string) *Recorder {
	opts := influxdb2.DefaultOptions().
		SetBatchSize(50).
		SetFlushInterval(1000)
	client := influxdb2.NewClientWithOptions(url, token, opts)
	return newRecorder(client, client.WriteAPI(org, bucket))
}

func newRecorder(client influxdb2.Client, w api.WriteAPI) *Recorder {
	r := &Recorder{client: client, api: w}
	go func() {
		for err := range w.Errors() {
			if err == nil {
				continue
			}
			r.mu.Lock()
			r.lastErr = time.Now()
			r.mu.Unlock()
			slog.Warn("influx write failed", "error", err)
		}
	}()
	return r
}

// RecordCoverage queues one point per event.
func (r *Recorder) RecordCoverage(_ context.Context, event *domain.CoverageEvent) error {
	r.api.WritePoint(Point(event))
	return nil
}

// Point converts a coverage event into an InfluxDB point tagged by farm and
// status.
func Point(event *domain.CoverageEvent) *write.Point {
	tags := map[string]string{
		"farm_id":       event.FarmID,
		"work_order_id": event.WorkOrderID,
		"status":        string(event.Status),
	}
	if event.FailureKind != "" {
		tags["failure_kind"] = string(event.FailureKind)
	}
	fields := map[string]interface{}{
		"application_id":   event.ApplicationID,
		"applied_ha":       event.AppliedHa,
		"correct_ha":       event.CorrectHa,
		"waste_ha":         event.WasteHa,
		"missed_ha":        event.MissedHa,
		"coverage_percent": event.CoveragePercent,
	}
	return influxdb2.NewPoint(measurement, tags, fields, event.Time)
}

// LastErrorAge reports how long ago the last asynchronous write failed.
func (r *Recorder) LastErrorAge() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastErr.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(r.lastErr)
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() {
	r.api.Flush()
	r.client.Close()
}
