// Package metrics records per-run pipeline counters and writes them in the
// Prometheus text format for a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reelpipe/internal/ledger"
	"reelpipe/internal/services"
)

// Outcome labels for stage item counters.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Recorder holds one run's metrics. A nil Recorder ignores every call.
type Recorder struct {
	registry      *prometheus.Registry
	stageItems    *prometheus.CounterVec
	stageDuration *prometheus.GaugeVec
	stageErrors   *prometheus.CounterVec
	ledgerItems   *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

// New registers the reelpipe metrics on a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		stageItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelpipe_stage_items_total",
			Help: "Work items handled per stage and outcome",
		}, []string{"stage", "outcome"}),
		stageDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reelpipe_stage_duration_seconds",
			Help: "Wall time of the last run of each stage",
		}, []string{"stage"}),
		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelpipe_stage_errors_total",
			Help: "Stages that ended with an error, by error kind",
		}, []string{"stage", "kind"}),
		ledgerItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reelpipe_ledger_items",
			Help: "Ledger items per status after the run",
		}, []string{"status"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reelpipe_last_run_timestamp_seconds",
			Help: "Unix time the metrics file was written",
		}),
	}
}

// StageItems adds n items with outcome to stage.
func (r *Recorder) StageItems(stage, outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.stageItems.WithLabelValues(stage, outcome).Add(float64(n))
}

// StageFinished records a stage's duration and whether it failed.
func (r *Recorder) StageFinished(stage string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Set(elapsed.Seconds())
	if err != nil {
		r.stageErrors.WithLabelValues(stage, errorKind(err)).Inc()
	}
}

// LedgerItems replaces the per-status gauge with counts. Every known status
// is reported, zero when absent.
func (r *Recorder) LedgerItems(counts map[ledger.Status]int) {
	if r == nil {
		return
	}
	r.ledgerItems.Reset()
	for _, status := range ledger.AllStatuses() {
		r.ledgerItems.WithLabelValues(string(status)).Set(0)
	}
	for status, n := range counts {
		r.ledgerItems.WithLabelValues(string(status)).Set(float64(n))
	}
}

// WriteFile writes the registry to path atomically. An empty path is a no-op.
func (r *Recorder) WriteFile(path string, now time.Time) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	r.lastRun.Set(float64(now.Unix()))
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry for tests and callers that
// gather directly.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func errorKind(err error) string {
	marker := services.MarkerOf(err)
	if marker == nil {
		return "unknown"
	}
	return strings.ReplaceAll(marker.Error(), " ", "_")
}
