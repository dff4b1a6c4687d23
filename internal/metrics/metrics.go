// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

const namespace = "patchinspect"

// Metrics holds the pipeline collectors registered on one registry.
type Metrics struct {
	instancesPublished   *prometheus.CounterVec
	referencesCaptured   prometheus.Gauge
	findingsPublished    *prometheus.CounterVec
	compliancePercentage *prometheus.HistogramVec
	stageDuration        *prometheus.HistogramVec
	stageFailures        *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		instancesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fleet",
				Name:      "instances_published_total",
				Help:      "Number of candidate instances queued for scoring",
			},
			[]string{"account", "region"},
		),
		referencesCaptured: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "reference",
				Name:      "instances_captured",
				Help:      "Number of reference instances in the latest snapshot",
			},
		),
		findingsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "compliance",
				Name:      "findings_published_total",
				Help:      "Number of compliance findings published",
			},
			[]string{"account", "region"},
		),
		compliancePercentage: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "compliance",
				Name:      "percentage",
				Help:      "Distribution of per-instance compliance percentages",
				Buckets:   []float64{0, 25, 50, 75, 90, 99, 100},
			},
			[]string{"platform"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{1, 5, 30, 60, 300, 600, 1800, 3600},
			},
			[]string{"stage"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_failures_total",
				Help:      "Number of pipeline stages that ended in error",
			},
			[]string{"stage"},
		),
	}
}

// InstancesPublished records the candidates queued for one account and region.
func (m *Metrics) InstancesPublished(accountID, region string, count int) {
	m.instancesPublished.WithLabelValues(accountID, region).Add(float64(count))
}

// ReferencesCaptured records the size of the latest reference snapshot.
func (m *Metrics) ReferencesCaptured(count int) {
	m.referencesCaptured.Set(float64(count))
}

// FindingPublished records one published compliance record.
func (m *Metrics) FindingPublished(record models.ComplianceRecord) {
	m.findingsPublished.WithLabelValues(record.AccountID, record.Region).Inc()
	m.compliancePercentage.WithLabelValues(record.PlatformName + " " + record.PlatformVersion).
		Observe(float64(record.CompliancePercentage))
}

// StageCompleted records the duration and outcome of a pipeline stage.
func (m *Metrics) StageCompleted(stage string, duration time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

const shutdownTimeout = 5 * time.Second

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Failed to shut down metrics server cleanly: %v", err)
		}
	}()

	logger.Info("Metrics endpoint listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
