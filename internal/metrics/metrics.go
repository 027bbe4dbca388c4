// Package metrics exposes Prometheus collectors for gradebook operations.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/gradebook/internal/middleware"
	"github.com/mmynk/gradebook/internal/models"
)

const namespace = "gradebook"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	students     prometheus.Gauge
	classes      prometheus.Gauge
	subjects     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Registry operations by name and result.",
		}, []string{"op", "result"}),
		saveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_save_duration_seconds",
			Help:      "Time spent persisting a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"result"}),
		students: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "students",
			Help:      "Number of students in the registry.",
		}),
		classes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classes",
			Help:      "Number of registered classes.",
		}),
		subjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subjects",
			Help:      "Number of registered subjects.",
		}),
	}
	reg.MustRegister(m.operations, m.saveDuration, m.students, m.classes, m.subjects)
	return m
}

// Result maps an operation error to a metric label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// ObserveOperation counts one operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Result(err)).Inc()
}

// ObserveSave records how long a save took.
func (m *Metrics) ObserveSave(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.saveDuration.WithLabelValues(Result(err)).Observe(d.Seconds())
}

// SetRegistrySize updates the size gauges.
func (m *Metrics) SetRegistrySize(students, classes, subjects int) {
	if m == nil {
		return
	}
	m.students.Set(float64(students))
	m.classes.Set(float64(classes))
	m.subjects.Set(float64(subjects))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Logging(slog.Default(), mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	slog.Info("Metrics server starting", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
