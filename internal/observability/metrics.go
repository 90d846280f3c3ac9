package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	summiterrors "summit/internal/errors"
)

// BackendObserver captures telemetry for backend client operations.
type BackendObserver interface {
	RecordOperation(op, target string, duration time.Duration, err error)
	RecordUpload(bucket string, sizeBytes int64)
}

// PrometheusObserver exports backend metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes *prometheus.CounterVec
}

// NewPrometheusObserver registers backend operation metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "summit_backend"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency for backend row and storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "target"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of backend operation failures.",
		}, []string{"operation", "target", "kind"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size uploaded to storage buckets.",
		}, []string{"bucket"}),
	}

	var err error
	if observer.duration, err = register(reg, observer.duration); err != nil {
		return nil, err
	}
	if observer.errors, err = register(reg, observer.errors); err != nil {
		return nil, err
	}
	if observer.uploadBytes, err = register(reg, observer.uploadBytes); err != nil {
		return nil, err
	}
	return observer, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("register metric: %w", err)
	}
	return collector, nil
}

// RecordOperation tracks duration and failures of one backend call.
func (o *PrometheusObserver) RecordOperation(op, target string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op, target).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op, target, summiterrors.GetErrorType(err).String()).Inc()
	}
}

// RecordUpload adds a successful upload's size.
func (o *PrometheusObserver) RecordUpload(bucket string, sizeBytes int64) {
	if o == nil || sizeBytes <= 0 {
		return
	}
	o.uploadBytes.WithLabelValues(bucket).Add(float64(sizeBytes))
}

type nopObserver struct{}

func (nopObserver) RecordOperation(string, string, time.Duration, error) {}
func (nopObserver) RecordUpload(string, int64)                          {}

// NopObserver returns an observer that records nothing.
func NopObserver() BackendObserver {
	return nopObserver{}
}
