// Package metrics exports mapper operations to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mesh-intelligence/settee/pkg/model"
)

const namespace = "settee"

// Recorder implements model.Recorder with a counter and a latency histogram,
// both labelled by operation, document type and outcome.
type Recorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ model.Recorder = (*Recorder)(nil)

// NewRecorder registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Mapper operations by op, document type and outcome.",
		}, []string{"op", "type", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of mapper operations, store round trip included.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op", "type", "outcome"}),
	}
}

// Observe records one operation.
func (r *Recorder) Observe(_ context.Context, op, docType, outcome string, d time.Duration) {
	r.ops.WithLabelValues(op, docType, outcome).Inc()
	r.duration.WithLabelValues(op, docType, outcome).Observe(d.Seconds())
}
