// Package metrics counts evaluation diagnostics in a private Prometheus
// registry and dumps them in the text exposition format.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"mlens-core/lightcurve"
)

const namespace = "mlens"

// Recorder owns one registry; a command creates one per run.
type Recorder struct {
	reg *prometheus.Registry

	epochs    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	imprecise *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	hexa      *prometheus.CounterVec
	samples   *prometheus.HistogramVec
	duration  *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		epochs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "epochs_total",
			Help:      "Epochs evaluated.",
		}, []string{"model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "epoch_failures_total",
			Help:      "Epochs that could not be evaluated.",
		}, []string{"model"}),
		imprecise: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "precision_missed_total",
			Help:      "Epochs returned before reaching the requested tolerance.",
		}, []string{"model"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contour",
			Name:      "fallbacks_total",
			Help:      "Image-position solves that fell back to the alternate solver.",
		}, []string{"model"}),
		hexa: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contour",
			Name:      "hexadecapole_total",
			Help:      "Epochs served by the hexadecapole approximation.",
		}, []string{"model"}),
		samples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "contour",
			Name:      "samples",
			Help:      "Boundary samples per epoch.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}, []string{"model"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
	r.reg.MustRegister(r.epochs, r.failures, r.imprecise, r.fallbacks, r.hexa, r.samples, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe records one epoch's diagnostics. A nil Recorder is a no-op.
func (r *Recorder) Observe(model string, st lightcurve.Status) {
	if r == nil {
		return
	}
	r.epochs.WithLabelValues(model).Inc()
	if st.Err != nil {
		r.failures.WithLabelValues(model).Inc()
	}
	if !st.PrecisionMet {
		r.imprecise.WithLabelValues(model).Inc()
	}
	if st.Fallbacks > 0 {
		r.fallbacks.WithLabelValues(model).Add(float64(st.Fallbacks))
	}
	if st.Hexadecapole {
		r.hexa.WithLabelValues(model).Inc()
	}
	if st.Samples > 0 {
		r.samples.WithLabelValues(model).Observe(float64(st.Samples))
	}
}

// ObserveResult records every epoch of res.
func (r *Recorder) ObserveResult(res *lightcurve.Result) {
	if r == nil || res == nil {
		return
	}
	model := res.Kind.String()
	for _, st := range res.Status {
		r.Observe(model, st)
	}
}

// Time records how long command took since start.
func (r *Recorder) Time(command string, start time.Time) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}

// Dump writes every metric family in the text exposition format.
func (r *Recorder) Dump(w io.Writer) error {
	if r == nil {
		return nil
	}
	mfs, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
