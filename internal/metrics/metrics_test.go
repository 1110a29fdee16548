package metrics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"mlens-core/lightcurve"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestObserve(t *testing.T) {
	r := New()
	r.Observe("binary", lightcurve.Status{PrecisionMet: true, Samples: 64})
	r.Observe("binary", lightcurve.Status{PrecisionMet: false, Samples: 512, Fallbacks: 3})
	r.Observe("binary", lightcurve.Status{Err: errors.New("boom")})
	r.Observe("espl", lightcurve.Status{PrecisionMet: true, Hexadecapole: true})

	if got := counterValue(t, r.epochs, "binary"); got != 3 {
		t.Errorf("epochs=%g", got)
	}
	if got := counterValue(t, r.failures, "binary"); got != 1 {
		t.Errorf("failures=%g", got)
	}
	if got := counterValue(t, r.imprecise, "binary"); got != 2 {
		t.Errorf("imprecise=%g", got)
	}
	if got := counterValue(t, r.fallbacks, "binary"); got != 3 {
		t.Errorf("fallbacks=%g", got)
	}
	if got := counterValue(t, r.hexa, "espl"); got != 1 {
		t.Errorf("hexadecapole=%g", got)
	}
	if got := histogramCount(t, r.samples, "binary"); got != 2 {
		t.Errorf("samples count=%d", got)
	}
}

func TestObserveResult(t *testing.T) {
	res := lightcurve.NewResult(lightcurve.KindPSPL, 2)
	res.Status[0].PrecisionMet = true
	res.Status[1].PrecisionMet = true

	r := New()
	r.ObserveResult(res)
	if got := testutil.ToFloat64(r.epochs.WithLabelValues("pspl")); got != 2 {
		t.Fatalf("epochs=%g", got)
	}
	if n := testutil.CollectAndCount(r.failures); n != 0 {
		t.Fatalf("no failure series expected, got %d", n)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Observe("pspl", lightcurve.Status{})
	r.ObserveResult(nil)
	r.Time("mag", time.Now())
	if err := r.Dump(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
}

func TestDump(t *testing.T) {
	r := New()
	r.Observe("pspl", lightcurve.Status{PrecisionMet: true})
	r.Time("lightcurve", time.Now())

	var buf bytes.Buffer
	if err := r.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`mlens_eval_epochs_total{model="pspl"} 1`,
		"# TYPE mlens_run_duration_seconds histogram",
		`mlens_run_duration_seconds_count{command="lightcurve"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
