package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"syscall"
	"testing"

	"mlens-core/lens"
	"mlens-core/lightcurve"

	"mlens/internal/cli"
	"mlens/internal/config"
	"mlens/pkg/api"
)

func run(t *testing.T, argv ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errBuf bytes.Buffer
	code = Run(argv, &out, &errBuf)
	return code, out.String(), errBuf.String()
}

func TestVersionAndHelp(t *testing.T) {
	code, out, errS := run(t, "--version")
	if code != ExitOK {
		t.Fatalf("--version exit %d: %s", code, errS)
	}
	if out != "mlens version dev\n" {
		t.Fatalf("--version = %q", out)
	}

	code, out, _ = run(t, "--help")
	if code != ExitOK {
		t.Fatalf("--help exit %d", code)
	}
	for _, sub := range []string{"mag", "lightcurve", "caustics", "contours", "table"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help does not list %q", sub)
		}
	}
}

func TestMagBinaryJSON(t *testing.T) {
	code, out, errS := run(t, "mag", "--s", "1", "--q", "0.1", "--y1", "0.3", "--y2", "0.2", "-o", "json")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errS)
	}
	var m api.MagV1
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if m.Model != "binary" || m.RunID == "" {
		t.Fatalf("model=%q run=%q", m.Model, m.RunID)
	}
	if !(m.Mag > 1) || math.IsInf(m.Mag, 0) {
		t.Fatalf("mag = %g", m.Mag)
	}
}

func TestLightCurvePSPL(t *testing.T) {
	code, out, errS := run(t, "lightcurve",
		"--model", "pspl",
		"--params", fmt.Sprintf("%v,%v,7500", math.Log(0.1), math.Log(10)),
		"--times", "7490,7500,7510",
		"-o", "json")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errS)
	}
	var lc api.LightCurveV1
	if err := json.Unmarshal([]byte(out), &lc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if lc.Model != "pspl" || len(lc.Epochs) != 3 || lc.Failed != 0 {
		t.Fatalf("model=%q epochs=%d failed=%d", lc.Model, len(lc.Epochs), lc.Failed)
	}
	paczynski := func(u float64) float64 { return (u*u + 2) / (u * math.Sqrt(u*u+4)) }
	want := []float64{paczynski(math.Hypot(0.1, 1)), paczynski(0.1), paczynski(math.Hypot(0.1, 1))}
	for i, e := range lc.Epochs {
		if e.Mag == nil {
			t.Fatalf("epoch %d has no magnification", i)
		}
		if math.Abs(*e.Mag-want[i]) > 1e-9*want[i] {
			t.Errorf("epoch %d: mag %.12g, want %.12g", i, *e.Mag, want[i])
		}
	}
}

func TestLightCurveText(t *testing.T) {
	code, out, errS := run(t, "lc", "--model", "pspl", "--params", "0.3,3,100", "--t-start", "90", "--t-end", "110", "--t-step", "5")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errS)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "# model=pspl ") {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want header, column names and 5 epochs:\n%s", len(lines), out)
	}
}

func TestCaustics(t *testing.T) {
	code, out, errS := run(t, "caustics", "--s", "1", "--q", "0.1", "-o", "json")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errS)
	}
	var cs api.CurvesV1
	if err := json.Unmarshal([]byte(out), &cs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cs.Topology != "resonant" || cs.Lenses != 2 || len(cs.Curves) == 0 {
		t.Fatalf("topology=%q lenses=%d curves=%d", cs.Topology, cs.Lenses, len(cs.Curves))
	}
}

func TestUsageErrors(t *testing.T) {
	cases := []struct {
		name string
		argv []string
	}{
		{"unknown flag", []string{"mag", "--bogus"}},
		{"unknown command", []string{"frobnicate"}},
		{"unknown format", []string{"-o", "xml", "mag", "--single", "--y1", "0.5"}},
		{"bad method", []string{"--method", "fastest", "mag", "--single", "--y1", "0.5"}},
		{"unknown model", []string{"lightcurve", "--model", "nope", "--params", "1", "--times", "1"}},
		{"short params", []string{"lightcurve", "--model", "pspl", "--params", "1,2", "--times", "1"}},
		{"negative rho", []string{"mag", "--single", "--y1", "0.5", "--rho", "-1"}},
		{"bad geometry", []string{"caustics", "--geometry", "0,0"}},
		{"extra args", []string{"caustics", "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errS := run(t, tc.argv...)
			if code != ExitUsage {
				t.Fatalf("exit %d, want %d (stderr %q)", code, ExitUsage, errS)
			}
			if out != "" {
				t.Fatalf("unexpected stdout %q", out)
			}
			if !strings.HasPrefix(errS, "error: ") {
				t.Fatalf("stderr = %q", errS)
			}
		})
	}
}

func TestMetricsDump(t *testing.T) {
	code, _, errS := run(t, "--metrics", "--log-level", "error", "mag", "--single", "--y1", "0.5")
	if code != ExitOK {
		t.Fatalf("exit %d: %s", code, errS)
	}
	for _, want := range []string{
		`mlens_eval_epochs_total{model="single"} 1`,
		`mlens_run_duration_seconds_count{command="mag"} 1`,
	} {
		if !strings.Contains(errS, want) {
			t.Errorf("metrics dump lacks %q:\n%s", want, errS)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("write: %w", syscall.EPIPE), ExitOK},
		{context.Canceled, ExitCanceled},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), ExitCanceled},
		{fmt.Errorf("x: %w", cli.ErrUsage), ExitUsage},
		{fmt.Errorf("x: %w", config.ErrInvalid), ExitUsage},
		{fmt.Errorf("x: %w", lightcurve.ErrParamLength), ExitUsage},
		{fmt.Errorf("x: %w", lens.ErrMass), ExitUsage},
		{errors.New("solver diverged"), ExitRuntime},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
