package tables

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mlens-core/espl"
	"mlens-core/kinematics"
	"mlens-core/lightcurve"
)

const horizons = `*******************************************************************************
 Ephemeris / WWW_USER
Target body name: Sun (10)
*******************************************************************************
            JDTDB,            Calendar Date (TDB),                      X,                      Y,                      Z,
$$SOE
2457000.500000000, A.D. 2014-Dec-09 00:00:00.0000,  1.000000000000000E-01, -9.000000000000000E-01, -4.000000000000000E-01,
2457001.500000000, A.D. 2014-Dec-10 00:00:00.0000,  1.200000000000000E-01, -8.800000000000000E-01, -3.800000000000000E-01,
2457002.500000000, A.D. 2014-Dec-11 00:00:00.0000,  1.400000000000000E-01, -8.600000000000000E-01, -3.600000000000000E-01,
$$EOE
*******************************************************************************
`

func TestParseEphemeris_Horizons(t *testing.T) {
	e, err := ParseEphemeris(strings.NewReader(horizons))
	if err != nil {
		t.Fatalf("ParseEphemeris: %v", err)
	}
	if len(e.JD) != 3 {
		t.Fatalf("rows=%d", len(e.JD))
	}
	first, last := e.Span()
	if first != 2457000.5 || last != 2457002.5 {
		t.Fatalf("span %g..%g", first, last)
	}

	cases := []struct {
		jd   float64
		want kinematics.Vec3
	}{
		{2457000.5, kinematics.Vec3{0.10, -0.90, -0.40}},
		{2457001.0, kinematics.Vec3{0.11, -0.89, -0.39}},
		{2457002.5, kinematics.Vec3{0.14, -0.86, -0.36}},
	}
	for _, tc := range cases {
		got, err := e.Position(tc.jd)
		if err != nil {
			t.Fatalf("Position(%g): %v", tc.jd, err)
		}
		for i := range got {
			if math.Abs(got[i]-tc.want[i]) > 1e-12 {
				t.Fatalf("Position(%g)=%v want %v", tc.jd, got, tc.want)
			}
		}
	}

	if _, err := e.Position(2457003); !errors.Is(err, kinematics.ErrEphemeris) {
		t.Fatalf("want ErrEphemeris past the end, got %v", err)
	}
}

func TestParseEphemeris_Plain(t *testing.T) {
	in := "# jd x y z\n2450000 1 0 0\n2450002 1 2 0\n"
	e, err := ParseEphemeris(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	p, err := e.Position(2450001)
	if err != nil || p != (kinematics.Vec3{1, 1, 0}) {
		t.Fatalf("got %v, %v", p, err)
	}
}

func TestParseEphemeris_Errors(t *testing.T) {
	cases := map[string]string{
		"no end":     "$$SOE\n2450000 1 0 0\n",
		"one row":    "2450000 1 0 0\n",
		"short row":  "2450000 1 0\n2450001 1 0 0\n",
		"not number": "2450000 1 x 0\n2450001 1 0 0\n",
		"unsorted":   "2450001 1 0 0\n2450000 1 0 0\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseEphemeris(strings.NewReader(in)); !errors.Is(err, ErrFormat) {
				t.Fatalf("want ErrFormat, got %v", err)
			}
		})
	}
}

func syntheticGrid(t *testing.T) *espl.Grid {
	t.Helper()
	g, err := espl.NewGrid(espl.GridSpec{ZMax: 2, ZN: 3, RhoMin: 0.01, RhoMax: 0.1, RhoN: 2})
	if err != nil {
		t.Fatal(err)
	}
	for i := range g.U {
		for j := range g.U[i] {
			g.U[i][j] = 1 + 0.1*float64(i) + 0.01*float64(j)
			g.Mu[i][j] = 1.0 / 3
		}
	}
	return g
}

func TestGrid_RoundTrip(t *testing.T) {
	g := syntheticGrid(t)
	var buf bytes.Buffer
	if err := WriteGrid(&buf, g); err != nil {
		t.Fatal(err)
	}
	back, err := ReadGrid(&buf)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if back.Spec != g.Spec {
		t.Fatalf("spec %+v want %+v", back.Spec, g.Spec)
	}
	for i := range g.U {
		for j := range g.U[i] {
			if back.U[i][j] != g.U[i][j] || back.Mu[i][j] != g.Mu[i][j] {
				t.Fatalf("entry [%d][%d] changed", i, j)
			}
		}
	}
}

func TestReadGrid_Errors(t *testing.T) {
	cases := map[string]string{
		"header":    "grid\n",
		"spec":      gridMagic + "\n2 three\n",
		"rows":      gridMagic + "\n2 3 0.01 0.1 2\n1 1 1\n",
		"width":     gridMagic + "\n2 3 0.01 0.1 2\n1 1\n",
		"not float": gridMagic + "\n2 3 0.01 0.1 2\n1 1 z\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadGrid(strings.NewReader(in)); !errors.Is(err, ErrFormat) {
				t.Fatalf("want ErrFormat, got %v", err)
			}
		})
	}

	neg := gridMagic + "\n2 3 0.01 0.1 2\n1 1 1\n1 1 1\n1 1 1\n1 -1 1\n"
	if _, err := ReadGrid(strings.NewReader(neg)); !errors.Is(err, espl.ErrTable) {
		t.Fatalf("want ErrTable for a negative entry, got %v", err)
	}
}

func TestContext(t *testing.T) {
	dir := t.TempDir()
	gridPath := filepath.Join(dir, "espl.tab")
	if err := SaveGrid(gridPath, syntheticGrid(t)); err != nil {
		t.Fatal(err)
	}
	sunPath := filepath.Join(dir, "sun.txt")
	if err := os.WriteFile(sunPath, []byte(horizons), 0o644); err != nil {
		t.Fatal(err)
	}

	var empty *Context
	if _, err := empty.Table(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("want ErrNotLoaded, got %v", err)
	}

	c, err := Load(Paths{ESPL: gridPath, Sun: sunPath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.Table(); err != nil {
		t.Fatal(err)
	}

	var opt lightcurve.Options
	c.Apply(&opt)
	if opt.Table == nil || opt.Sun == nil || opt.Satellite != nil {
		t.Fatalf("Apply: %+v", opt)
	}

	if _, err := Load(Paths{Sun: filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("missing file accepted")
	}
}
