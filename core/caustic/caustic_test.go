package caustic

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"mlens-core/lens"
)

func TestBinaryCurveCounts(t *testing.T) {
	tests := []struct {
		s, q float64
		want int
	}{
		{0.5, 1, 3},
		{1, 1, 1},
		{3, 1, 2},
		{0.9, 0.1, 1},
	}
	for _, tc := range tests {
		set, err := Binary(tc.s, tc.q, Options{})
		if err != nil {
			t.Fatalf("Binary(%g,%g): %v", tc.s, tc.q, err)
		}
		if len(set.CriticalCurves) != tc.want || len(set.Caustics) != tc.want {
			t.Fatalf("Binary(%g,%g): %d critical curves, %d caustics, want %d",
				tc.s, tc.q, len(set.CriticalCurves), len(set.Caustics), tc.want)
		}
		if got := TopologyOf(tc.s, tc.q).Curves(); got != tc.want {
			t.Fatalf("TopologyOf(%g,%g) predicts %d curves, traced %d", tc.s, tc.q, got, tc.want)
		}
	}
}

func TestMulti_Triple(t *testing.T) {
	cfg, err := lens.FromGeometry([]float64{0, 0, 1, 0.4, 0.08, 0.2, 0.56, -0.24, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	set, err := Multi(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Caustics) != 5 {
		t.Fatalf("got %d caustics, want 5", len(set.Caustics))
	}
	total := 0
	for _, c := range set.CriticalCurves {
		total += len(c) - 1
	}
	if total != 6*defaultPoints {
		t.Fatalf("curves hold %d points, want %d", total, 6*defaultPoints)
	}
}

func TestCriticalPointsHaveZeroJacobian(t *testing.T) {
	cfg, err := lens.Binary(1.2, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	set, err := Multi(cfg, Options{Points: 64})
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range set.CriticalCurves {
		if c[0] != c[len(c)-1] {
			t.Fatalf("curve %d is not closed", i)
		}
		for _, z := range c {
			if j := cfg.Jacobian(z); math.Abs(j) > 1e-8 {
				t.Fatalf("det J=%g at %v", j, z)
			}
		}
		for k, z := range c {
			if cmplx.Abs(set.Caustics[i][k]-cfg.Map(z)) > 1e-12 {
				t.Fatalf("caustic point %d does not map from its critical point", k)
			}
		}
	}
}

func TestTopology(t *testing.T) {
	c, w := Boundaries(1)
	if math.Abs(c-1/math.Sqrt2) > 1e-12 || math.Abs(w-2) > 1e-12 {
		t.Fatalf("equal-mass boundaries %.15f %.15f", c, w)
	}
	for _, tc := range []struct {
		s    float64
		want Topology
	}{{0.5, Close}, {1, Resonant}, {3, Wide}} {
		if got := TopologyOf(tc.s, 1); got != tc.want {
			t.Fatalf("TopologyOf(%g,1)=%v want %v", tc.s, got, tc.want)
		}
	}
}

func TestErrors(t *testing.T) {
	if _, err := Multi(lens.Config{}, Options{}); !errors.Is(err, lens.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Caustics(-1, 0.1, Options{}); err == nil {
		t.Fatalf("negative separation accepted")
	}
}

// Masses 1, 0.7 and 0.2 at the origin, (0.5, 0.1) and (-0.3, 0.2).
func TestMulti_ReferenceLayout(t *testing.T) {
	cfg, err := lens.FromGeometry([]float64{0, 0, 1, 0.5, 0.1, 0.7, -0.3, 0.2, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	set, err := Multi(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Caustics) != 5 || len(set.CriticalCurves) != 5 {
		t.Fatalf("got %d caustics and %d critical curves, want 5 and 5", len(set.Caustics), len(set.CriticalCurves))
	}
	for i, c := range set.CriticalCurves {
		if c[0] != c[len(c)-1] {
			t.Fatalf("critical curve %d is not closed", i)
		}
	}
}

func TestMatch_OneToOne(t *testing.T) {
	// Both of the first two ends are nearest start 0.
	end := []complex128{0.01, 0.02, 5}
	start := []complex128{0, 3, 5.1}
	perm := match(end, start)
	want := []int{0, 1, 2}
	for i := range want {
		if perm[i] != want[i] {
			t.Fatalf("match = %v, want %v", perm, want)
		}
	}

	cs := cycles([]int{1, 0, 3, 2, 4})
	if len(cs) != 3 {
		t.Fatalf("cycles = %v, want 3 cycles", cs)
	}
	n := 0
	for _, c := range cs {
		n += len(c)
	}
	if n != 5 {
		t.Fatalf("cycles %v cover %d of 5 trajectories", cs, n)
	}
}
