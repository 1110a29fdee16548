package lens

import (
	"errors"
	"math"
	"math/cmplx"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := New(nil); !errors.Is(err, ErrEmpty) {
			t.Fatalf("expected ErrEmpty, got %v", err)
		}
	})
	t.Run("mass sum", func(t *testing.T) {
		_, err := New([]Mass{{0, 0.5}, {1, 0.6}})
		if !errors.Is(err, ErrMassSum) {
			t.Fatalf("expected ErrMassSum, got %v", err)
		}
		if !strings.Contains(err.Error(), "mass sum 1.1") {
			t.Fatalf("message should carry the sum: %v", err)
		}
	})
	t.Run("within tolerance", func(t *testing.T) {
		if _, err := New([]Mass{{0, 0.5}, {1, 0.5 + 1e-12}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("negative mass", func(t *testing.T) {
		if _, err := New([]Mass{{0, 1.5}, {1, -0.5}}); !errors.Is(err, ErrMass) {
			t.Fatalf("expected ErrMass, got %v", err)
		}
	})
	t.Run("input is copied", func(t *testing.T) {
		ms := []Mass{{0, 1}}
		c, _ := New(ms)
		ms[0].Pos = 5
		if c.Lens(0).Pos != 0 {
			t.Fatalf("Config must not alias caller slice")
		}
	})
}

func TestBinaryFrame(t *testing.T) {
	c, err := Binary(1.2, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if c.N() != 2 {
		t.Fatalf("N=%d", c.N())
	}
	if cm := c.CentreOfMass(); cmplx.Abs(cm) > 1e-15 {
		t.Fatalf("centre of mass %v not at origin", cm)
	}
	if d := cmplx.Abs(c.Lens(1).Pos - c.Lens(0).Pos); math.Abs(d-1.2) > 1e-15 {
		t.Fatalf("separation %g", d)
	}
	if math.Abs(c.Lens(0).M-0.8) > 1e-15 || real(c.Lens(0).Pos) >= 0 {
		t.Fatalf("primary should be the heavier lens on the negative axis: %+v", c.Lens(0))
	}
	if _, err := Binary(0, 1); !errors.Is(err, ErrGeometry) {
		t.Fatalf("expected ErrGeometry for s=0, got %v", err)
	}
}

func TestTripleFrame(t *testing.T) {
	c, err := Triple(1, 0.5, 0.8, 0.1, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if cm := c.CentreOfMass(); cmplx.Abs(cm) > 1e-14 {
		t.Fatalf("centre of mass %v", cm)
	}
	z1, z2, z3 := c.Lens(0).Pos, c.Lens(1).Pos, c.Lens(2).Pos
	if math.Abs(cmplx.Abs(z2-z1)-1) > 1e-14 || math.Abs(cmplx.Abs(z3-z1)-0.8) > 1e-14 {
		t.Fatalf("separations wrong: %v %v %v", z1, z2, z3)
	}
	if math.Abs(cmplx.Phase(z3-z1)-1.0) > 1e-14 {
		t.Fatalf("psi not honoured")
	}
	sum := c.Lens(0).M + c.Lens(1).M + c.Lens(2).M
	if math.Abs(sum-1) > 1e-15 {
		t.Fatalf("masses sum to %g", sum)
	}
}

func TestFromGeometry(t *testing.T) {
	c, err := FromGeometry([]float64{0, 0, 1, 0.5, 0.1, 0.7, -0.3, 0.2, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if c.N() != 3 {
		t.Fatalf("N=%d", c.N())
	}
	if math.Abs(c.Lens(1).M-0.7/1.9) > 1e-15 {
		t.Fatalf("mass not normalised: %g", c.Lens(1).M)
	}
	if c.Lens(2).Pos != complex(-0.3, 0.2) {
		t.Fatalf("position %v", c.Lens(2).Pos)
	}
	if _, err := FromGeometry([]float64{0, 0}); !errors.Is(err, ErrGeometry) {
		t.Fatalf("expected ErrGeometry, got %v", err)
	}
	if _, err := FromGeometry(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLensEquation(t *testing.T) {
	// single lens: z = 2 maps to ζ = 2 − 1/2
	s := Single()
	if got := s.Map(2); cmplx.Abs(got-1.5) > 1e-15 {
		t.Fatalf("Map(2)=%v", got)
	}
	// det J on the Einstein ring vanishes
	if j := s.Jacobian(cmplx.Rect(1, 0.7)); math.Abs(j) > 1e-14 {
		t.Fatalf("Jacobian on ring = %g", j)
	}
	// translation leaves the mapping covariant
	b, _ := Binary(0.9, 0.1)
	o := complex(0.3, -0.2)
	z := complex(0.4, 0.9)
	if d := cmplx.Abs(b.Translate(o).Map(z-o) - (b.Map(z) - o)); d > 1e-14 {
		t.Fatalf("Translate not covariant: %g", d)
	}
}

func TestSourceValidate(t *testing.T) {
	cases := []struct {
		src Source
		ok  bool
	}{
		{Source{Pos: 0.1}, true},
		{Source{Pos: 0.1, Radius: 0.01, LD: 0.5}, true},
		{Source{Radius: -1}, false},
		{Source{Radius: 0.1, LD: 1.5}, false},
		{Source{Pos: complex(math.NaN(), 0)}, false},
	}
	for _, tc := range cases {
		err := tc.src.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("Validate(%+v) = %v, ok=%v", tc.src, err, tc.ok)
		}
		if err != nil && !errors.Is(err, ErrSource) {
			t.Fatalf("want ErrSource, got %v", err)
		}
	}
}
