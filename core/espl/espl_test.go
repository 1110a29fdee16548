package espl

import (
	"errors"
	"math"
	"testing"

	"mlens-core/contour"
)

func TestPSPLMag(t *testing.T) {
	if got := PSPLMag(0.1); math.Abs(got-10.037461005722339) > 1e-12 {
		t.Fatalf("PSPLMag(0.1)=%.15f", got)
	}
	if !math.IsInf(PSPLMag(0), 1) {
		t.Fatalf("PSPLMag(0) should be +Inf")
	}
	prev := math.Inf(1)
	for u := 0.01; u < 20; u *= 1.3 {
		a := PSPLMag(u)
		if !(a < prev) || a < 1 {
			t.Fatalf("PSPLMag not decreasing at u=%g: %g after %g", u, a, prev)
		}
		prev = a
	}
}

func TestFiniteSource(t *testing.T) {
	opt := contour.Options{AbsTol: 1e-6}
	const want = 5.115264209713242

	r, err := Mag(0.2, 0.05, opt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Mag-want) > 1e-4 {
		t.Fatalf("Mag=%.10f", r.Mag)
	}
	d, err := MagDark(0.2, 0.05, 0, opt)
	if err != nil {
		t.Fatal(err)
	}
	if d.Mag != r.Mag {
		t.Fatalf("MagDark with a1=0 = %.12f, Mag = %.12f", d.Mag, r.Mag)
	}
	h, err := Mag2(0.2, 0.05, contour.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(h.Mag-want) > 1e-3 {
		t.Fatalf("Mag2=%.10f", h.Mag)
	}
	// negative impact parameters mirror positive ones
	m, err := Mag(-0.2, 0.05, opt)
	if err != nil {
		t.Fatal(err)
	}
	if m.Mag != r.Mag {
		t.Fatalf("Mag(-u)=%.12f Mag(u)=%.12f", m.Mag, r.Mag)
	}
}

func smallSpec() GridSpec {
	return GridSpec{ZMax: 4, ZN: 9, RhoMin: 0.01, RhoMax: 0.1, RhoN: 3}
}

func TestGrid(t *testing.T) {
	opt := contour.Options{AbsTol: 1e-5}
	g, err := Build(smallSpec(), opt)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	t.Run("node", func(t *testing.T) {
		rho := g.Rho(1)
		u := g.Z(5) * rho
		want, err := Mag(u, rho, opt)
		if err != nil {
			t.Fatal(err)
		}
		got, err := g.Mag(u, rho, 0)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want.Mag) > 1e-9*want.Mag {
			t.Fatalf("table %.12f direct %.12f", got, want.Mag)
		}
	})

	t.Run("darkened node", func(t *testing.T) {
		rho := g.Rho(2)
		u := g.Z(3) * rho
		want, err := MagDark(u, rho, 0.5, opt)
		if err != nil {
			t.Fatal(err)
		}
		got, err := g.Mag(u, rho, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want.Mag) > 1e-3*want.Mag {
			t.Fatalf("table %.8f direct %.8f", got, want.Mag)
		}
	})

	t.Run("far from lens", func(t *testing.T) {
		got, err := g.Mag(5, 0.05, 0.3)
		if err != nil {
			t.Fatal(err)
		}
		if p := PSPLMag(5); math.Abs(got-p) > 1e-4 {
			t.Fatalf("table %.8f point %.8f", got, p)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if _, err := g.Mag(0.1, 0.5, 0); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("expected ErrOutOfRange, got %v", err)
		}
	})
}

func TestGridValidate(t *testing.T) {
	g, err := NewGrid(smallSpec())
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); !errors.Is(err, ErrTable) {
		t.Fatalf("empty grid should not validate, got %v", err)
	}
	if _, err := NewGrid(GridSpec{}); !errors.Is(err, ErrTable) {
		t.Fatalf("zero spec accepted: %v", err)
	}
}
